package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
	"github.com/klauspost/compress/zstd"
)

func sampleState(t *testing.T) *index.State {
	t.Helper()
	st, err := index.Build(
		[]*index.Package{
			{Name: "alpha", Version: "1.0", Files: []string{"lib/alpha/META", "lib/alpha/foo.ml"}},
			{Name: "beta", Version: "0.3"},
		},
		[]*index.Library{
			{Name: "alpha", Package: "alpha", Dir: "lib/alpha", Archives: []string{"alpha.cma"}},
			{Name: "beta", Package: "beta", Requires: []string{"alpha"}},
		},
		[]*index.Module{
			{Name: "Foo", Library: "alpha", Package: "alpha", Extensions: []string{"mli", "ml"}, Paths: []string{"lib/alpha/foo.ml"}},
			{Name: "Foo", Library: "beta", Package: "beta", Extensions: []string{"ml"}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	st := sampleState(t)

	if err := Save(root, st); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Error("loaded state differs from saved state")
	}
}

func TestSaveLoad_EmptyState(t *testing.T) {
	root := t.TempDir()
	st, err := index.Build(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := Save(root, st); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Error("empty state did not round-trip")
	}
	if _, err := loaded.Find("Anything"); !errors.Is(err, index.ErrNotFound) {
		t.Errorf("expected ErrNotFound on loaded empty state, got %v", err)
	}
}

func TestSave_Overwrites(t *testing.T) {
	root := t.TempDir()
	if err := Save(root, sampleState(t)); err != nil {
		t.Fatal(err)
	}

	replacement, err := index.Build([]*index.Package{{Name: "only"}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(root, replacement); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Packages) != 1 {
		t.Errorf("expected replacement snapshot, got %v", loaded.PackageNames())
	}
}

func TestLoad_VersionMismatch(t *testing.T) {
	root := t.TempDir()
	path := config.SnapshotPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewEncoder(w).Encode(map[string]any{
		"format_version": FormatVersion + 1,
		"state":          map[string]any{},
	}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(root); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestExistsAndRemove(t *testing.T) {
	root := t.TempDir()
	if Exists(root) {
		t.Fatal("no snapshot expected yet")
	}
	if err := Save(root, sampleState(t)); err != nil {
		t.Fatal(err)
	}
	if !Exists(root) {
		t.Fatal("snapshot should exist after save")
	}
	if err := Remove(root); err != nil {
		t.Fatal(err)
	}
	if Exists(root) {
		t.Fatal("snapshot should be gone after remove")
	}
	// Removing again is fine.
	if err := Remove(root); err != nil {
		t.Fatal(err)
	}
}
