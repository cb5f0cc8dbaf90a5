package objinfo

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseOutput_Bytecode(t *testing.T) {
	out := []byte(`File foo.cma
Unit name: Foo
Interfaces imported:
	a1b2c3	Stdlib
Unit name: Foo_bar
Unit name: Foo
`)
	got := parseOutput(out)
	want := []string{"Foo", "Foo_bar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseOutput_Native(t *testing.T) {
	out := []byte(`File foo.cmxa
Name: Foo
CRC of implementation: deadbeef
Name: Foo_native
`)
	got := parseOutput(out)
	want := []string{"Foo", "Foo_native"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseOutput_NoUnits(t *testing.T) {
	if got := parseOutput([]byte("File foo.cma\nnothing useful here\n")); len(got) != 0 {
		t.Errorf("expected no names, got %v", got)
	}
}

func TestModuleNames_FakeTool(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "fakeobjinfo")
	script := "#!/bin/sh\necho 'File '$1\necho 'Unit name: Alpha'\necho 'Unit name: Beta'\n"
	if err := os.WriteFile(tool, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	names, err := ModuleNames(context.Background(), tool, "whatever.cma")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Alpha", "Beta"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestModuleNames_ToolFailure(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "failobjinfo")
	script := "#!/bin/sh\necho 'not an object file' >&2\nexit 2\n"
	if err := os.WriteFile(tool, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := ModuleNames(context.Background(), tool, "bad.cma"); err == nil {
		t.Fatal("expected error from failing tool")
	}
}

func TestModuleNames_MissingTool(t *testing.T) {
	_, err := ModuleNames(context.Background(), filepath.Join(t.TempDir(), "nope"), "a.cma")
	if err == nil {
		t.Fatal("expected error for missing tool")
	}
}
