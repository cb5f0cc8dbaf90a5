package index

import (
	"errors"
	"reflect"
	"testing"
)

func twoFooState(t *testing.T) *State {
	t.Helper()
	st, err := Build(
		[]*Package{
			{Name: "alpha", Version: "1.0"},
			{Name: "beta", Version: "2.0"},
		},
		[]*Library{
			{Name: "alpha", Package: "alpha"},
			{Name: "beta", Package: "beta"},
		},
		[]*Module{
			{Name: "Foo", Library: "beta", Package: "beta", Extensions: []string{"ml"}},
			{Name: "Foo", Library: "alpha", Package: "alpha", Extensions: []string{"ml", "mli"}},
			{Name: "Bar", Library: "alpha", Package: "alpha", Extensions: []string{"cmi"}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestBuild_MultimapKeepsDuplicates(t *testing.T) {
	st := twoFooState(t)
	if len(st.Modules["Foo"]) != 2 {
		t.Fatalf("expected 2 Foo entries, got %d", len(st.Modules["Foo"]))
	}
}

func TestBuild_UnknownPackage(t *testing.T) {
	_, err := Build(nil, []*Library{{Name: "ghost", Package: "nobody"}}, nil)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestBuild_UnknownLibrary(t *testing.T) {
	_, err := Build(
		[]*Package{{Name: "p"}},
		nil,
		[]*Module{{Name: "M", Library: "ghost", Package: "p"}},
	)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestBuild_PackageMismatch(t *testing.T) {
	_, err := Build(
		[]*Package{{Name: "p"}, {Name: "q"}},
		[]*Library{{Name: "l", Package: "p"}},
		[]*Module{{Name: "M", Library: "l", Package: "q"}},
	)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	st, err := Build(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Packages) != 0 || len(st.Libraries) != 0 || len(st.Modules) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestFind_Single(t *testing.T) {
	st := twoFooState(t)
	mods, err := st.Find("Bar")
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 || mods[0].Package != "alpha" || mods[0].Library != "alpha" {
		t.Errorf("got %+v", mods)
	}
}

func TestFind_AmbiguousSortedByOwner(t *testing.T) {
	st := twoFooState(t)
	mods, err := st.Find("Foo")
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(mods))
	}
	if mods[0].Package != "alpha" || mods[1].Package != "beta" {
		t.Errorf("not sorted by package: %q, %q", mods[0].Package, mods[1].Package)
	}
	if !reflect.DeepEqual(mods[0].Extensions, []string{"ml", "mli"}) {
		t.Errorf("alpha Foo extensions: %v", mods[0].Extensions)
	}
	if !reflect.DeepEqual(mods[1].Extensions, []string{"ml"}) {
		t.Errorf("beta Foo extensions: %v", mods[1].Extensions)
	}
}

func TestFind_NotFound(t *testing.T) {
	st := twoFooState(t)
	if _, err := st.Find("Anything"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFind_NotFoundOnEmptyState(t *testing.T) {
	st, err := Build(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Find("Anything"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLibrariesOfAndModulesOf(t *testing.T) {
	st := twoFooState(t)
	libs := st.LibrariesOf("alpha")
	if len(libs) != 1 || libs[0].Name != "alpha" {
		t.Errorf("got %+v", libs)
	}
	mods := st.ModulesOf("alpha")
	if len(mods) != 2 || mods[0].Name != "Bar" || mods[1].Name != "Foo" {
		t.Errorf("got %+v", mods)
	}
}
