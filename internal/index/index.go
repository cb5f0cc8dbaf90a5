// Package index defines the built index of an opam switch: packages, the
// libraries they declare, and the modules those libraries aggregate, with
// name-based lookup tables over all three.
package index

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvariant marks internal inconsistencies between records handed to the
// builder. It signals a bug in an earlier stage, never bad user input.
var ErrInvariant = errors.New("index invariant violated")

// ErrNotFound is returned by Find when no module has the queried name.
var ErrNotFound = errors.New("module not found")

// Package is one installed package. Files are switch-root-relative and
// sorted; Libraries holds the names of the libraries its META declares.
type Package struct {
	Name      string   `json:"name"`
	Version   string   `json:"version,omitempty"`
	Files     []string `json:"files,omitempty"`
	Libraries []string `json:"libraries,omitempty"`
}

// Library is one library declared by a package's META file. Package is a
// by-name reference into the same State.
type Library struct {
	Name     string   `json:"name"`
	Package  string   `json:"package"`
	Dir      string   `json:"dir,omitempty"`
	Archives []string `json:"archives,omitempty"`
	Requires []string `json:"requires,omitempty"`
}

// Module is one compilation unit owned by exactly one library. Extensions
// records which file-extension variants were found for it (mli, ml, cmi,
// cmti, cmt, cmo, cmx); Paths holds the switch-root-relative files behind
// them. Module names are not globally unique.
type Module struct {
	Name       string   `json:"name"`
	Library    string   `json:"library"`
	Package    string   `json:"package"`
	Extensions []string `json:"extensions,omitempty"`
	Paths      []string `json:"paths,omitempty"`
}

// State is the aggregate index of one scan. Packages and Libraries are
// unique by name; Modules is a multimap because unrelated packages may
// install same-named modules. A State is immutable once built: the only way
// to change it is to scan again and replace it wholesale.
type State struct {
	Packages  map[string]*Package  `json:"packages"`
	Libraries map[string]*Library  `json:"libraries"`
	Modules   map[string][]*Module `json:"modules"`
}

// Build assembles the three lookup tables from the records produced by a
// scan. Every library must reference a known package and every module a
// known library; a dangling reference is an ErrInvariant, distinct from the
// recoverable per-package failures collected during scanning.
func Build(pkgs []*Package, libs []*Library, mods []*Module) (*State, error) {
	st := &State{
		Packages:  make(map[string]*Package, len(pkgs)),
		Libraries: make(map[string]*Library, len(libs)),
		Modules:   make(map[string][]*Module),
	}

	for _, p := range pkgs {
		if _, dup := st.Packages[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate package %q", ErrInvariant, p.Name)
		}
		st.Packages[p.Name] = p
	}

	for _, l := range libs {
		if _, ok := st.Packages[l.Package]; !ok {
			return nil, fmt.Errorf("%w: library %q references unknown package %q", ErrInvariant, l.Name, l.Package)
		}
		if _, dup := st.Libraries[l.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate library %q", ErrInvariant, l.Name)
		}
		st.Libraries[l.Name] = l
	}

	for _, m := range mods {
		lib, ok := st.Libraries[m.Library]
		if !ok {
			return nil, fmt.Errorf("%w: module %q references unknown library %q", ErrInvariant, m.Name, m.Library)
		}
		if lib.Package != m.Package {
			return nil, fmt.Errorf("%w: module %q names package %q but library %q belongs to %q",
				ErrInvariant, m.Name, m.Package, m.Library, lib.Package)
		}
		st.Modules[m.Name] = append(st.Modules[m.Name], m)
	}

	return st, nil
}

// Find returns every module with the given base name, sorted by owning
// package then library so ambiguous results are stable. Zero matches is
// ErrNotFound; multiple matches are a normal result for the caller to
// disambiguate, not an error.
func (s *State) Find(name string) ([]*Module, error) {
	mods := s.Modules[name]
	if len(mods) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	out := append([]*Module(nil), mods...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Library < out[j].Library
	})
	return out, nil
}

// PackageNames returns the package names in sorted order.
func (s *State) PackageNames() []string {
	names := make([]string, 0, len(s.Packages))
	for name := range s.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LibraryNames returns the library names in sorted order.
func (s *State) LibraryNames() []string {
	names := make([]string, 0, len(s.Libraries))
	for name := range s.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LibrariesOf returns the libraries declared by one package, sorted by name.
func (s *State) LibrariesOf(pkg string) []*Library {
	var libs []*Library
	for _, lib := range s.Libraries {
		if lib.Package == pkg {
			libs = append(libs, lib)
		}
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Name < libs[j].Name })
	return libs
}

// ModulesOf returns the modules owned by one library, sorted by name.
func (s *State) ModulesOf(lib string) []*Module {
	var mods []*Module
	for _, bucket := range s.Modules {
		for _, m := range bucket {
			if m.Library == lib {
				mods = append(mods, m)
			}
		}
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods
}
