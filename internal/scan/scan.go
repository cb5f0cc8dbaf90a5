// Package scan walks an opam switch and builds the full index: it
// enumerates packages, attributes installed files to them, parses each
// package's META descriptor, correlates declared archives with the module
// files they aggregate, and hands the records to the index builder.
//
// The scan is sequential and single-threaded; each package's intermediate
// results stay local until the final build, so the resulting State is either
// absent or complete, never half-visible.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/camldex/camldex/internal/index"
	"github.com/camldex/camldex/internal/meta"
	"github.com/camldex/camldex/internal/objinfo"
	"github.com/camldex/camldex/internal/opamfs"
)

// Options selects the correlation strategy.
type Options struct {
	// Objinfo enables object-inspection correlation: each archive is run
	// through the inspection tool and its unit list becomes the
	// authoritative membership, augmented by statically found files.
	Objinfo bool
	// ObjinfoTool is the inspection binary, usually "ocamlobjinfo".
	ObjinfoTool string
}

// moduleExtensions are the file-extension variants a module record
// accumulates, in canonical output order.
var moduleExtensions = []string{"mli", "ml", "cmi", "cmti", "cmt", "cmo", "cmx"}

func isModuleExtension(ext string) bool {
	for _, e := range moduleExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Scan builds a fresh State for the switch at root. Recoverable per-package
// problems are collected into the returned Report; the error is non-nil only
// for fatal conditions (unreadable root, builder invariant violations).
func Scan(ctx context.Context, root string, opts Options) (*index.State, *Report, error) {
	report := &Report{}

	infos, err := opamfs.ListPackages(root)
	if err != nil {
		return nil, nil, err
	}

	var pkgs []*index.Package
	owners := make(map[string]string) // root-relative path → owning package

	for _, info := range infos {
		files, err := opamfs.ParseChanges(info.ChangesPath)
		if err != nil {
			// Keep the package with whatever paths were recovered.
			report.Add(info.Name, filepath.Base(info.ChangesPath), err)
		}
		for _, f := range files {
			if _, taken := owners[f]; !taken {
				owners[f] = info.Name
			}
		}
		pkgs = append(pkgs, &index.Package{
			Name:    info.Name,
			Version: info.Version,
			Files:   files,
		})
	}

	var libs []*index.Library
	var mods []*index.Module
	libSeen := make(map[string]string) // library name → declaring package
	claimed := make(map[string]string) // module file → owning library name

	for _, pkg := range pkgs {
		metaPath := filepath.Join(root, "lib", pkg.Name, "META")
		if _, err := os.Stat(metaPath); err != nil {
			// No META means the package declares no libraries. Not a failure.
			continue
		}

		declared, err := meta.ParseFile(metaPath, pkg.Name)
		if err != nil {
			report.Add(pkg.Name, "META", err)
			continue
		}

		for _, decl := range declared {
			if other, dup := libSeen[decl.Name]; dup {
				report.Add(pkg.Name, decl.Name, fmt.Errorf("library already declared by package %q", other))
				continue
			}
			libSeen[decl.Name] = pkg.Name

			lib := &index.Library{
				Name:     decl.Name,
				Package:  decl.Package,
				Dir:      path.Join("lib", decl.Package, decl.Dir),
				Archives: decl.Archives,
				Requires: decl.Requires,
			}
			libs = append(libs, lib)
			pkg.Libraries = append(pkg.Libraries, lib.Name)

			libMods := correlate(ctx, root, lib, owners, claimed, opts, report)
			mods = append(mods, libMods...)
		}
	}

	st, err := index.Build(pkgs, libs, mods)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("scan complete",
		"root", root,
		"packages", len(st.Packages),
		"libraries", len(st.Libraries),
		"failures", len(report.Failures()))
	return st, report, nil
}

// correlate resolves one library's declared archives to the module files
// they aggregate. The same module name reached through several archives of
// the library (typically the .cma and .cmxa pair) merges into one record.
func correlate(ctx context.Context, root string, lib *index.Library, owners map[string]string, claimed map[string]string, opts Options, report *Report) []*index.Module {
	merged := make(map[string]*index.Module)
	var order []string

	record := func(name string, exts []string, paths []string) {
		m, ok := merged[name]
		if !ok {
			m = &index.Module{Name: name, Library: lib.Name, Package: lib.Package}
			merged[name] = m
			order = append(order, name)
		}
		m.Extensions = mergeStrings(m.Extensions, exts)
		m.Paths = mergeStrings(m.Paths, paths)
	}

	for _, archive := range lib.Archives {
		rel := path.Join(lib.Dir, archive)
		owner, ok := owners[rel]
		if !ok {
			report.Add(lib.Package, rel, errors.New("archive not found in any package manifest"))
			owner = lib.Package
		}

		static := staticMembers(lib.Dir, owner, lib.Name, owners, claimed)

		if opts.Objinfo {
			units, err := objinfo.ModuleNames(ctx, opts.ObjinfoTool, filepath.Join(root, filepath.FromSlash(rel)))
			if err == nil {
				// The inspected unit list is authoritative for membership;
				// static results only contribute extension variants.
				for _, unit := range units {
					if found, ok := static[unit]; ok {
						claim(found, lib.Name, claimed)
						record(unit, found.exts, found.paths)
					} else {
						record(unit, nil, []string{rel})
					}
				}
				continue
			}
			report.Add(lib.Package, rel, err)
			// Degrade to static correlation for this archive.
		}

		names := make([]string, 0, len(static))
		for name := range static {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			found := static[name]
			claim(found, lib.Name, claimed)
			record(name, found.exts, found.paths)
		}
	}

	mods := make([]*index.Module, 0, len(order))
	sort.Strings(order)
	for _, name := range order {
		m := merged[name]
		m.Extensions = canonicalExtensions(m.Extensions)
		sort.Strings(m.Paths)
		mods = append(mods, m)
	}
	return mods
}

type staticModule struct {
	exts  []string
	paths []string
}

// staticMembers gathers the module files co-located with a library's
// archives: files in dir, owned by owner, carrying a module extension, and
// not already claimed by a different library. Names are capitalized the way
// the compiler derives unit names from file names.
func staticMembers(dir, owner, lib string, owners map[string]string, claimed map[string]string) map[string]*staticModule {
	members := make(map[string]*staticModule)
	for file, pkg := range owners {
		if pkg != owner || path.Dir(file) != dir {
			continue
		}
		if by, ok := claimed[file]; ok && by != lib {
			continue
		}
		base := path.Base(file)
		ext := strings.TrimPrefix(path.Ext(base), ".")
		if !isModuleExtension(ext) {
			continue
		}
		name := unitName(strings.TrimSuffix(base, "."+ext))
		m, ok := members[name]
		if !ok {
			m = &staticModule{}
			members[name] = m
		}
		m.exts = append(m.exts, ext)
		m.paths = append(m.paths, file)
	}
	return members
}

func claim(m *staticModule, lib string, claimed map[string]string) {
	for _, p := range m.paths {
		claimed[p] = lib
	}
}

// unitName capitalizes a file base name into its compilation unit name.
func unitName(base string) string {
	if base == "" {
		return base
	}
	return strings.ToUpper(base[:1]) + base[1:]
}

func mergeStrings(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}

// canonicalExtensions reorders an extension set into moduleExtensions order.
func canonicalExtensions(exts []string) []string {
	present := make(map[string]bool, len(exts))
	for _, e := range exts {
		present[e] = true
	}
	var out []string
	for _, e := range moduleExtensions {
		if present[e] {
			out = append(out, e)
		}
	}
	return out
}
