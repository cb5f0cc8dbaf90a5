// Package opamfs reads the on-disk layout of an opam switch: which packages
// are installed and which files each one owns.
package opamfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	installDir  = ".opam-switch/install"
	packagesDir = ".opam-switch/packages"
)

// PackageInfo identifies one installed package and where its ownership
// manifest lives.
type PackageInfo struct {
	Name        string
	Version     string
	ChangesPath string
}

// ListPackages enumerates the installed packages of a switch in name order.
// An empty or absent install directory is a valid empty switch, not an error.
func ListPackages(root string) ([]PackageInfo, error) {
	dir := filepath.Join(root, filepath.FromSlash(installDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing install manifests in %s: %w", dir, err)
	}

	versions := packageVersions(root)

	var infos []PackageInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".changes") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".changes")
		infos = append(infos, PackageInfo{
			Name:        name,
			Version:     versions[name],
			ChangesPath: filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// packageVersions maps package names to versions by splitting the
// <name>.<version> directory names opam keeps per installed package.
// Missing metadata just means an empty version string.
func packageVersions(root string) map[string]string {
	versions := make(map[string]string)
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(packagesDir)))
	if err != nil {
		return versions
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// Package names may themselves contain dots (e.g. dune.3.15.0 vs
		// ocamlfind.1.9.6): the version starts at the first dot followed
		// by a digit.
		name := e.Name()
		for i := 0; i < len(name)-1; i++ {
			if name[i] == '.' && name[i+1] >= '0' && name[i+1] <= '9' {
				versions[name[:i]] = name[i+1:]
				break
			}
		}
	}
	return versions
}
