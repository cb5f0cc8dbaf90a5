// Package odoc drives the external documentation generator over a built
// index and writes the static landing page. The actual HTML rendering is
// odoc's job; this package only decides what to feed it, runs it, and
// collects per-package failures for end-of-run reporting.
package odoc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
	"github.com/camldex/camldex/internal/scan"
)

type Generator struct {
	Tool string
	Jobs int
}

// Run generates documentation for every package in the index, at most Jobs
// packages at a time. Failures never abort the run; they come back in a
// Report ordered by package name so output is stable regardless of which
// subprocess finished first.
func (g *Generator) Run(ctx context.Context, root string, st *index.State) *scan.Report {
	outDir := config.HTMLDir(root)
	report := &scan.Report{}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		report.Add("", outDir, err)
		return report
	}

	names := st.PackageNames()
	perPkg := make([]*scan.Report, len(names))

	jobs := g.Jobs
	if jobs < 1 {
		jobs = 1
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(jobs)
	for i, name := range names {
		grp.Go(func() error {
			perPkg[i] = g.generatePackage(ctx, root, outDir, st, name)
			return nil
		})
	}
	grp.Wait()

	for _, r := range perPkg {
		report.Merge(r)
	}
	return report
}

// generatePackage runs the generator once for one package, over the best
// compiled interface available for each of its modules.
func (g *Generator) generatePackage(ctx context.Context, root, outDir string, st *index.State, pkg string) *scan.Report {
	report := &scan.Report{}

	inputs := compiledInterfaces(st, pkg)
	if len(inputs) == 0 {
		return report
	}

	args := []string{"html", "--output-dir", filepath.Join(outDir, pkg)}
	for _, in := range inputs {
		args = append(args, filepath.Join(root, filepath.FromSlash(in)))
	}

	cmd := exec.CommandContext(ctx, g.Tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		report.Add(pkg, g.Tool, err)
	}
	return report
}

// compiledInterfaces picks one input file per module of a package,
// preferring the cmti (typed interface) over the bare cmi.
func compiledInterfaces(st *index.State, pkg string) []string {
	var inputs []string
	for _, lib := range st.LibrariesOf(pkg) {
		for _, m := range st.ModulesOf(lib.Name) {
			if in := pickInterface(m); in != "" {
				inputs = append(inputs, in)
			}
		}
	}
	return inputs
}

func pickInterface(m *index.Module) string {
	var cmi string
	for _, p := range m.Paths {
		switch filepath.Ext(p) {
		case ".cmti":
			return p
		case ".cmi":
			cmi = p
		}
	}
	return cmi
}
