package odoc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
	"github.com/camldex/camldex/internal/scan"
)

func stateWithReadme(t *testing.T, root string) *index.State {
	t.Helper()

	readme := filepath.Join(root, "doc", "alpha", "README.md")
	if err := os.MkdirAll(filepath.Dir(readme), 0755); err != nil {
		t.Fatal(err)
	}
	content := "# alpha\n\nSee [Foo](Foo) for the entry point.\n"
	if err := os.WriteFile(readme, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cmti := filepath.Join(root, "lib", "alpha", "foo.cmti")
	if err := os.MkdirAll(filepath.Dir(cmti), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cmti, nil, 0644); err != nil {
		t.Fatal(err)
	}

	st, err := index.Build(
		[]*index.Package{
			{Name: "alpha", Version: "1.0", Files: []string{"doc/alpha/README.md", "lib/alpha/foo.cmti"}, Libraries: []string{"alpha"}},
			{Name: "beta", Version: "0.3", Libraries: []string{"beta"}},
		},
		[]*index.Library{
			{Name: "alpha", Package: "alpha", Dir: "lib/alpha"},
			{Name: "beta", Package: "beta", Dir: "lib/beta"},
		},
		[]*index.Module{
			{Name: "Foo", Library: "alpha", Package: "alpha", Extensions: []string{"cmti"}, Paths: []string{"lib/alpha/foo.cmti"}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestRewriteModuleLinks_Inline(t *testing.T) {
	src := "See [Foo](Foo) for details."
	got := rewriteModuleLinks(src, map[string]string{"Foo": "alpha/Foo/index.html"})
	want := "See [Foo](alpha/Foo/index.html) for details."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteModuleLinks_ReferenceStyle(t *testing.T) {
	src := "See [Foo][ref].\n\n[ref]: Foo"
	got := rewriteModuleLinks(src, map[string]string{"Foo": "alpha/Foo/index.html"})
	if !strings.Contains(got, "[ref]: alpha/Foo/index.html") {
		t.Errorf("reference link not rewritten: %q", got)
	}
}

func TestRewriteModuleLinks_EmptyMap(t *testing.T) {
	src := "Hello [world](url)."
	if got := rewriteModuleLinks(src, nil); got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestFindReadme(t *testing.T) {
	pkg := &index.Package{Files: []string{"lib/p/META", "doc/p/CHANGES.md", "doc/p/README.md"}}
	if got := findReadme(pkg); got != "doc/p/README.md" {
		t.Errorf("got %q", got)
	}
	if got := findReadme(&index.Package{Files: []string{"lib/p/META"}}); got != "" {
		t.Errorf("expected no readme, got %q", got)
	}
}

func TestWriteIndex(t *testing.T) {
	root := t.TempDir()
	st := stateWithReadme(t, root)
	report := &scan.Report{}

	out, err := WriteIndex(root, st, report)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Empty() {
		t.Fatalf("unexpected failures: %s", report.Summary())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)

	for _, want := range []string{
		`id="alpha"`,
		`id="beta"`,
		"alpha/Foo/index.html",
		"entry point",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestGeneratorRun_CollectsFailuresInPackageOrder(t *testing.T) {
	root := t.TempDir()
	st := stateWithReadme(t, root)

	// beta has no compiled interfaces, so only alpha invokes the tool.
	tool := filepath.Join(t.TempDir(), "failodoc")
	script := "#!/bin/sh\necho 'cannot render' >&2\nexit 1\n"
	if err := os.WriteFile(tool, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	g := &Generator{Tool: tool, Jobs: 2}
	report := g.Run(context.Background(), root, st)

	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d: %s", len(failures), report.Summary())
	}
	if failures[0].Package != "alpha" {
		t.Errorf("failure attributed to %q, want alpha", failures[0].Package)
	}
	if !strings.Contains(failures[0].Err.Error(), "cannot render") {
		t.Errorf("stderr not captured: %v", failures[0].Err)
	}
}

func TestGeneratorRun_Success(t *testing.T) {
	root := t.TempDir()
	st := stateWithReadme(t, root)

	tool := filepath.Join(t.TempDir(), "okodoc")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatal(err)
	}

	g := &Generator{Tool: tool, Jobs: 1}
	report := g.Run(context.Background(), root, st)
	if !report.Empty() {
		t.Fatalf("unexpected failures: %s", report.Summary())
	}
	if _, err := os.Stat(config.HTMLDir(root)); err != nil {
		t.Errorf("output dir not created: %v", err)
	}
}

func TestPickInterface(t *testing.T) {
	m := &index.Module{Paths: []string{"lib/p/foo.cmi", "lib/p/foo.cmti", "lib/p/foo.ml"}}
	if got := pickInterface(m); got != "lib/p/foo.cmti" {
		t.Errorf("got %q, want the cmti", got)
	}
	m = &index.Module{Paths: []string{"lib/p/foo.cmi", "lib/p/foo.ml"}}
	if got := pickInterface(m); got != "lib/p/foo.cmi" {
		t.Errorf("got %q, want the cmi", got)
	}
	if got := pickInterface(&index.Module{Paths: []string{"lib/p/foo.ml"}}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
