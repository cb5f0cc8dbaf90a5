package odoc

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
	"github.com/camldex/camldex/internal/scan"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>camldex index</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
h2 { border-bottom: 1px solid #ccc; }
.version { color: #666; font-size: 0.85em; }
.modules { color: #333; }
.readme { background: #f8f8f8; padding: 0.5rem 1rem; }
</style>
</head>
<body>
<h1>Installed packages</h1>
{{range .Packages}}
<h2 id="{{.Name}}"><a href="{{.Name}}/index.html">{{.Name}}</a> <span class="version">{{.Version}}</span></h2>
{{range .Libraries}}
<p><strong>{{.Name}}</strong>
{{if .Modules}}<span class="modules">— {{range $i, $m := .Modules}}{{if $i}}, {{end}}<a href="{{$m.Page}}">{{$m.Name}}</a>{{end}}</span>{{end}}
</p>
{{end}}
{{if .Readme}}<div class="readme">{{.Readme}}</div>{{end}}
{{end}}
</body>
</html>
`))

type indexModule struct {
	Name string
	Page string
}

type indexLibrary struct {
	Name    string
	Modules []indexModule
}

type indexPackage struct {
	Name      string
	Version   string
	Libraries []indexLibrary
	Readme    template.HTML
}

type indexPage struct {
	Packages []indexPackage
}

// WriteIndex writes the static landing page for a generated documentation
// tree and returns its path. README rendering problems are recorded in the
// report but never fail the page as a whole.
func WriteIndex(root string, st *index.State, report *scan.Report) (string, error) {
	page := indexPage{}

	for _, name := range st.PackageNames() {
		pkg := st.Packages[name]
		entry := indexPackage{Name: pkg.Name, Version: pkg.Version}

		for _, lib := range st.LibrariesOf(name) {
			libEntry := indexLibrary{Name: lib.Name}
			for _, m := range st.ModulesOf(lib.Name) {
				libEntry.Modules = append(libEntry.Modules, indexModule{
					Name: m.Name,
					Page: name + "/" + m.Name + "/index.html",
				})
			}
			entry.Libraries = append(entry.Libraries, libEntry)
		}

		if readme := findReadme(pkg); readme != "" {
			body, err := renderReadme(root, readme, moduleLinkMap(st, name))
			if err != nil {
				report.Add(name, readme, err)
			} else {
				entry.Readme = template.HTML(body)
			}
		}

		page.Packages = append(page.Packages, entry)
	}

	outDir := config.HTMLDir(root)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating html dir: %w", err)
	}

	out := filepath.Join(outDir, "index.html")
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating index page: %w", err)
	}
	defer f.Close()

	if err := indexTemplate.Execute(f, page); err != nil {
		return "", fmt.Errorf("rendering index page: %w", err)
	}
	return out, nil
}
