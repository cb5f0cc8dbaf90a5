package odoc

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/camldex/camldex/internal/index"
)

// findReadme returns the root-relative path of a package's README, or ""
// when the package installed none.
func findReadme(pkg *index.Package) string {
	for _, f := range pkg.Files {
		base := strings.ToLower(path.Base(f))
		if base == "readme.md" || base == "readme" {
			return f
		}
	}
	return ""
}

// renderReadme reads a package README and renders it to HTML, first
// rewriting bare module-name links (the `[Foo]` convention common in
// package readmes) to the generated documentation pages.
func renderReadme(root, rel string, linkMap map[string]string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}

	src := rewriteModuleLinks(string(data), linkMap)

	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(gm.Render(doc, renderer)), nil
}

// rewriteModuleLinks rewrites markdown link destinations using the provided
// link map. It parses the markdown to AST to find all link destinations,
// then performs targeted string replacements to preserve the original
// formatting.
func rewriteModuleLinks(src string, linkMap map[string]string) string {
	if len(linkMap) == 0 {
		return src
	}

	doc := gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	seen := make(map[string]bool)
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if newDest, ok := linkMap[dest]; ok && !seen[dest] {
				seen[dest] = true
				replacements = append(replacements, replacement{dest, newDest})
			}
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links: [text](destination)
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// moduleLinkMap maps a package's module names to their generated pages, so
// readme links like [Foo](Foo) land on the right anchor.
func moduleLinkMap(st *index.State, pkg string) map[string]string {
	links := make(map[string]string)
	for _, lib := range st.LibrariesOf(pkg) {
		for _, m := range st.ModulesOf(lib.Name) {
			links[m.Name] = pkg + "/" + m.Name + "/index.html"
		}
	}
	return links
}
