// Package meta parses findlib META files, the descriptor format that
// declares the libraries an installed package provides.
//
// The syntax is a flat list of assignments, optionally qualified by
// predicates, plus nested sub-library blocks:
//
//	version = "1.2.0"
//	requires = "bytes uutf"
//	archive(byte) = "foo.cma"
//	archive(native) = "foo.cmxa"
//	package "top" (
//	  directory = "top"
//	  archive(byte) = "foo_top.cma"
//	)
//
// Predicate handling is deliberately simple: for scalar fields the first
// unpredicated assignment wins and predicated ones are only used when no
// unpredicated value exists; for list fields (archive, requires) one value
// set is kept per distinct predicate signature, with "+=" appending. This is
// a documented policy choice, not full findlib predicate evaluation.
package meta

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

// Library is one library declared by a package's META file. Sub-libraries
// carry dotted names (pkg.sub). Dir is relative to the owning package's lib
// directory; empty means the lib directory itself.
type Library struct {
	Name        string   `json:"name"`
	Package     string   `json:"package"`
	Dir         string   `json:"dir,omitempty"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Archives    []string `json:"archives,omitempty"`
	Requires    []string `json:"requires,omitempty"`
}

// ParseFile parses the META file at path for the named package.
func ParseFile(path, pkg string) ([]Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening META: %w", err)
	}
	defer f.Close()
	libs, err := Parse(f, pkg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return libs, nil
}

// Parse parses a META descriptor into the libraries it declares, scoped to
// the owning package pkg. The top-level entries form a library named pkg;
// each nested block adds one more.
func Parse(r io.Reader, pkg string) ([]Library, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading META: %w", err)
	}

	p := &parser{lex: newLexer(string(src))}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var libs []Library
	if err := p.parseEntries(pkg, pkg, "", &libs); err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("line %d: unexpected %s", p.tok.line, p.tok.kind)
	}
	return libs, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, fmt.Errorf("line %d: expected %s, found %s", p.tok.line, kind, p.tok.kind)
	}
	tok := p.tok
	return tok, p.advance()
}

// parseEntries consumes assignments and nested package blocks until the
// closing paren of the current block (or EOF at top level), appending one
// finished Library per scope to out, parents before children.
func (p *parser) parseEntries(name, pkg, dir string, out *[]Library) error {
	b := newBuilder(name, pkg, dir)
	var subs []Library

	for p.tok.kind == tokIdent {
		ident, err := p.expect(tokIdent)
		if err != nil {
			return err
		}

		if ident.text == "package" && p.tok.kind == tokString {
			sub, err := p.expect(tokString)
			if err != nil {
				return err
			}
			if _, err := p.expect(tokLParen); err != nil {
				return err
			}
			subName := name + "." + sub.text
			// A sub-library lives in its parent's directory unless it
			// declares its own.
			if err := p.parseEntries(subName, pkg, b.resolvedDir(), &subs); err != nil {
				return err
			}
			if _, err := p.expect(tokRParen); err != nil {
				return err
			}
			continue
		}

		preds, err := p.parsePredicates()
		if err != nil {
			return err
		}

		add := false
		switch p.tok.kind {
		case tokEq:
		case tokPlusEq:
			add = true
		default:
			return fmt.Errorf("line %d: expected '=' or '+=', found %s", p.tok.line, p.tok.kind)
		}
		if err := p.advance(); err != nil {
			return err
		}

		value, err := p.expect(tokString)
		if err != nil {
			return err
		}

		b.assign(ident.text, preds, value.text, add)
	}

	*out = append(*out, b.finish())
	*out = append(*out, subs...)
	return nil
}

// parsePredicates parses an optional "(p1, -p2, ...)" qualifier.
func (p *parser) parsePredicates() ([]string, error) {
	if p.tok.kind != tokLParen {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var preds []string
	for {
		neg := ""
		if p.tok.kind == tokMinus {
			neg = "-"
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		ident, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		preds = append(preds, neg+ident.text)

		if p.tok.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return preds, nil
}

// builder accumulates the assignments of one library scope.
type builder struct {
	name      string
	pkg       string
	parentDir string

	version     scalar
	description scalar
	directory   scalar

	archives listField
	requires listField
}

func newBuilder(name, pkg, parentDir string) *builder {
	return &builder{name: name, pkg: pkg, parentDir: parentDir}
}

func (b *builder) assign(field string, preds []string, value string, add bool) {
	unpred := len(preds) == 0
	switch field {
	case "version":
		b.version.assign(value, unpred)
	case "description":
		b.description.assign(value, unpred)
	case "directory":
		b.directory.assign(value, unpred)
	case "archive":
		b.archives.assign(signature(preds), splitNames(value), add)
	case "requires":
		b.requires.assign(signature(preds), splitNames(value), add)
	}
	// Other fields (exists_if, plugin, warning, ...) are accepted and
	// ignored: they do not contribute to the index.
}

func (b *builder) resolvedDir() string {
	decl := b.directory.value
	switch {
	case decl == "":
		return b.parentDir
	case path.IsAbs(decl):
		return decl
	default:
		return path.Join(b.parentDir, decl)
	}
}

func (b *builder) finish() Library {
	return Library{
		Name:        b.name,
		Package:     b.pkg,
		Dir:         b.resolvedDir(),
		Version:     b.version.value,
		Description: b.description.value,
		Archives:    b.archives.flatten(),
		Requires:    b.requires.flatten(),
	}
}

// scalar keeps one value per field: the first unpredicated assignment wins,
// otherwise the first assignment of any kind.
type scalar struct {
	set    bool
	unpred bool
	value  string
}

func (s *scalar) assign(value string, unpredicated bool) {
	if unpredicated && !s.unpred {
		s.value, s.set, s.unpred = value, true, true
		return
	}
	if !s.set {
		s.value, s.set = value, true
	}
}

// listField keeps one value set per distinct predicate signature, in
// first-seen order. "=" on an already-set signature is ignored (first wins);
// "+=" appends.
type listField struct {
	order  []string
	groups map[string][]string
}

func (f *listField) assign(sig string, values []string, add bool) {
	if f.groups == nil {
		f.groups = make(map[string][]string)
	}
	if _, ok := f.groups[sig]; !ok {
		f.order = append(f.order, sig)
		f.groups[sig] = values
		return
	}
	if add {
		f.groups[sig] = append(f.groups[sig], values...)
	}
}

func (f *listField) flatten() []string {
	var flat []string
	seen := make(map[string]bool)
	for _, sig := range f.order {
		for _, v := range f.groups[sig] {
			if !seen[v] {
				seen[v] = true
				flat = append(flat, v)
			}
		}
	}
	return flat
}

func signature(preds []string) string {
	if len(preds) == 0 {
		return ""
	}
	sorted := append([]string(nil), preds...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// splitNames splits a META value on whitespace and commas; both separators
// occur in the wild for requires and archive lists.
func splitNames(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ','
	})
}
