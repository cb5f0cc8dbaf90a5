package opamfs

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// ParseChanges reads a package's .changes manifest and returns the
// switch-root-relative paths recorded in its `added:` field, sorted.
//
// The manifest is in opam-file syntax: fields are `ident:` followed by a
// quoted string or a bracketed list of quoted strings, each path optionally
// annotated with a `{"checksum"}` block. Only the paths are kept.
//
// Parsing is best-effort: a syntax problem returns whatever paths were
// recovered before it, together with the error, so one truncated manifest
// degrades a single package instead of the whole scan.
func ParseChanges(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading changes manifest: %w", err)
	}
	paths, err := parseChanges(string(data))
	if err != nil {
		return paths, fmt.Errorf("parsing %s: %w", path, err)
	}
	return paths, nil
}

func parseChanges(src string) ([]string, error) {
	var (
		paths    []string
		field    string
		inList   bool
		inBraces bool
	)

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case unicode.IsSpace(rune(c)):
			i++
		case c == '{':
			inBraces = true
			i++
		case c == '}':
			inBraces = false
			i++
		case c == '[':
			inList = true
			i++
		case c == ']':
			inList = false
			field = ""
			i++
		case c == '"':
			value, next, err := scanString(src, i)
			if err != nil {
				return sorted(paths), err
			}
			i = next
			if field == "added" && !inBraces {
				paths = append(paths, value)
				// A bare `added: "path"` holds a single value.
				if !inList {
					field = ""
				}
			}
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			if i < len(src) && src[i] == ':' {
				field = src[start:i]
				inList = false
				i++
			}
		default:
			return sorted(paths), fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}

	return sorted(paths), nil
}

func scanString(src string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			if i+1 >= len(src) {
				return "", i, fmt.Errorf("dangling escape at offset %d", i)
			}
			b.WriteByte(src[i+1])
			i += 2
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(src[i])
			i++
		}
	}
	return "", i, fmt.Errorf("unterminated string at offset %d", start)
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '-'
}

func sorted(paths []string) []string {
	sort.Strings(paths)
	return paths
}
