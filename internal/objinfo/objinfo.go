// Package objinfo shells out to ocamlobjinfo to recover the module names
// physically embedded in a compiled archive.
package objinfo

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ModuleNames runs the inspection tool against one archive and returns the
// embedded compilation unit names, in the tool's reported order. A non-zero
// exit or output with no recognizable unit names is an error; callers treat
// it as recoverable for that one archive.
func ModuleNames(ctx context.Context, tool, archive string) ([]string, error) {
	cmd := exec.CommandContext(ctx, tool, archive)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", tool, archive, err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", tool, archive, err)
	}

	names := parseOutput(out)
	if len(names) == 0 {
		return nil, fmt.Errorf("%s %s: no unit names in output", tool, archive)
	}
	return names, nil
}

// parseOutput extracts unit names from ocamlobjinfo output. Bytecode
// archives report "Unit name: X", native ones "Name: X". Other lines
// (interface digests, imports, flags) are ignored.
func parseOutput(out []byte) []string {
	var names []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		var name string
		if rest, ok := strings.CutPrefix(line, "Unit name:"); ok {
			name = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(line, "Name:"); ok {
			name = strings.TrimSpace(rest)
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
