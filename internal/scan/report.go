package scan

import (
	"fmt"
	"strings"
)

// Failure records one recoverable problem encountered while scanning:
// a bad manifest, an unparseable META, a failed objinfo run. Subject names
// the offending file or archive.
type Failure struct {
	Package string
	Subject string
	Err     error
}

func (f Failure) String() string {
	switch {
	case f.Package == "":
		return fmt.Sprintf("%s: %v", f.Subject, f.Err)
	case f.Subject == "":
		return fmt.Sprintf("%s: %v", f.Package, f.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", f.Package, f.Subject, f.Err)
	}
}

// Report is an ordered collector of recoverable failures. Each stage appends
// to it and the caller prints it once after the command finishes; there is
// no process-wide accumulator.
type Report struct {
	failures []Failure
}

func (r *Report) Add(pkg, subject string, err error) {
	r.failures = append(r.failures, Failure{Package: pkg, Subject: subject, Err: err})
}

// Merge appends another report's failures, preserving both orders.
func (r *Report) Merge(other *Report) {
	if other != nil {
		r.failures = append(r.failures, other.failures...)
	}
}

func (r *Report) Empty() bool {
	return len(r.failures) == 0
}

func (r *Report) Failures() []Failure {
	return r.failures
}

// Summary formats the report for end-of-run output.
func (r *Report) Summary() string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d problem(s) during scan:\n", len(r.failures))
	for _, f := range r.failures {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}
