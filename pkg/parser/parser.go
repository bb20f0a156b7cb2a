// Package parser reads and writes the interchange formats used to
// exchange annotations and timelines with other tools:
//
//   - MDTM: one labeled time region per line, grouped into one
//     annotation per (uri, modality)
//   - UEM: one un-labeled time region per line, grouped into one
//     timeline per uri
//   - JSON: an ordered snapshot of a single annotation, with an
//     optional lenient mode that repairs malformed input
//
// Readers take an io.Reader and never touch the filesystem; writers
// emit lines sorted by segment the way the in-memory types iterate.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrSyntax is returned, wrapped with a line number, when an input line
// or document cannot be parsed.
var ErrSyntax = errors.New("parser: syntax error")

// checkField rejects values that would break a whitespace-separated
// line format.
func checkField(name, v string) error {
	if v == "" {
		return fmt.Errorf("parser: empty %s", name)
	}
	if strings.ContainsFunc(v, unicode.IsSpace) {
		return fmt.Errorf("parser: %s %q contains whitespace", name, v)
	}
	return nil
}
