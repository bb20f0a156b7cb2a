package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chronoline/chronoline/pkg/annotation"
	"github.com/chronoline/chronoline/pkg/segment"
)

// mdtmFields is the column count of an MDTM line:
//
//	uri channel start duration modality confidence subtype identifier
const mdtmFields = 8

// ReadMDTM parses MDTM input into one annotation per (uri, modality)
// pair, in order of first appearance. The channel, confidence and
// subtype columns are ignored; lines starting with '#' are comments.
// A region listed twice for the same document replaces the earlier
// label.
func ReadMDTM(r io.Reader) ([]*annotation.Annotation, error) {
	type key struct{ uri, modality string }
	var out []*annotation.Annotation
	index := make(map[key]int)

	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != mdtmFields {
			return nil, fmt.Errorf("%w: line %d: want %d fields, got %d", ErrSyntax, ln, mdtmFields, len(fields))
		}
		start, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: start: %v", ErrSyntax, ln, err)
		}
		duration, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: duration: %v", ErrSyntax, ln, err)
		}
		k := key{uri: fields[0], modality: fields[4]}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, annotation.New(k.uri, k.modality))
		}
		out[i].SetLabel(segment.New(start, start+duration), fields[7])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parser: read mdtm: %w", err)
	}
	return out, nil
}

// WriteMDTM writes annotations as MDTM lines, each document sorted by
// segment. The channel is always 1 and the confidence column is NA; the
// track name fills the subtype column.
func WriteMDTM(w io.Writer, anns ...*annotation.Annotation) error {
	bw := bufio.NewWriter(w)
	for _, a := range anns {
		if err := checkField("uri", a.URI()); err != nil {
			return err
		}
		if err := checkField("modality", a.Modality()); err != nil {
			return err
		}
		for e := range a.All() {
			if err := checkField("label", e.Label); err != nil {
				return err
			}
			if err := checkField("track", e.Track); err != nil {
				return err
			}
			fmt.Fprintf(bw, "%s 1 %g %g %s NA %s %s\n",
				a.URI(), e.Segment.Start, e.Segment.Duration(), a.Modality(), e.Track, e.Label)
		}
	}
	return bw.Flush()
}
