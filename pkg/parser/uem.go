package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

// uemFields is the column count of a UEM line:
//
//	uri channel start end
const uemFields = 4

// ReadUEM parses UEM input into one timeline per uri, in order of first
// appearance. The channel column is ignored; lines starting with ';;'
// are comments.
func ReadUEM(r io.Reader) ([]*timeline.Timeline, error) {
	var out []*timeline.Timeline
	index := make(map[string]int)

	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";;") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != uemFields {
			return nil, fmt.Errorf("%w: line %d: want %d fields, got %d", ErrSyntax, ln, uemFields, len(fields))
		}
		start, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: start: %v", ErrSyntax, ln, err)
		}
		end, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: end: %v", ErrSyntax, ln, err)
		}
		uri := fields[0]
		i, ok := index[uri]
		if !ok {
			i = len(out)
			index[uri] = i
			out = append(out, timeline.New(uri))
		}
		out[i].Add(segment.New(start, end))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parser: read uem: %w", err)
	}
	return out, nil
}

// WriteUEM writes timelines as UEM lines, each document sorted by
// segment. The channel is always 1.
func WriteUEM(w io.Writer, tls ...*timeline.Timeline) error {
	bw := bufio.NewWriter(w)
	for _, t := range tls {
		if err := checkField("uri", t.URI()); err != nil {
			return err
		}
		for _, s := range t.All() {
			fmt.Fprintf(bw, "%s 1 %g %g\n", t.URI(), s.Start, s.End)
		}
	}
	return bw.Flush()
}
