package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/chronoline/chronoline/pkg/annotation"
	"github.com/chronoline/chronoline/pkg/segment"
)

// Document is the JSON snapshot of one annotation, with tracks listed
// in segment order. A track entry without a track name belongs to the
// anonymous default track.
type Document struct {
	URI      string  `json:"uri"`
	Modality string  `json:"modality,omitempty"`
	Tracks   []Track `json:"tracks"`
}

// Track is one labeled region of a [Document].
type Track struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Track string  `json:"track,omitempty"`
	Label string  `json:"label"`
}

// NewDocument snapshots an annotation.
func NewDocument(a *annotation.Annotation) Document {
	doc := Document{
		URI:      a.URI(),
		Modality: a.Modality(),
		Tracks:   []Track{},
	}
	for e := range a.All() {
		name := e.Track
		if name == annotation.DefaultTrack {
			name = ""
		}
		doc.Tracks = append(doc.Tracks, Track{
			Start: e.Segment.Start,
			End:   e.Segment.End,
			Track: name,
			Label: e.Label,
		})
	}
	return doc
}

// Annotation rebuilds the annotation a document describes. Empty
// regions are dropped.
func (d Document) Annotation() *annotation.Annotation {
	a := annotation.New(d.URI, d.Modality)
	for _, t := range d.Tracks {
		name := t.Track
		if name == "" {
			name = annotation.DefaultTrack
		}
		a.Set(segment.New(t.Start, t.End), name, t.Label)
	}
	return a
}

// WriteJSON writes one annotation as an indented JSON document.
func WriteJSON(w io.Writer, a *annotation.Annotation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(a))
}

// ReadJSON parses one JSON document into an annotation.
func ReadJSON(r io.Reader) (*annotation.Annotation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parser: read json: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return doc.Annotation(), nil
}

// ReadJSONLenient is [ReadJSON] for hand-edited input: on a syntax
// error it repairs the document (trailing commas, single quotes,
// unquoted keys) and decodes again.
func ReadJSONLenient(r io.Reader) (*annotation.Annotation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parser: read json: %w", err)
	}
	var doc Document
	err = json.Unmarshal(data, &doc)
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		err = json.Unmarshal([]byte(fixed), &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return doc.Annotation(), nil
}

// Schema returns the JSON Schema of [Document].
func Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[Document](nil)
}
