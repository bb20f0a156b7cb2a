// Package timeline provides an ordered, duplicate-free collection of
// segments over a single document, with the interval bookkeeping the rest
// of the module is built on: extent, minimal coverage, gap complement,
// restriction to a region, and partitioning into atomic pieces.
//
// Segments are kept sorted by (start, end) at all times. Empty segments and
// exact duplicates are silently dropped on insertion, so every stored
// segment is non-empty and unique.
package timeline

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/chronoline/chronoline/pkg/segment"
)

// ErrNotFound is returned when a segment is absent from a timeline that was
// expected to contain it.
var ErrNotFound = errors.New("timeline: segment not found")

// ErrDocumentMismatch is returned when combining timelines that describe
// different documents.
var ErrDocumentMismatch = errors.New("timeline: conflicting document URIs")

// Timeline is a sorted set of unique, non-empty segments annotating one
// document. The zero value is not usable; construct with [New] or
// [FromSegments].
//
// A Timeline is not safe for concurrent mutation; callers serialize access
// when sharing one across goroutines.
type Timeline struct {
	uri  string
	segs []segment.Segment
}

// New returns an empty timeline for the given document URI.
func New(uri string) *Timeline {
	return &Timeline{uri: uri}
}

// FromSegments returns a timeline holding the given segments. Empty
// segments and duplicates are dropped, matching [Timeline.Add].
func FromSegments(uri string, segs ...segment.Segment) *Timeline {
	t := New(uri)
	for _, s := range segs {
		t.Add(s)
	}
	return t
}

// URI returns the document identifier this timeline annotates.
func (t *Timeline) URI() string { return t.uri }

// Len returns the number of segments.
func (t *Timeline) Len() int { return len(t.segs) }

// At returns the i-th segment in sorted order.
func (t *Timeline) At(i int) segment.Segment { return t.segs[i] }

// All iterates (index, segment) pairs in sorted order.
func (t *Timeline) All() iter.Seq2[int, segment.Segment] {
	return func(yield func(int, segment.Segment) bool) {
		for i, s := range t.segs {
			if !yield(i, s) {
				return
			}
		}
	}
}

// Add inserts a segment, keeping sort order. Empty segments and segments
// already present are ignored.
func (t *Timeline) Add(s segment.Segment) {
	if s.IsEmpty() {
		return
	}
	i, found := slices.BinarySearchFunc(t.segs, s, segment.Segment.Compare)
	if found {
		return
	}
	t.segs = slices.Insert(t.segs, i, s)
}

// Remove deletes a segment. It returns [ErrNotFound] when the segment is
// not part of the timeline.
func (t *Timeline) Remove(s segment.Segment) error {
	i, err := t.Index(s)
	if err != nil {
		return err
	}
	t.segs = slices.Delete(t.segs, i, i+1)
	return nil
}

// Clear removes all segments.
func (t *Timeline) Clear() { t.segs = t.segs[:0] }

// Copy returns an independent copy of the timeline.
func (t *Timeline) Copy() *Timeline {
	return &Timeline{uri: t.uri, segs: slices.Clone(t.segs)}
}

// Index returns the position of s in sorted order, or [ErrNotFound].
func (t *Timeline) Index(s segment.Segment) (int, error) {
	i, found := slices.BinarySearchFunc(t.segs, s, segment.Segment.Compare)
	if !found {
		return 0, fmt.Errorf("%w: %v", ErrNotFound, s)
	}
	return i, nil
}

// Contains reports whether s is one of the timeline's segments.
func (t *Timeline) Contains(s segment.Segment) bool {
	_, found := slices.BinarySearchFunc(t.segs, s, segment.Segment.Compare)
	return found
}

// Union returns a new timeline combining the segments of both operands.
// The receiver's URI is kept; combining timelines of different documents
// returns [ErrDocumentMismatch].
func (t *Timeline) Union(o *Timeline) (*Timeline, error) {
	if t.uri != o.uri {
		return nil, fmt.Errorf("%w: %q vs %q", ErrDocumentMismatch, t.uri, o.uri)
	}
	out := t.Copy()
	for _, s := range o.segs {
		out.Add(s)
	}
	return out, nil
}

// Extent returns the minimal single segment containing every segment of
// the timeline, or an empty segment when the timeline is empty.
func (t *Timeline) Extent() segment.Segment {
	if len(t.segs) == 0 {
		return segment.Segment{}
	}
	end := t.segs[0].End
	for _, s := range t.segs[1:] {
		if s.End > end {
			end = s.End
		}
	}
	return segment.Segment{Start: t.segs[0].Start, End: end}
}

// Coverage returns the minimal set of disjoint segments covering exactly
// the same time span. Consecutive segments merge whenever the gap between
// them is empty, so touching segments merge and only a strictly positive
// gap keeps them apart.
func (t *Timeline) Coverage() *Timeline {
	out := New(t.uri)
	if len(t.segs) == 0 {
		return out
	}
	cur := t.segs[0]
	for _, s := range t.segs[1:] {
		if s.Gap(cur).IsEmpty() {
			cur = cur.Union(s)
		} else {
			out.Add(cur)
			cur = s
		}
	}
	out.Add(cur)
	return out
}

// Duration returns the total duration covered by the timeline, counting
// overlapping stretches once.
func (t *Timeline) Duration() float64 {
	cov := t.Coverage()
	durations := make([]float64, len(cov.segs))
	for i, s := range cov.segs {
		durations[i] = s.Duration()
	}
	return floats.Sum(durations)
}

// Crop returns the sub-timeline restricted to focus. CropStrict keeps only
// segments fully contained in focus, CropLoose keeps any intersecting
// segment untrimmed, and CropIntersection keeps intersecting segments
// trimmed to focus. An unknown mode returns [segment.ErrInvalidMode].
func (t *Timeline) Crop(focus segment.Segment, mode segment.CropMode) (*Timeline, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", segment.ErrInvalidMode, mode)
	}
	out := New(t.uri)
	if focus.IsEmpty() {
		return out, nil
	}
	for _, s := range t.segs {
		if s.Start >= focus.End {
			break
		}
		if !s.Intersects(focus) {
			continue
		}
		switch mode {
		case segment.CropStrict:
			if focus.Contains(s) {
				out.Add(s)
			}
		case segment.CropLoose:
			out.Add(s)
		case segment.CropIntersection:
			out.Add(s.Intersect(focus))
		}
	}
	return out, nil
}

// CropTimeline restricts the timeline to the coverage of focus, segment by
// segment, with the same modes as [Timeline.Crop].
func (t *Timeline) CropTimeline(focus *Timeline, mode segment.CropMode) (*Timeline, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", segment.ErrInvalidMode, mode)
	}
	out := New(t.uri)
	for _, f := range focus.Coverage().segs {
		sub, err := t.Crop(f, mode)
		if err != nil {
			return nil, err
		}
		for _, s := range sub.segs {
			out.Add(s)
		}
	}
	return out, nil
}

// GapsWithin returns the maximal segments inside focus not covered by the
// timeline.
func (t *Timeline) GapsWithin(focus segment.Segment) *Timeline {
	out := New(t.uri)
	if focus.IsEmpty() {
		return out
	}
	inside, _ := t.Crop(focus, segment.CropIntersection)
	end := focus.Start
	for _, s := range inside.Coverage().segs {
		out.Add(segment.Segment{Start: end, End: s.Start})
		end = s.End
	}
	out.Add(segment.Segment{Start: end, End: focus.End})
	return out
}

// Gaps returns the uncovered segments within the timeline's own extent.
func (t *Timeline) Gaps() *Timeline {
	return t.GapsWithin(t.Extent())
}

// GapsWithinTimeline returns the uncovered segments within the coverage of
// focus.
func (t *Timeline) GapsWithinTimeline(focus *Timeline) *Timeline {
	out := New(t.uri)
	for _, f := range focus.Coverage().segs {
		for _, g := range t.GapsWithin(f).segs {
			out.Add(g)
		}
	}
	return out
}

// Covers reports whether some single segment of the timeline fully
// contains s. Use Coverage().Covers(s) to test against merged coverage
// instead.
func (t *Timeline) Covers(s segment.Segment) bool {
	for _, seg := range t.segs {
		if seg.Start > s.Start {
			break
		}
		if seg.Contains(s) {
			return true
		}
	}
	return false
}

// IsPartition reports whether no two segments overlap. Touching segments
// are allowed.
func (t *Timeline) IsPartition() bool {
	if len(t.segs) == 0 {
		return true
	}
	end := t.segs[0].End
	for _, s := range t.segs[1:] {
		// a non-empty span between the previous end and the next start
		// means the two segments overlap
		if !(segment.Segment{Start: s.Start, End: end}).IsEmpty() {
			return false
		}
		end = s.End
	}
	return true
}

// Partition returns the timeline of maximal atomic intervals induced by
// all segment boundaries. Every returned piece lies fully inside at least
// one original segment, so the partition covers exactly the original
// support. A timeline that already is a partition is returned as a copy.
//
// Given segments arranged like this:
//
//	|------|    |------|     |----|
//	  |--|    |-----|     |----------|
//
// the partition pieces are arranged like this:
//
//	|-|--|-|  |-|---|--|  |--|----|--|
func (t *Timeline) Partition() *Timeline {
	if t.IsPartition() {
		return t.Copy()
	}

	boundaries := make([]float64, 0, 2*len(t.segs))
	for _, s := range t.segs {
		boundaries = append(boundaries, s.Start, s.End)
	}
	slices.Sort(boundaries)
	boundaries = slices.Compact(boundaries)

	out := New(t.uri)
	for i := 1; i < len(boundaries); i++ {
		piece := segment.Segment{Start: boundaries[i-1], End: boundaries[i]}
		if t.Covers(piece) {
			out.Add(piece)
		}
	}
	return out
}

// Equal reports whether both timelines hold exactly the same segments.
func (t *Timeline) Equal(o *Timeline) bool {
	return slices.Equal(t.segs, o.segs)
}

// String formats the timeline as one bracketed segment per line.
func (t *Timeline) String() string {
	var b strings.Builder
	b.WriteString("[\n")
	for _, s := range t.segs {
		b.WriteString("   ")
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}
