// Package segment provides the temporal interval primitives shared by the
// whole module: half-open time intervals with set-like algebra, the crop
// modes used to restrict timelines and annotations, and sliding windows for
// frame/time conversion.
//
// A Segment is a plain value: operators return new values and never mutate
// their operands. An interval is considered empty when its duration does not
// exceed [Precision], which absorbs float rounding from repeated
// intersection and union.
package segment

import (
	"errors"
	"fmt"
)

// Precision is the tolerance below which a segment counts as empty.
// Durations within Precision of zero collapse to zero.
const Precision = 1e-6

// ErrInvalidMode is returned when a crop mode is not one of
// [CropStrict], [CropLoose] or [CropIntersection].
var ErrInvalidMode = errors.New("segment: invalid crop mode")

// CropMode selects how a restriction treats segments that straddle the
// boundary of the cropping region.
type CropMode string

const (
	// CropStrict keeps only segments fully contained in the region.
	CropStrict CropMode = "strict"
	// CropLoose keeps any segment intersecting the region, untrimmed.
	CropLoose CropMode = "loose"
	// CropIntersection keeps intersecting segments trimmed to the region.
	CropIntersection CropMode = "intersection"
)

// Valid reports whether m is a known crop mode.
func (m CropMode) Valid() bool {
	switch m {
	case CropStrict, CropLoose, CropIntersection:
		return true
	}
	return false
}

// Segment is a half-open time interval [Start, End), in seconds. The zero
// value is an empty segment at t=0. An inverted pair (Start > End) is a
// valid empty segment, not an error; emptiness rather than validity is what
// every operation tests.
//
// Segments are ordered lexicographically by start time, then end time, and
// compare equal iff both bounds are equal. They are comparable and can be
// used as map keys.
type Segment struct {
	Start float64
	End   float64
}

// New returns the segment [start, end).
func New(start, end float64) Segment {
	return Segment{Start: start, End: end}
}

// IsEmpty reports whether the segment has no usable extent, i.e. its raw
// length is within [Precision] of zero or negative.
func (s Segment) IsEmpty() bool {
	return s.End-s.Start <= Precision
}

// Duration returns the segment length in seconds, 0 for empty segments.
func (s Segment) Duration() float64 {
	if s.IsEmpty() {
		return 0
	}
	return s.End - s.Start
}

// Middle returns the midpoint (Start+End)/2. It is computed even for empty
// segments, where it has no particular meaning but must not fail.
func (s Segment) Middle() float64 {
	return 0.5 * (s.Start + s.End)
}

// Compare orders segments by start time, then end time. It returns a
// negative number when s sorts before o, zero when equal, positive
// otherwise.
func (s Segment) Compare(o Segment) int {
	switch {
	case s.Start < o.Start:
		return -1
	case s.Start > o.Start:
		return 1
	case s.End < o.End:
		return -1
	case s.End > o.End:
		return 1
	}
	return 0
}

// Less reports whether s sorts strictly before o.
func (s Segment) Less(o Segment) bool {
	return s.Compare(o) < 0
}

// Contains reports whether o lies fully within s, bounds included. The
// check is purely on bounds, so an empty o positioned inside s is
// contained.
func (s Segment) Contains(o Segment) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Overlaps reports whether timestamp t falls within the segment, bounds
// included.
func (s Segment) Overlaps(t float64) bool {
	return s.Start <= t && t <= s.End
}

// Intersect returns the intersection of s and o. The result is empty when
// the segments do not overlap (including when they merely touch within
// [Precision], or when either operand is empty); it is never an error.
func (s Segment) Intersect(o Segment) Segment {
	return Segment{Start: max(s.Start, o.Start), End: min(s.End, o.End)}
}

// Intersects reports whether s and o share a non-empty intersection.
func (s Segment) Intersects(o Segment) bool {
	return !s.Intersect(o).IsEmpty()
}

// Union returns the shortest segment containing both s and o, spanning any
// gap between them. An empty operand contributes nothing: the union of an
// empty segment with o is o itself.
func (s Segment) Union(o Segment) Segment {
	if s.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return s
	}
	return Segment{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Gap returns the segment strictly between s and o. It is empty when the
// segments overlap or touch. The gap to an empty segment is undefined and
// returns the zero segment.
func (s Segment) Gap(o Segment) Segment {
	if s.IsEmpty() || o.IsEmpty() {
		return Segment{}
	}
	return Segment{Start: min(s.End, o.End), End: max(s.Start, o.Start)}
}

// Shift returns the segment translated by delta seconds.
func (s Segment) Shift(delta float64) Segment {
	return Segment{Start: s.Start + delta, End: s.End + delta}
}

// ShiftStart returns the segment with its start moved by delta seconds,
// growing the segment for negative delta and shrinking it for positive.
func (s Segment) ShiftStart(delta float64) Segment {
	return Segment{Start: s.Start + delta, End: s.End}
}

// ShiftEnd returns the segment with its end moved by delta seconds.
func (s Segment) ShiftEnd(delta float64) Segment {
	return Segment{Start: s.Start, End: s.End + delta}
}

// String formats the segment as "[start --> end]" with millisecond
// precision, or "[]" when empty.
func (s Segment) String() string {
	if s.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%.3f --> %.3f]", s.Start, s.End)
}
