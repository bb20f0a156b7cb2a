// Package annotation provides labeled, possibly multi-track temporal
// annotations of a single document and modality: speech turns carrying
// speaker names, face tracks carrying identities, and the operations the
// scoring pipeline needs on them (restriction, projection, label
// translation, co-occurrence).
//
// Each annotated segment holds one or more named tracks, each track bearing
// exactly one label. Single-track use goes through [Annotation.SetLabel],
// which stores the label on the anonymous track [DefaultTrack] and keeps
// one label per segment. Multi-track use names its tracks explicitly with
// [Annotation.Set].
package annotation

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

// DefaultTrack is the anonymous track name used by single-track
// annotations.
const DefaultTrack = "@"

// ErrNotFound is returned when a segment or track is absent from an
// annotation that was expected to contain it.
var ErrNotFound = errors.New("annotation: not found")

// Entry is one (segment, track, label) triple of an annotation.
type Entry struct {
	Segment segment.Segment
	Track   string
	Label   string
}

// Annotation maps annotated segments to their named tracks and labels over
// one document and modality. A segment is present iff it has at least one
// track: removing the last track of a segment removes the segment itself.
//
// An Annotation is not safe for concurrent mutation; callers serialize
// access when sharing one across goroutines.
type Annotation struct {
	uri      string
	modality string
	tracks   map[segment.Segment]map[string]string
	tl       *timeline.Timeline
}

// New returns an empty annotation for the given document URI and modality.
func New(uri, modality string) *Annotation {
	return &Annotation{
		uri:      uri,
		modality: modality,
		tracks:   make(map[segment.Segment]map[string]string),
		tl:       timeline.New(uri),
	}
}

// URI returns the annotated document identifier.
func (a *Annotation) URI() string { return a.uri }

// Modality returns the annotated modality.
func (a *Annotation) Modality() string { return a.modality }

// Len returns the number of annotated segments.
func (a *Annotation) Len() int { return len(a.tracks) }

// Timeline returns a copy of the sorted timeline of annotated segments.
func (a *Annotation) Timeline() *timeline.Timeline { return a.tl.Copy() }

// Set stores label on the named track of a segment, creating the segment
// entry as needed. Empty segments are ignored.
func (a *Annotation) Set(s segment.Segment, track, label string) {
	if s.IsEmpty() {
		return
	}
	tr, ok := a.tracks[s]
	if !ok {
		tr = make(map[string]string)
		a.tracks[s] = tr
		a.tl.Add(s)
	}
	tr[track] = label
}

// SetLabel stores label on [DefaultTrack], replacing every other track of
// the segment. An annotation built solely through SetLabel therefore
// carries exactly one label per segment.
func (a *Annotation) SetLabel(s segment.Segment, label string) {
	a.SetTracks(s, map[string]string{DefaultTrack: label})
}

// SetTracks replaces all tracks of a segment at once. An empty or nil
// tracks map removes the segment entry entirely.
func (a *Annotation) SetTracks(s segment.Segment, tracks map[string]string) {
	if s.IsEmpty() {
		return
	}
	if len(tracks) == 0 {
		if _, ok := a.tracks[s]; ok {
			delete(a.tracks, s)
			a.tl.Remove(s)
		}
		return
	}
	if _, ok := a.tracks[s]; !ok {
		a.tl.Add(s)
	}
	a.tracks[s] = maps.Clone(tracks)
}

// Get returns the label carried by the named track of a segment.
func (a *Annotation) Get(s segment.Segment, track string) (string, bool) {
	label, ok := a.tracks[s][track]
	return label, ok
}

// GetLabel returns the label carried by [DefaultTrack] of a segment.
func (a *Annotation) GetLabel(s segment.Segment) (string, bool) {
	return a.Get(s, DefaultTrack)
}

// Tracks returns a copy of the track-to-label mapping of a segment. The
// map is empty when the segment is not annotated; this is never an error.
func (a *Annotation) Tracks(s segment.Segment) map[string]string {
	tr, ok := a.tracks[s]
	if !ok {
		return map[string]string{}
	}
	return maps.Clone(tr)
}

// TrackNames returns the sorted track names of a segment.
func (a *Annotation) TrackNames(s segment.Segment) []string {
	return slices.Sorted(maps.Keys(a.tracks[s]))
}

// Contains reports whether the segment is annotated.
func (a *Annotation) Contains(s segment.Segment) bool {
	_, ok := a.tracks[s]
	return ok
}

// Delete removes one track from a segment and returns [ErrNotFound] when
// the segment or track is absent. Removing the last track removes the
// segment entry.
func (a *Annotation) Delete(s segment.Segment, track string) error {
	tr, ok := a.tracks[s]
	if !ok {
		return fmt.Errorf("%w: segment %v", ErrNotFound, s)
	}
	if _, ok := tr[track]; !ok {
		return fmt.Errorf("%w: track %q on %v", ErrNotFound, track, s)
	}
	delete(tr, track)
	if len(tr) == 0 {
		delete(a.tracks, s)
		a.tl.Remove(s)
	}
	return nil
}

// DeleteSegment removes a segment with all its tracks and returns
// [ErrNotFound] when the segment is absent.
func (a *Annotation) DeleteSegment(s segment.Segment) error {
	if _, ok := a.tracks[s]; !ok {
		return fmt.Errorf("%w: segment %v", ErrNotFound, s)
	}
	delete(a.tracks, s)
	a.tl.Remove(s)
	return nil
}

// Clear removes every entry.
func (a *Annotation) Clear() {
	clear(a.tracks)
	a.tl.Clear()
}

// Copy returns an independent copy of the annotation.
func (a *Annotation) Copy() *Annotation {
	out := New(a.uri, a.modality)
	for s, tr := range a.tracks {
		out.tracks[s] = maps.Clone(tr)
		out.tl.Add(s)
	}
	return out
}

// All iterates every (segment, track, label) entry, segments in sorted
// order and tracks sorted by name within each segment.
func (a *Annotation) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, s := range a.tl.All() {
			for _, name := range a.TrackNames(s) {
				e := Entry{Segment: s, Track: name, Label: a.tracks[s][name]}
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Labels returns the sorted distinct labels carried by at least one track.
func (a *Annotation) Labels() []string {
	seen := make(map[string]struct{})
	for _, tr := range a.tracks {
		for _, label := range tr {
			seen[label] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// LabelsAt returns the sorted distinct labels on a segment, empty when the
// segment is not annotated.
func (a *Annotation) LabelsAt(s segment.Segment) []string {
	seen := make(map[string]struct{})
	for _, label := range a.tracks[s] {
		seen[label] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// LabelTimeline returns the timeline of segments carrying the given label
// on at least one track.
func (a *Annotation) LabelTimeline(label string) *timeline.Timeline {
	tl := timeline.New(a.uri)
	for s, tr := range a.tracks {
		for _, l := range tr {
			if l == label {
				tl.Add(s)
				break
			}
		}
	}
	return tl
}

// LabelDuration returns the total coverage duration of the given label.
func (a *Annotation) LabelDuration(label string) float64 {
	return a.LabelTimeline(label).Duration()
}

// Subset returns the sub-annotation keeping only tracks bearing one of the
// given labels. Segments left without any matching track are dropped.
func (a *Annotation) Subset(labels ...string) *Annotation {
	keep := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		keep[l] = struct{}{}
	}
	out := New(a.uri, a.modality)
	for s, tr := range a.tracks {
		for name, label := range tr {
			if _, ok := keep[label]; ok {
				out.Set(s, name, label)
			}
		}
	}
	return out
}

// AutoTrackName generates a track name of the form "prefix_N" that is not
// yet used on the given segment, with N counting up from 0.
func (a *Annotation) AutoTrackName(s segment.Segment, prefix string) string {
	tr := a.tracks[s]
	for n := 0; ; n++ {
		name := fmt.Sprintf("%s_%d", prefix, n)
		if _, taken := tr[name]; !taken {
			return name
		}
	}
}

// setRenaming stores label on the named track of s, picking a fresh name
// derived from track when that name is already taken.
func (a *Annotation) setRenaming(s segment.Segment, track, label string) {
	if _, taken := a.tracks[s][track]; taken {
		track = a.AutoTrackName(s, track)
	}
	a.Set(s, track, label)
}

// Crop restricts the annotation to focus, with the same modes as
// [timeline.Timeline.Crop] applied to the annotated segments. Strict and
// loose keep segments whole along with their tracks; intersection trims
// segments to focus, never altering track contents. When two segments trim
// down to the same piece their tracks are merged, renaming on collision.
// An unknown mode returns [segment.ErrInvalidMode].
func (a *Annotation) Crop(focus segment.Segment, mode segment.CropMode) (*Annotation, error) {
	return a.CropTimeline(timeline.FromSegments(a.uri, focus), mode)
}

// CropTimeline restricts the annotation to the coverage of focus, with the
// same modes as [Annotation.Crop].
func (a *Annotation) CropTimeline(focus *timeline.Timeline, mode segment.CropMode) (*Annotation, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", segment.ErrInvalidMode, mode)
	}
	out := New(a.uri, a.modality)
	for _, f := range focus.Coverage().All() {
		sub, _ := a.tl.Crop(f, segment.CropLoose)
		for _, s := range sub.All() {
			switch mode {
			case segment.CropStrict:
				if f.Contains(s) {
					out.SetTracks(s, a.tracks[s])
				}
			case segment.CropLoose:
				out.SetTracks(s, a.tracks[s])
			case segment.CropIntersection:
				trimmed := s.Intersect(f)
				for _, name := range a.TrackNames(s) {
					out.setRenaming(trimmed, name, a.tracks[s][name])
				}
			}
		}
	}
	return out, nil
}

// Project maps the annotation onto a target timeline: every target segment
// receives the tracks of every annotated segment it intersects, renaming
// tracks on collision. Projecting onto the partition of the annotation's
// own timeline aligns overlapping entries on non-overlapping pieces.
func (a *Annotation) Project(target *timeline.Timeline) *Annotation {
	out := New(a.uri, a.modality)
	for _, s := range target.All() {
		sub, _ := a.tl.Crop(s, segment.CropLoose)
		for _, is := range sub.All() {
			for _, name := range a.TrackNames(is) {
				out.setRenaming(s, name, a.tracks[is][name])
			}
		}
	}
	return out
}

// Translate returns a copy with labels replaced according to table. Labels
// absent from the table, or mapped to the empty string, pass through
// unchanged; translation never drops a track.
func (a *Annotation) Translate(table map[string]string) *Annotation {
	out := New(a.uri, a.modality)
	for e := range a.All() {
		label := e.Label
		if to, ok := table[label]; ok && to != "" {
			label = to
		}
		out.Set(e.Segment, e.Track, label)
	}
	return out
}

// Equal reports whether both annotations hold exactly the same entries
// for the same document and modality.
func (a *Annotation) Equal(o *Annotation) bool {
	if a.uri != o.uri || a.modality != o.modality || len(a.tracks) != len(o.tracks) {
		return false
	}
	for s, tr := range a.tracks {
		otr, ok := o.tracks[s]
		if !ok || !maps.Equal(tr, otr) {
			return false
		}
	}
	return true
}
