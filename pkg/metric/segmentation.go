package metric

import (
	"fmt"

	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

// SegmentationCoverage measures how well hypothesis segments cover the
// reference segmentation: each reference segment is credited with its
// largest single-segment intersection from the hypothesis, relative to
// the reference duration. Reference segments with no hypothesis overlap
// at all are left out entirely, so only boundary placement is scored.
type SegmentationCoverage struct {
	*Accumulator
	swapped bool
}

func newSegmentation(name string, swapped bool) *SegmentationCoverage {
	return &SegmentationCoverage{
		Accumulator: newAccumulator(
			name,
			[]string{ComponentTotal, ComponentIntersection},
			func(c Components) float64 {
				return ratio(c, ComponentIntersection, ComponentTotal)
			},
		),
		swapped: swapped,
	}
}

// NewSegmentationCoverage returns a fresh segmentation coverage
// accumulator.
func NewSegmentationCoverage() *SegmentationCoverage {
	return newSegmentation(SegmentationCoverageName, false)
}

// Compute scores one timeline pair and accumulates its components. Both
// timelines must describe the same document.
func (m *SegmentationCoverage) Compute(ref, hyp *timeline.Timeline) (float64, error) {
	if ref.URI() != hyp.URI() {
		return 0, fmt.Errorf("%w: %q vs %q", timeline.ErrDocumentMismatch, ref.URI(), hyp.URI())
	}
	if m.swapped {
		ref, hyp = hyp, ref
	}
	c := m.blank()
	for _, r := range ref.All() {
		sub, _ := hyp.Crop(r, segment.CropLoose)
		if sub.Len() == 0 {
			continue
		}
		var best float64
		for _, h := range sub.All() {
			if d := r.Intersect(h).Duration(); d > best {
				best = d
			}
		}
		c[ComponentTotal] += r.Duration()
		c[ComponentIntersection] += best
	}
	return m.Add(ref.URI(), c), nil
}

// SegmentationPurity measures how little hypothesis segments straddle
// reference boundaries. It is segmentation coverage with reference and
// hypothesis swapped.
type SegmentationPurity struct {
	*SegmentationCoverage
}

// NewSegmentationPurity returns a fresh segmentation purity accumulator.
func NewSegmentationPurity() *SegmentationPurity {
	return &SegmentationPurity{newSegmentation(SegmentationPurityName, true)}
}
