package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chronoline/chronoline/pkg/annotation"
	"github.com/chronoline/chronoline/pkg/mapping"
	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

// DiarizationErrorRate scores anonymous clusterings: hypothesis labels are
// first renamed to the reference labels they co-occur with the longest,
// through the optimal one-to-one assignment, then the identification error
// rate of the renamed hypothesis is computed.
type DiarizationErrorRate struct {
	*Accumulator
	mapper *mapping.HungarianMapper
}

// NewDiarizationErrorRate returns a fresh diarization error rate
// accumulator.
func NewDiarizationErrorRate() *DiarizationErrorRate {
	return &DiarizationErrorRate{
		Accumulator: newAccumulator(
			DiarizationName,
			[]string{ComponentTotal, ComponentCorrect, ComponentConfusion, ComponentMiss, ComponentFalseAlarm},
			func(c Components) float64 {
				return errorRate(c, []string{ComponentConfusion, ComponentMiss, ComponentFalseAlarm}, ComponentTotal)
			},
		),
		mapper: mapping.NewHungarian(),
	}
}

// OptimalMapping returns the optimal hypothesis-to-reference label
// assignment used by [DiarizationErrorRate.Compute].
func (m *DiarizationErrorRate) OptimalMapping(ref, hyp *annotation.Annotation) (*mapping.Mapping, error) {
	return m.mapper.Map(hyp, ref)
}

// Compute renames hypothesis labels through the optimal assignment, scores
// the result against the reference and accumulates the components.
func (m *DiarizationErrorRate) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	mp, err := m.OptimalMapping(ref, hyp)
	if err != nil {
		return 0, err
	}
	c, err := identificationComponents(m.blank(), ref, hyp.Translate(mp.Translation()))
	if err != nil {
		return 0, err
	}
	return m.Add(ref.URI(), c), nil
}

// DiarizationPurity measures how homogeneous hypothesis clusters are:
// each cluster is credited with the single reference label it co-occurs
// with the longest, relative to the total cluster duration. By default
// both annotations are first restricted to the regions where the other
// one detected something, so that detection errors do not depress the
// score.
type DiarizationPurity struct {
	*Accumulator
	detectionErrors bool
	swapped         bool
}

// PurityOption configures [DiarizationPurity] and [DiarizationCoverage].
type PurityOption func(*DiarizationPurity)

// WithDetectionErrors skips the mutual restriction step, letting misses
// and false alarms lower the score.
func WithDetectionErrors() PurityOption {
	return func(m *DiarizationPurity) { m.detectionErrors = true }
}

func newPurity(name string, swapped bool, opts []PurityOption) *DiarizationPurity {
	m := &DiarizationPurity{
		Accumulator: newAccumulator(
			name,
			[]string{ComponentTotal, ComponentCorrect},
			func(c Components) float64 {
				return ratio(c, ComponentCorrect, ComponentTotal)
			},
		),
		swapped: swapped,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewDiarizationPurity returns a fresh purity accumulator.
func NewDiarizationPurity(opts ...PurityOption) *DiarizationPurity {
	return newPurity(PurityName, false, opts)
}

// Compute scores one document pair and accumulates its components.
func (m *DiarizationPurity) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	if ref.URI() != hyp.URI() {
		return 0, fmt.Errorf("%w: %q vs %q", timeline.ErrDocumentMismatch, ref.URI(), hyp.URI())
	}
	if m.swapped {
		ref, hyp = hyp, ref
	}
	uri := ref.URI()
	if !m.detectionErrors {
		var err error
		if ref, err = ref.CropTimeline(hyp.Timeline(), segment.CropIntersection); err != nil {
			return 0, err
		}
		if hyp, err = hyp.CropTimeline(ref.Timeline(), segment.CropIntersection); err != nil {
			return 0, err
		}
	}

	matrix := annotation.Cooccurrence(ref, hyp)
	cols := matrix.ColLabels()
	maxima := make([]float64, len(cols))
	durations := make([]float64, len(cols))
	for j, l := range cols {
		maxima[j] = matrix.ColMax(l)
		durations[j] = hyp.LabelDuration(l)
	}
	c := m.blank()
	c[ComponentCorrect] = floats.Sum(maxima)
	c[ComponentTotal] = floats.Sum(durations)
	return m.Add(uri, c), nil
}

// DiarizationCoverage measures how completely each reference label is
// captured by its best hypothesis cluster. It is purity with reference
// and hypothesis swapped.
type DiarizationCoverage struct {
	*DiarizationPurity
}

// NewDiarizationCoverage returns a fresh coverage accumulator.
func NewDiarizationCoverage(opts ...PurityOption) *DiarizationCoverage {
	return &DiarizationCoverage{newPurity(CoverageName, true, opts)}
}

// DiarizationHomogeneity measures cluster quality in information-theoretic
// terms: 1 minus the conditional entropy of reference labels given
// hypothesis clusters, normalized by the reference label entropy. A
// perfect clustering scores 1.
type DiarizationHomogeneity struct {
	*Accumulator
	swapped bool
}

func newHomogeneity(name string, swapped bool) *DiarizationHomogeneity {
	return &DiarizationHomogeneity{
		Accumulator: newAccumulator(
			name,
			[]string{ComponentEntropy, ComponentCrossEntropy},
			func(c Components) float64 {
				entropy := c[ComponentEntropy]
				cross := c[ComponentCrossEntropy]
				if entropy == 0 {
					if cross == 0 {
						return 1
					}
					return 0
				}
				return 1 - cross/entropy
			},
		),
		swapped: swapped,
	}
}

// NewDiarizationHomogeneity returns a fresh homogeneity accumulator.
func NewDiarizationHomogeneity() *DiarizationHomogeneity {
	return newHomogeneity(HomogeneityName, false)
}

// Compute scores one document pair and accumulates its components.
func (m *DiarizationHomogeneity) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	if ref.URI() != hyp.URI() {
		return 0, fmt.Errorf("%w: %q vs %q", timeline.ErrDocumentMismatch, ref.URI(), hyp.URI())
	}
	if m.swapped {
		ref, hyp = hyp, ref
	}

	matrix := annotation.Cooccurrence(ref, hyp)
	rows, cols := matrix.Dims()
	total := matrix.Sum()
	c := m.blank()
	if total > 0 {
		colSums := make([]float64, cols)
		for j := 0; j < cols; j++ {
			for i := 0; i < rows; i++ {
				colSums[j] += matrix.At(i, j)
			}
		}
		var entropy, cross float64
		for i := 0; i < rows; i++ {
			var rowSum float64
			for j := 0; j < cols; j++ {
				rowSum += matrix.At(i, j)
			}
			if ratio := rowSum / total; ratio > 0 {
				entropy -= ratio * math.Log(ratio)
			}
			for j := 0; j < cols; j++ {
				if co := matrix.At(i, j); co > 0 {
					cross -= (co / total) * math.Log(co/colSums[j])
				}
			}
		}
		c[ComponentEntropy] = entropy
		c[ComponentCrossEntropy] = cross
	}
	return m.Add(ref.URI(), c), nil
}

// DiarizationCompleteness measures how fully each reference label is
// gathered into a single cluster. It is homogeneity with reference and
// hypothesis swapped.
type DiarizationCompleteness struct {
	*DiarizationHomogeneity
}

// NewDiarizationCompleteness returns a fresh completeness accumulator.
func NewDiarizationCompleteness() *DiarizationCompleteness {
	return &DiarizationCompleteness{newHomogeneity(CompletenessName, true)}
}
