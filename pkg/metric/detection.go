package metric

import (
	"github.com/chronoline/chronoline/pkg/annotation"
)

// DetectionErrorRate measures how much annotated time the hypothesis
// misses or hallucinates, ignoring labels entirely:
//
//	rate = (miss + false alarm) / total
//
// where total is the duration-weighted amount of reference activity.
type DetectionErrorRate struct {
	*Accumulator
}

// NewDetectionErrorRate returns a fresh detection error rate accumulator.
func NewDetectionErrorRate() *DetectionErrorRate {
	return &DetectionErrorRate{
		Accumulator: newAccumulator(
			DetectionName,
			[]string{ComponentTotal, ComponentMiss, ComponentFalseAlarm},
			func(c Components) float64 {
				return errorRate(c, []string{ComponentMiss, ComponentFalseAlarm}, ComponentTotal)
			},
		),
	}
}

// Compute scores one document pair and accumulates its components. Both
// annotations must describe the same document.
func (m *DetectionErrorRate) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	parts, r, h, err := alignOnCommon(ref, hyp)
	if err != nil {
		return 0, err
	}
	c := m.blank()
	for _, s := range parts.All() {
		d := s.Duration()
		nr := len(r.LabelsAt(s))
		nh := len(h.LabelsAt(s))
		c[ComponentTotal] += d * float64(nr)
		c[ComponentMiss] += d * float64(max(0, nr-nh))
		c[ComponentFalseAlarm] += d * float64(max(0, nh-nr))
	}
	return m.Add(ref.URI(), c), nil
}
