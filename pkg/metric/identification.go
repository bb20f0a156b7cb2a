package metric

import (
	"github.com/chronoline/chronoline/pkg/annotation"
)

// identificationComponents fills c with the duration-weighted counts of
// correct, confused, missed and hallucinated labels over the common
// partition of both annotations.
func identificationComponents(c Components, ref, hyp *annotation.Annotation) (Components, error) {
	parts, r, h, err := alignOnCommon(ref, hyp)
	if err != nil {
		return nil, err
	}
	for _, s := range parts.All() {
		d := s.Duration()
		rl := r.LabelsAt(s)
		hl := h.LabelsAt(s)
		nr, nh := len(rl), len(hl)
		correct := countCommon(rl, hl)
		c[ComponentTotal] += d * float64(nr)
		c[ComponentCorrect] += d * float64(correct)
		c[ComponentConfusion] += d * float64(min(nr, nh)-correct)
		c[ComponentMiss] += d * float64(max(0, nr-nh))
		c[ComponentFalseAlarm] += d * float64(max(0, nh-nr))
	}
	return c, nil
}

// IdentificationErrorRate compares labels by exact equality:
//
//	rate = (confusion + miss + false alarm) / total
//
// with all components duration-weighted over the common partition.
type IdentificationErrorRate struct {
	*Accumulator
}

// NewIdentificationErrorRate returns a fresh identification error rate
// accumulator.
func NewIdentificationErrorRate() *IdentificationErrorRate {
	return &IdentificationErrorRate{
		Accumulator: newAccumulator(
			IdentificationName,
			[]string{ComponentTotal, ComponentCorrect, ComponentConfusion, ComponentMiss, ComponentFalseAlarm},
			func(c Components) float64 {
				return errorRate(c, []string{ComponentConfusion, ComponentMiss, ComponentFalseAlarm}, ComponentTotal)
			},
		),
	}
}

// Compute scores one document pair and accumulates its components.
func (m *IdentificationErrorRate) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	c, err := identificationComponents(m.blank(), ref, hyp)
	if err != nil {
		return 0, err
	}
	return m.Add(ref.URI(), c), nil
}

// IdentificationPrecision is the duration-weighted share of hypothesis
// labels that are correct. An empty hypothesis scores a perfect 1.
type IdentificationPrecision struct {
	*Accumulator
}

// NewIdentificationPrecision returns a fresh precision accumulator.
func NewIdentificationPrecision() *IdentificationPrecision {
	return &IdentificationPrecision{
		Accumulator: newAccumulator(
			PrecisionName,
			[]string{ComponentRetrieved, ComponentRelevantRetrieved},
			func(c Components) float64 {
				return ratio(c, ComponentRelevantRetrieved, ComponentRetrieved)
			},
		),
	}
}

// Compute scores one document pair and accumulates its components.
func (m *IdentificationPrecision) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	parts, r, h, err := alignOnCommon(ref, hyp)
	if err != nil {
		return 0, err
	}
	c := m.blank()
	for _, s := range parts.All() {
		d := s.Duration()
		rl := r.LabelsAt(s)
		hl := h.LabelsAt(s)
		c[ComponentRetrieved] += d * float64(len(hl))
		c[ComponentRelevantRetrieved] += d * float64(countCommon(rl, hl))
	}
	return m.Add(ref.URI(), c), nil
}

// IdentificationRecall is the duration-weighted share of reference labels
// the hypothesis recovered. An empty reference scores a perfect 1.
type IdentificationRecall struct {
	*Accumulator
}

// NewIdentificationRecall returns a fresh recall accumulator.
func NewIdentificationRecall() *IdentificationRecall {
	return &IdentificationRecall{
		Accumulator: newAccumulator(
			RecallName,
			[]string{ComponentRelevant, ComponentRelevantRetrieved},
			func(c Components) float64 {
				return ratio(c, ComponentRelevantRetrieved, ComponentRelevant)
			},
		),
	}
}

// Compute scores one document pair and accumulates its components.
func (m *IdentificationRecall) Compute(ref, hyp *annotation.Annotation) (float64, error) {
	parts, r, h, err := alignOnCommon(ref, hyp)
	if err != nil {
		return 0, err
	}
	c := m.blank()
	for _, s := range parts.All() {
		d := s.Duration()
		rl := r.LabelsAt(s)
		hl := h.LabelsAt(s)
		c[ComponentRelevant] += d * float64(len(rl))
		c[ComponentRelevantRetrieved] += d * float64(countCommon(rl, hl))
	}
	return m.Add(ref.URI(), c), nil
}

// FMeasure combines precision and recall, weighing recall beta times as
// much as precision. Both zero scores 0.
func FMeasure(precision, recall, beta float64) float64 {
	b2 := beta * beta
	den := b2*precision + recall
	if den == 0 {
		return 0
	}
	return (1 + b2) * precision * recall / den
}
