// Package metric scores hypothesis annotations against reference
// annotations and accumulates the outcome across documents:
//
//   - detection: how much annotated time is missed or hallucinated,
//     labels ignored
//   - identification: label-aware miss/false alarm/confusion against
//     named references
//   - diarization: identification after the optimal cluster-to-speaker
//     assignment, plus purity/coverage and homogeneity/completeness
//   - segmentation: boundary agreement between plain timelines
//
// Every metric embeds an [Accumulator]: each Compute call scores one
// document pair, records its components and rate, and adds them to a
// running total. The global rate aggregates the summed components, and a
// Student-t confidence interval is available once at least two documents
// were scored.
package metric

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/chronoline/chronoline/pkg/annotation"
	"github.com/chronoline/chronoline/pkg/timeline"
)

// ErrInsufficientData is returned when a confidence interval is requested
// before two document rates were accumulated.
var ErrInsufficientData = errors.New("metric: insufficient data for confidence interval")

// DefaultAlpha is the usual coverage probability for confidence intervals.
const DefaultAlpha = 0.9

// Component names shared by the metrics.
const (
	ComponentTotal             = "total"
	ComponentCorrect           = "correct"
	ComponentConfusion         = "confusion"
	ComponentMiss              = "miss"
	ComponentFalseAlarm        = "false alarm"
	ComponentRetrieved         = "retrieved"
	ComponentRelevant          = "relevant"
	ComponentRelevantRetrieved = "relevant retrieved"
	ComponentEntropy           = "entropy"
	ComponentCrossEntropy      = "cross-entropy"
	ComponentIntersection      = "intersection"
)

// Metric names.
const (
	DetectionName            = "detection error rate"
	IdentificationName       = "identification error rate"
	DiarizationName          = "diarization error rate"
	PurityName               = "purity"
	CoverageName             = "coverage"
	HomogeneityName          = "homogeneity"
	CompletenessName         = "completeness"
	PrecisionName            = "identification precision"
	RecallName               = "identification recall"
	SegmentationPurityName   = "segmentation purity"
	SegmentationCoverageName = "segmentation coverage"
)

// Components maps component names to duration-weighted values.
type Components map[string]float64

// Copy returns an independent copy.
func (c Components) Copy() Components {
	out := make(Components, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Result is the outcome of scoring one document pair.
type Result struct {
	URI        string
	Rate       float64
	Components Components
}

// Metric is the interface shared by all annotation-based metrics.
type Metric interface {
	Name() string
	ComponentNames() []string
	Compute(reference, hypothesis *annotation.Annotation) (float64, error)
	Add(uri string, c Components) float64
	Global() float64
	Components() Components
	Results() []Result
	Reset()
	ConfidenceInterval(alpha float64) (mean, lower, upper float64, err error)
}

// Accumulator gathers metric components and per-document rates across
// Compute calls. It is embedded by every metric in this package; distinct
// accumulators are independent, but a single one must not be mutated
// concurrently.
type Accumulator struct {
	name    string
	names   []string
	rate    func(Components) float64
	total   Components
	results []Result
}

func newAccumulator(name string, names []string, rate func(Components) float64) *Accumulator {
	a := &Accumulator{name: name, names: slices.Clone(names), rate: rate}
	a.Reset()
	return a
}

// Name returns the human-readable metric name.
func (a *Accumulator) Name() string { return a.name }

// ComponentNames returns the component names this metric tracks.
func (a *Accumulator) ComponentNames() []string { return slices.Clone(a.names) }

func (a *Accumulator) blank() Components {
	c := make(Components, len(a.names))
	for _, n := range a.names {
		c[n] = 0
	}
	return c
}

// Add records one document's components, as computed by this metric or
// restored from a scoreboard, and returns the document rate. Components
// are added to the running totals; missing names count as zero.
func (a *Accumulator) Add(uri string, c Components) float64 {
	for _, n := range a.names {
		a.total[n] += c[n]
	}
	rate := a.rate(c)
	a.results = append(a.results, Result{URI: uri, Rate: rate, Components: c.Copy()})
	return rate
}

// Global returns the rate aggregated over all accumulated components.
func (a *Accumulator) Global() float64 { return a.rate(a.total) }

// Component returns one accumulated component value.
func (a *Accumulator) Component(name string) float64 { return a.total[name] }

// Components returns a copy of the accumulated component values.
func (a *Accumulator) Components() Components { return a.total.Copy() }

// Rate computes the metric rate of an arbitrary component set without
// accumulating it.
func (a *Accumulator) Rate(c Components) float64 { return a.rate(c) }

// Results returns a copy of the per-document outcomes in call order.
func (a *Accumulator) Results() []Result {
	out := make([]Result, len(a.results))
	for i, r := range a.results {
		out[i] = Result{URI: r.URI, Rate: r.Rate, Components: r.Components.Copy()}
	}
	return out
}

// Reset clears accumulated components and per-document history.
func (a *Accumulator) Reset() {
	a.total = a.blank()
	a.results = nil
}

// ConfidenceInterval returns the Student-t interval of the accumulated
// per-document rates: their mean, bracketed with probability alpha.
// At least two documents must have been scored, otherwise
// [ErrInsufficientData] is returned.
func (a *Accumulator) ConfidenceInterval(alpha float64) (mean, lower, upper float64, err error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, 0, 0, fmt.Errorf("metric: alpha %g outside (0, 1)", alpha)
	}
	n := len(a.results)
	if n < 2 {
		return 0, 0, 0, fmt.Errorf("%w: %d document(s) scored", ErrInsufficientData, n)
	}
	rates := make([]float64, n)
	for i, r := range a.results {
		rates[i] = r.Rate
	}
	mean = stat.Mean(rates, nil)
	se := stat.StdDev(rates, nil) / math.Sqrt(float64(n))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	q := t.Quantile(1 - (1-alpha)/2)
	return mean, mean - q*se, mean + q*se, nil
}

// errorRate computes sum(numerator components)/denominator. A zero
// denominator scores 0 when the numerator is zero too, 1 otherwise.
func errorRate(c Components, numerators []string, denominator string) float64 {
	var num float64
	for _, n := range numerators {
		num += c[n]
	}
	den := c[denominator]
	if den == 0 {
		if num == 0 {
			return 0
		}
		return 1
	}
	return num / den
}

// ratio computes numerator/denominator for greater-is-better rates, where
// an empty denominator scores a perfect 1.
func ratio(c Components, numerator, denominator string) float64 {
	den := c[denominator]
	if den == 0 {
		return 1
	}
	return c[numerator] / den
}

// alignOnCommon projects both annotations onto the partition of the union
// of their timelines, the atomic evaluation units all duration-weighted
// counting runs on.
func alignOnCommon(ref, hyp *annotation.Annotation) (*timeline.Timeline, *annotation.Annotation, *annotation.Annotation, error) {
	common, err := ref.Timeline().Union(hyp.Timeline())
	if err != nil {
		return nil, nil, nil, err
	}
	parts := common.Partition()
	return parts, ref.Project(parts), hyp.Project(parts), nil
}

// countCommon returns the size of the intersection of two sorted label
// slices.
func countCommon(r, h []string) int {
	var n, i, j int
	for i < len(r) && j < len(h) {
		switch {
		case r[i] == h[j]:
			n++
			i++
			j++
		case r[i] < h[j]:
			i++
		default:
			j++
		}
	}
	return n
}
