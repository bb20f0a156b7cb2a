package mapping

import (
	"gonum.org/v1/gonum/mat"

	"github.com/chronoline/chronoline/pkg/annotation"
)

// Mapper computes a label mapping from the left annotation to the right
// annotation of the same document.
type Mapper interface {
	Map(left, right *annotation.Annotation) (*Mapping, error)
}

// HungarianMapper computes the one-to-one label mapping maximizing the
// total co-occurrence duration between matched labels. Labels whose best
// assignment co-occurs for no time at all stay unmatched unless the
// mapper is forced.
type HungarianMapper struct {
	force bool
}

// HungarianOption configures a [HungarianMapper].
type HungarianOption func(*HungarianMapper)

// WithForce keeps assignments with zero co-occurrence instead of leaving
// the labels unmatched.
func WithForce() HungarianOption {
	return func(m *HungarianMapper) { m.force = true }
}

// NewHungarian returns a mapper solving the optimal one-to-one assignment
// between left and right labels.
func NewHungarian(opts ...HungarianOption) *HungarianMapper {
	m := &HungarianMapper{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map builds the co-occurrence matrix of both annotations and solves the
// assignment maximizing the matched duration. Every label ends up in the
// mapping: matched ones pairwise, the rest explicitly unmatched.
func (m *HungarianMapper) Map(left, right *annotation.Annotation) (*Mapping, error) {
	matrix := annotation.Cooccurrence(left, right)
	lls, rls := matrix.RowLabels(), matrix.ColLabels()
	out := NewOneToOne(left.Modality(), right.Modality())

	nl, nr := len(lls), len(rls)
	if nl == 0 || nr == 0 {
		return out, addUnmatched(out, lls, rls, nil, nil)
	}

	// Maximizing co-occurrence is minimizing (max - value) on the
	// transposed matrix, padded with zero-cost virtual rows or columns
	// up to a square.
	n := max(nl, nr)
	cost := mat.NewDense(n, n, nil)
	ceiling := matrix.Max()
	for j := 0; j < nr; j++ {
		for i := 0; i < nl; i++ {
			cost.Set(j, i, ceiling-matrix.At(i, j))
		}
	}
	assignment, err := Solve(cost)
	if err != nil {
		return nil, err
	}

	rightOf := make(map[int]int, nl)
	for j, i := range assignment {
		if j < nr && i < nl {
			rightOf[i] = j
		}
	}
	leftDone := make(map[string]bool, nl)
	rightDone := make(map[string]bool, nr)
	for i, ll := range lls {
		j, ok := rightOf[i]
		if !ok || (!m.force && matrix.At(i, j) <= 0) {
			continue
		}
		if err := out.AddPair([]string{ll}, []string{rls[j]}); err != nil {
			return nil, err
		}
		leftDone[ll] = true
		rightDone[rls[j]] = true
	}
	return out, addUnmatched(out, lls, rls, leftDone, rightDone)
}

// ArgMaxMapper maps every left label to the right label it co-occurs with
// the longest, grouping left labels sharing a target into one pair. Unlike
// [HungarianMapper] the result may be many-to-one.
type ArgMaxMapper struct{}

// NewArgMax returns a mapper assigning each left label to its strongest
// right label.
func NewArgMax() *ArgMaxMapper { return &ArgMaxMapper{} }

// Map assigns each left label to the right label with maximal
// co-occurrence, leaving labels with no co-occurrence at all unmatched.
func (m *ArgMaxMapper) Map(left, right *annotation.Annotation) (*Mapping, error) {
	matrix := annotation.Cooccurrence(left, right)
	lls, rls := matrix.RowLabels(), matrix.ColLabels()
	out := New(left.Modality(), right.Modality())

	group := make(map[string][]string, len(rls))
	leftDone := make(map[string]bool, len(lls))
	rightDone := make(map[string]bool, len(rls))
	for _, ll := range lls {
		rl, v, ok := matrix.ArgMax(ll)
		if !ok || v <= 0 {
			continue
		}
		group[rl] = append(group[rl], ll)
		leftDone[ll] = true
		rightDone[rl] = true
	}
	for _, rl := range rls {
		if len(group[rl]) == 0 {
			continue
		}
		if err := out.AddPair(group[rl], []string{rl}); err != nil {
			return nil, err
		}
	}
	return out, addUnmatched(out, lls, rls, leftDone, rightDone)
}

// addUnmatched appends one explicitly unmatched pair per leftover label.
func addUnmatched(out *Mapping, lls, rls []string, leftDone, rightDone map[string]bool) error {
	for _, ll := range lls {
		if !leftDone[ll] {
			if err := out.AddPair([]string{ll}, nil); err != nil {
				return err
			}
		}
	}
	for _, rl := range rls {
		if !rightDone[rl] {
			if err := out.AddPair(nil, []string{rl}); err != nil {
				return err
			}
		}
	}
	return nil
}
