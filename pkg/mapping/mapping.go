// Package mapping relates the labels of two annotations of the same
// document: a [Mapping] holds ordered pairs of label groups, and mappers
// such as [HungarianMapper] compute one from the co-occurrence of two
// annotations. The resulting translation table feeds
// [github.com/chronoline/chronoline/pkg/annotation.Annotation.Translate],
// which is how diarization scoring renames hypothesis clusters to the
// reference speakers they overlap most.
package mapping

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrAlreadyMapped is returned when a label is added to a mapping it
	// already belongs to.
	ErrAlreadyMapped = errors.New("mapping: label already mapped")

	// ErrNotOneToOne is returned when a group of two or more labels is
	// added to a one-to-one mapping.
	ErrNotOneToOne = errors.New("mapping: group too large for one-to-one mapping")

	// ErrDimension is returned for malformed cost matrices: nil,
	// non-square, or holding non-finite values.
	ErrDimension = errors.New("mapping: dimension mismatch")
)

// Pair associates a group of left labels with a group of right labels.
// An empty side marks the other side's labels as explicitly unmatched.
type Pair struct {
	Left  []string
	Right []string
}

func renderGroup(labels []string) string {
	if len(labels) == 0 {
		return "(nothing)"
	}
	return strings.Join(labels, ", ")
}

func (p Pair) String() string {
	return renderGroup(p.Left) + " --> " + renderGroup(p.Right)
}

// Mapping is an ordered, many-to-many association between the labels of a
// left and a right annotation. Every label belongs to at most one pair.
type Mapping struct {
	leftModality  string
	rightModality string
	pairs         []Pair
	left          map[string]int
	right         map[string]int
	oneToOne      bool
}

// New returns an empty many-to-many mapping between two modalities.
func New(leftModality, rightModality string) *Mapping {
	return &Mapping{
		leftModality:  leftModality,
		rightModality: rightModality,
		left:          make(map[string]int),
		right:         make(map[string]int),
	}
}

// NewOneToOne returns an empty mapping restricted to groups of at most one
// label on each side.
func NewOneToOne(leftModality, rightModality string) *Mapping {
	m := New(leftModality, rightModality)
	m.oneToOne = true
	return m
}

// LeftModality returns the modality of the left-hand annotation.
func (m *Mapping) LeftModality() string { return m.leftModality }

// RightModality returns the modality of the right-hand annotation.
func (m *Mapping) RightModality() string { return m.rightModality }

// Len returns the number of pairs.
func (m *Mapping) Len() int { return len(m.pairs) }

// Pairs returns a copy of the pairs in insertion order.
func (m *Mapping) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = Pair{Left: slices.Clone(p.Left), Right: slices.Clone(p.Right)}
	}
	return out
}

// AddPair appends a pair associating the left group with the right group.
// Either group may be empty, marking the other side as unmatched; a pair
// empty on both sides is rejected. A label already present in the mapping
// is rejected with [ErrAlreadyMapped].
func (m *Mapping) AddPair(lefts, rights []string) error {
	if len(lefts) == 0 && len(rights) == 0 {
		return errors.New("mapping: empty pair")
	}
	if m.oneToOne && (len(lefts) > 1 || len(rights) > 1) {
		return fmt.Errorf("%w: %s --> %s", ErrNotOneToOne, renderGroup(lefts), renderGroup(rights))
	}
	for _, l := range lefts {
		if _, ok := m.left[l]; ok {
			return fmt.Errorf("%w: %q", ErrAlreadyMapped, l)
		}
	}
	for _, r := range rights {
		if _, ok := m.right[r]; ok {
			return fmt.Errorf("%w: %q", ErrAlreadyMapped, r)
		}
	}
	idx := len(m.pairs)
	m.pairs = append(m.pairs, Pair{Left: slices.Clone(lefts), Right: slices.Clone(rights)})
	for _, l := range lefts {
		m.left[l] = idx
	}
	for _, r := range rights {
		m.right[r] = idx
	}
	return nil
}

// RightOf returns the right group paired with a left label, false when the
// label is unknown. A known label paired with an empty group is explicitly
// unmatched.
func (m *Mapping) RightOf(left string) ([]string, bool) {
	idx, ok := m.left[left]
	if !ok {
		return nil, false
	}
	return slices.Clone(m.pairs[idx].Right), true
}

// LeftOf returns the left group paired with a right label, false when the
// label is unknown.
func (m *Mapping) LeftOf(right string) ([]string, bool) {
	idx, ok := m.right[right]
	if !ok {
		return nil, false
	}
	return slices.Clone(m.pairs[idx].Left), true
}

// Translation returns the left-to-right label table of the mapping. Only
// pairs with exactly one right label contribute; left labels of other
// pairs are absent from the table and therefore pass through
// [github.com/chronoline/chronoline/pkg/annotation.Annotation.Translate]
// unchanged.
func (m *Mapping) Translation() map[string]string {
	table := make(map[string]string)
	for _, p := range m.pairs {
		if len(p.Right) != 1 {
			continue
		}
		for _, l := range p.Left {
			table[l] = p.Right[0]
		}
	}
	return table
}

// String renders one pair per line in insertion order.
func (m *Mapping) String() string {
	lines := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}
