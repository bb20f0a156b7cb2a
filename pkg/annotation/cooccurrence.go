package annotation

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/chronoline/chronoline/pkg/segment"
	"github.com/chronoline/chronoline/pkg/timeline"
)

// LabelMatrix is a dense matrix indexed by row and column labels, as
// produced by [Cooccurrence]. A zero row or column count yields a valid
// matrix with no cells.
type LabelMatrix struct {
	rows []string
	cols []string
	ri   map[string]int
	ci   map[string]int
	m    *mat.Dense
}

func newLabelMatrix(rows, cols []string) *LabelMatrix {
	lm := &LabelMatrix{
		rows: slices.Clone(rows),
		cols: slices.Clone(cols),
		ri:   make(map[string]int, len(rows)),
		ci:   make(map[string]int, len(cols)),
	}
	for i, l := range rows {
		lm.ri[l] = i
	}
	for j, l := range cols {
		lm.ci[l] = j
	}
	if len(rows) > 0 && len(cols) > 0 {
		lm.m = mat.NewDense(len(rows), len(cols), nil)
	}
	return lm
}

// Cooccurrence returns the matrix of co-occurrence durations between the
// labels of a (rows) and the labels of b (columns): each cell holds the
// total duration during which both labels are active, overlapping tracks
// counted once through coverage.
func Cooccurrence(a, b *Annotation) *LabelMatrix {
	lm := newLabelMatrix(a.Labels(), b.Labels())
	if lm.m == nil {
		return lm
	}
	colCov := make([]*timeline.Timeline, len(lm.cols))
	for j, l := range lm.cols {
		colCov[j] = b.LabelTimeline(l).Coverage()
	}
	for i, l := range lm.rows {
		rowCov := a.LabelTimeline(l).Coverage()
		for j := range lm.cols {
			cropped, _ := rowCov.CropTimeline(colCov[j], segment.CropIntersection)
			lm.m.Set(i, j, cropped.Duration())
		}
	}
	return lm
}

// RowLabels returns the row labels in matrix order.
func (lm *LabelMatrix) RowLabels() []string { return slices.Clone(lm.rows) }

// ColLabels returns the column labels in matrix order.
func (lm *LabelMatrix) ColLabels() []string { return slices.Clone(lm.cols) }

// Dims returns the number of rows and columns.
func (lm *LabelMatrix) Dims() (int, int) { return len(lm.rows), len(lm.cols) }

// At returns the cell at row i, column j.
func (lm *LabelMatrix) At(i, j int) float64 { return lm.m.At(i, j) }

// Get returns the cell addressed by labels, false when either label is
// absent from the matrix.
func (lm *LabelMatrix) Get(row, col string) (float64, bool) {
	i, ok := lm.ri[row]
	if !ok {
		return 0, false
	}
	j, ok := lm.ci[col]
	if !ok {
		return 0, false
	}
	return lm.m.At(i, j), true
}

// Max returns the largest cell value, 0 for an empty matrix.
func (lm *LabelMatrix) Max() float64 {
	if lm.m == nil {
		return 0
	}
	return mat.Max(lm.m)
}

// Sum returns the sum of all cells, 0 for an empty matrix.
func (lm *LabelMatrix) Sum() float64 {
	if lm.m == nil {
		return 0
	}
	return mat.Sum(lm.m)
}

// RowMax returns the largest cell of the row addressed by label, 0 for a
// matrix with no columns.
func (lm *LabelMatrix) RowMax(row string) float64 {
	i, ok := lm.ri[row]
	if !ok || lm.m == nil {
		return 0
	}
	return mat.Max(lm.m.RowView(i))
}

// ColMax returns the largest cell of the column addressed by label, 0 for
// a matrix with no rows.
func (lm *LabelMatrix) ColMax(col string) float64 {
	j, ok := lm.ci[col]
	if !ok || lm.m == nil {
		return 0
	}
	return mat.Max(lm.m.ColView(j))
}

// ArgMax returns the column label holding the largest cell of the row,
// first in column order on ties. It returns false when the row label is
// absent or the matrix has no columns.
func (lm *LabelMatrix) ArgMax(row string) (string, float64, bool) {
	i, ok := lm.ri[row]
	if !ok || lm.m == nil {
		return "", 0, false
	}
	best, bestVal := 0, lm.m.At(i, 0)
	for j := 1; j < len(lm.cols); j++ {
		if v := lm.m.At(i, j); v > bestVal {
			best, bestVal = j, v
		}
	}
	return lm.cols[best], bestVal, true
}

// Transpose returns a new matrix with rows and columns swapped.
func (lm *LabelMatrix) Transpose() *LabelMatrix {
	out := newLabelMatrix(lm.cols, lm.rows)
	if lm.m != nil {
		out.m.Copy(lm.m.T())
	}
	return out
}

// String renders the matrix with row and column labels, mostly for tests
// and debugging.
func (lm *LabelMatrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%12s", "")
	for _, c := range lm.cols {
		fmt.Fprintf(&sb, " %12s", c)
	}
	sb.WriteByte('\n')
	for i, r := range lm.rows {
		fmt.Fprintf(&sb, "%12s", r)
		for j := range lm.cols {
			fmt.Fprintf(&sb, " %12.3f", lm.m.At(i, j))
		}
		if i < len(lm.rows)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
