package mapping

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Solve computes a minimum-cost perfect assignment on a square cost
// matrix and returns the assigned column for each row. It runs the
// O(n^3) shortest-augmenting-path formulation of the Hungarian method,
// maintaining dual potentials on rows and columns and growing one
// augmenting path per row.
//
// Ties between equal-cost assignments resolve in favor of lower column
// indices, so results are deterministic for a given matrix. A nil,
// non-square or non-finite matrix is rejected with [ErrDimension].
func Solve(cost *mat.Dense) ([]int, error) {
	if cost == nil {
		return nil, fmt.Errorf("%w: nil cost matrix", ErrDimension)
	}
	r, c := cost.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: %dx%d cost matrix is not square", ErrDimension, r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := cost.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite cost at (%d, %d)", ErrDimension, i, j)
			}
		}
	}

	// Rows and columns are 1-based here; index 0 is the virtual column
	// that seeds each augmenting path.
	n := r
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	assigned := make([]int, n+1) // assigned[j] = row currently matched to column j
	way := make([]int, n+1)      // way[j] = previous column on the path to j

	for i := 1; i <= n; i++ {
		assigned[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := assigned[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost.At(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[assigned[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if assigned[j0] == 0 {
				break
			}
		}
		// Augment along the recorded path back to the virtual column.
		for j0 != 0 {
			j1 := way[j0]
			assigned[j0] = assigned[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for j := 1; j <= n; j++ {
		result[assigned[j]-1] = j - 1
	}
	return result, nil
}
