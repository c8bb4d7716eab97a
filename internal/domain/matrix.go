package domain

import "fmt"

// DistanceMatrix holds directed travel durations in whole minutes between
// the locations of one request. It is read-only once built.
type DistanceMatrix struct {
	n int
	d []int
}

// NewDistanceMatrix copies rows into a dense matrix. Rows must be square,
// the diagonal zero and every off-diagonal value non-negative.
func NewDistanceMatrix(rows [][]int) (*DistanceMatrix, error) {
	n := len(rows)
	d := make([]int, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, NewValidationError("matrix", "row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if i == j && v != 0 {
				return nil, NewValidationError("matrix", "diagonal entry (%d,%d)=%d must be 0", i, j, v)
			}
			if v < 0 {
				return nil, NewValidationError("matrix", "entry (%d,%d)=%d is negative", i, j, v)
			}
			d[i*n+j] = v
		}
	}

	return &DistanceMatrix{n: n, d: d}, nil
}

func (m *DistanceMatrix) Size() int { return m.n }

// At returns the travel duration from i to j in minutes.
func (m *DistanceMatrix) At(i, j int) int { return m.d[i*m.n+j] }

// PathCost sums consecutive legs starting at from and following path.
func (m *DistanceMatrix) PathCost(from int, path []int) int {
	total := 0
	cur := from
	for _, p := range path {
		total += m.At(cur, p)
		cur = p
	}
	return total
}

func (m *DistanceMatrix) String() string {
	return fmt.Sprintf("DistanceMatrix(%dx%d)", m.n, m.n)
}
