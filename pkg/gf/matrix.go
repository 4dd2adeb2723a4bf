package gf

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when matrix shapes do not line up.
	ErrDimensionMismatch = errors.New("gf: matrix dimension mismatch")
	// ErrSingularMatrix is returned by Invert when no non-zero pivot exists
	// for some column.
	ErrSingularMatrix = errors.New("gf: singular matrix")
)

// Matrix is a dense matrix of field elements. Row slices are independent,
// so a Matrix may be grown row-wise with append.
type Matrix [][]uint16

// NewMatrix returns a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]uint16, cols)
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m[i][i] = 1
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the number of columns, 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]uint16, len(row))
		copy(out[i], row)
	}
	return out
}

// SelectRows returns a new matrix made of the given rows, in order. The row
// slices are shared with m; callers must not mutate them.
func (m Matrix) SelectRows(rows []int) Matrix {
	out := make(Matrix, 0, len(rows))
	for _, r := range rows {
		out = append(out, m[r])
	}
	return out
}

// Mul returns the matrix product m * other over the field.
func (m Matrix) Mul(f *Field, other Matrix) (Matrix, error) {
	if m.Cols() != other.Rows() {
		return nil, fmt.Errorf("%w: %dx%d * %dx%d", ErrDimensionMismatch,
			m.Rows(), m.Cols(), other.Rows(), other.Cols())
	}
	out := NewMatrix(m.Rows(), other.Cols())
	for i := range out {
		for j := range out[i] {
			var acc uint16
			for k := 0; k < m.Cols(); k++ {
				acc = f.Add(acc, f.Mul(m[i][k], other[k][j]))
			}
			out[i][j] = acc
		}
	}
	return out, nil
}

// MulVec returns the matrix-vector product m * v over the field.
func (m Matrix) MulVec(f *Field, v []uint16) ([]uint16, error) {
	if m.Cols() != len(v) {
		return nil, fmt.Errorf("%w: %dx%d * vector of %d", ErrDimensionMismatch,
			m.Rows(), m.Cols(), len(v))
	}
	out := make([]uint16, m.Rows())
	for i, row := range m {
		var acc uint16
		for k, e := range row {
			acc = f.Add(acc, f.Mul(e, v[k]))
		}
		out[i] = acc
	}
	return out, nil
}

// Invert returns the inverse of a square matrix via Gauss-Jordan
// elimination over the field: augment with the identity, pick the first
// non-zero pivot per column (swapping rows when the natural pivot is zero),
// normalize the pivot row and eliminate the column everywhere else.
//
// Invert is on the rebuild path: a wrong inverse silently corrupts
// reconstructed data, so the elimination keeps to the plain textbook form.
func (m Matrix) Invert(f *Field) (Matrix, error) {
	n := m.Rows()
	if n == 0 || m.Cols() != n {
		return nil, fmt.Errorf("%w: invert needs a square matrix, got %dx%d",
			ErrDimensionMismatch, n, m.Cols())
	}

	// Augmented [m | I] working copy.
	aug := NewMatrix(n, 2*n)
	for i := range aug {
		copy(aug[i], m[i])
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if aug[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return nil, fmt.Errorf("%w: no pivot in column %d", ErrSingularMatrix, col)
		}
		if pivot != col {
			aug[pivot], aug[col] = aug[col], aug[pivot]
		}

		inv, err := f.Inv(aug[col][col])
		if err != nil {
			return nil, err
		}
		for j := 0; j < 2*n; j++ {
			aug[col][j] = f.Mul(aug[col][j], inv)
		}

		for r := 0; r < n; r++ {
			if r == col || aug[r][col] == 0 {
				continue
			}
			factor := aug[r][col]
			for j := 0; j < 2*n; j++ {
				aug[r][j] = f.Sub(aug[r][j], f.Mul(factor, aug[col][j]))
			}
		}
	}

	out := make(Matrix, n)
	for i := range out {
		out[i] = make([]uint16, n)
		copy(out[i], aug[i][n:])
	}
	return out, nil
}
