package gf_test

import (
	"testing"

	"github.com/keyplay/RAID6-implementation/pkg/gf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newField(t *testing.T) *gf.Field {
	t.Helper()
	f, err := gf.NewDefault(8)
	require.NoError(t, err)
	return f
}

func TestMatrixMul(t *testing.T) {
	f := newField(t)

	a := gf.Matrix{{1, 2}, {3, 4}}
	id := gf.Identity(2)

	got, err := a.Mul(f, id)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = id.Mul(f, a)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	// 1x2 * 2x1: dot product in the field.
	row := gf.Matrix{{3, 5}}
	col := gf.Matrix{{7}, {11}}
	got, err = row.Mul(f, col)
	require.NoError(t, err)
	want := f.Add(f.Mul(3, 7), f.Mul(5, 11))
	assert.Equal(t, gf.Matrix{{want}}, got)

	_, err = a.Mul(f, gf.NewMatrix(3, 2))
	assert.ErrorIs(t, err, gf.ErrDimensionMismatch)
}

func TestMatrixMulVec(t *testing.T) {
	f := newField(t)

	m := gf.Matrix{{1, 0, 0}, {0, 1, 0}, {2, 3, 4}}
	v := []uint16{9, 10, 11}

	got, err := m.MulVec(f, v)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), got[0])
	assert.Equal(t, uint16(10), got[1])
	want := f.Add(f.Add(f.Mul(2, 9), f.Mul(3, 10)), f.Mul(4, 11))
	assert.Equal(t, want, got[2])

	_, err = m.MulVec(f, []uint16{1, 2})
	assert.ErrorIs(t, err, gf.ErrDimensionMismatch)
}

func TestMatrixInvert_RoundTrip(t *testing.T) {
	f := newField(t)

	// Vandermonde-style matrices are invertible for distinct generators.
	for _, n := range []int{1, 2, 3, 4, 5} {
		m := gf.NewMatrix(n, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				m[i][j] = f.Exp(uint16(i+1), j)
			}
		}

		inv, err := m.Invert(f)
		require.NoError(t, err, "n=%d", n)

		prod, err := m.Mul(f, inv)
		require.NoError(t, err)
		assert.Equal(t, gf.Identity(n), prod, "n=%d", n)
	}
}

func TestMatrixInvert_NeedsRowSwap(t *testing.T) {
	f := newField(t)

	// Natural pivot of column 0 is zero; elimination must swap rows.
	m := gf.Matrix{{0, 1}, {1, 0}}
	inv, err := m.Invert(f)
	require.NoError(t, err)
	assert.Equal(t, gf.Matrix{{0, 1}, {1, 0}}, inv)
}

func TestMatrixInvert_Singular(t *testing.T) {
	f := newField(t)

	// Duplicate rows.
	_, err := gf.Matrix{{1, 2}, {1, 2}}.Invert(f)
	assert.ErrorIs(t, err, gf.ErrSingularMatrix)

	// Zero column.
	_, err = gf.Matrix{{0, 1}, {0, 2}}.Invert(f)
	assert.ErrorIs(t, err, gf.ErrSingularMatrix)

	// Non-square.
	_, err = gf.NewMatrix(2, 3).Invert(f)
	assert.ErrorIs(t, err, gf.ErrDimensionMismatch)
}

func TestMatrixSelectRowsClone(t *testing.T) {
	m := gf.Matrix{{1, 2}, {3, 4}, {5, 6}}

	sel := m.SelectRows([]int{2, 0})
	assert.Equal(t, gf.Matrix{{5, 6}, {1, 2}}, sel)

	c := m.Clone()
	c[0][0] = 99
	assert.Equal(t, uint16(1), m[0][0])
}
