package gf_test

import (
	"testing"

	"github.com/keyplay/RAID6-implementation/pkg/gf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault_SupportedDegrees(t *testing.T) {
	for w := uint(2); w <= 16; w++ {
		f, err := gf.NewDefault(w)
		require.NoError(t, err, "degree %d", w)
		assert.Equal(t, 1<<w, f.Size())
	}

	_, err := gf.NewDefault(1)
	assert.ErrorIs(t, err, gf.ErrInvalidPolynomial)
	_, err = gf.NewDefault(17)
	assert.ErrorIs(t, err, gf.ErrInvalidPolynomial)
}

func TestNew_RejectsBadPolynomials(t *testing.T) {
	// Wrong degree for w=8.
	_, err := gf.New(8, 0x13)
	assert.ErrorIs(t, err, gf.ErrInvalidPolynomial)

	// x^4+x^3+x^2+x+1 has degree 4 but x has order 5, not 15.
	_, err = gf.New(4, 0x1F)
	assert.ErrorIs(t, err, gf.ErrInvalidPolynomial)
}

// Exhaustive field laws over GF(2^4): every pair of elements.
func TestFieldLaws_GF16(t *testing.T) {
	f, err := gf.NewDefault(4)
	require.NoError(t, err)

	n := uint16(f.Size())
	for a := uint16(0); a < n; a++ {
		for b := uint16(0); b < n; b++ {
			assert.Equal(t, a^b, f.Add(a, b))
			assert.Equal(t, f.Add(a, b), f.Sub(a, b))
			assert.Equal(t, f.Mul(a, b), f.Mul(b, a))

			if a == 0 || b == 0 {
				assert.Equal(t, uint16(0), f.Mul(a, b))
				continue
			}

			// div(b, b) == 1 and mul(a, div(mul(a,b), a)) == mul(a,b)
			q, err := f.Div(b, b)
			require.NoError(t, err)
			assert.Equal(t, uint16(1), q)

			ab := f.Mul(a, b)
			q, err = f.Div(ab, a)
			require.NoError(t, err)
			assert.Equal(t, ab, f.Mul(a, q))
		}
	}
}

func TestInverse_GF256(t *testing.T) {
	f, err := gf.NewDefault(8)
	require.NoError(t, err)

	for a := uint16(1); a < uint16(f.Size()); a++ {
		inv, err := f.Inv(a)
		require.NoError(t, err)
		assert.Equal(t, uint16(1), f.Mul(a, inv), "a=%d", a)
	}

	_, err = f.Inv(0)
	assert.ErrorIs(t, err, gf.ErrDivisionByZero)
	_, err = f.Div(7, 0)
	assert.ErrorIs(t, err, gf.ErrDivisionByZero)
}

func TestMul_MatchesCarrylessReference(t *testing.T) {
	f, err := gf.NewDefault(8)
	require.NoError(t, err)

	// Shift-and-xor reference multiplication, reduced by the field polynomial.
	refMul := func(a, b uint16) uint16 {
		var acc uint32
		x, y := uint32(a), uint32(b)
		for y != 0 {
			if y&1 != 0 {
				acc ^= x
			}
			x <<= 1
			y >>= 1
		}
		for bit := 31; bit >= 8; bit-- {
			if acc&(1<<uint(bit)) != 0 {
				acc ^= f.Polynomial() << uint(bit-8)
			}
		}
		return uint16(acc)
	}

	for a := uint16(0); a < 256; a++ {
		for b := uint16(0); b < 256; b++ {
			assert.Equal(t, refMul(a, b), f.Mul(a, b), "a=%d b=%d", a, b)
		}
	}
}

func TestExp(t *testing.T) {
	f, err := gf.NewDefault(8)
	require.NoError(t, err)

	assert.Equal(t, uint16(1), f.Exp(0, 0))
	assert.Equal(t, uint16(0), f.Exp(0, 3))
	assert.Equal(t, uint16(1), f.Exp(5, 0))

	for a := uint16(1); a < 40; a++ {
		want := uint16(1)
		for n := 0; n < 10; n++ {
			assert.Equal(t, want, f.Exp(a, n), "a=%d n=%d", a, n)
			want = f.Mul(want, a)
		}
	}
}
