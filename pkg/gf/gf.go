// Package gf implements arithmetic over the Galois fields GF(2^w) used by
// the RAID6 coding engine. Addition is bitwise xor; multiplication is
// polynomial multiplication modulo an irreducible polynomial, served from
// log/antilog tables built once at construction.
package gf

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionByZero is returned by Div and Inv for a zero divisor.
	ErrDivisionByZero = errors.New("gf: division by zero")
	// ErrInvalidPolynomial is returned by New when the reduction polynomial
	// does not generate the full multiplicative group.
	ErrInvalidPolynomial = errors.New("gf: invalid field polynomial")
)

// defaultPolynomials maps a field degree to a standard primitive polynomial
// of that degree. The w=8 entry is x^8+x^4+x^3+x^2+1.
var defaultPolynomials = map[uint]uint32{
	2:  0x7,
	3:  0xB,
	4:  0x13,
	5:  0x25,
	6:  0x43,
	7:  0x89,
	8:  0x11D,
	9:  0x211,
	10: 0x409,
	11: 0x805,
	12: 0x1053,
	13: 0x201B,
	14: 0x4443,
	15: 0x8003,
	16: 0x1100B,
}

// Field holds the immutable lookup tables for one GF(2^w) instance. A Field
// is safe for concurrent use once constructed.
type Field struct {
	w    uint
	poly uint32
	ord  int // 2^w - 1, order of the multiplicative group

	log []uint16 // log[a] for a in [1, 2^w)
	exp []uint16 // antilog table, doubled so Mul needs no reduction
}

// New builds a field of degree w reduced by poly. The polynomial must have
// degree exactly w and x must generate the multiplicative group, which holds
// for every entry in the default set.
func New(w uint, poly uint32) (*Field, error) {
	if w < 2 || w > 16 {
		return nil, fmt.Errorf("%w: degree %d out of range [2,16]", ErrInvalidPolynomial, w)
	}
	if poly>>w != 1 {
		return nil, fmt.Errorf("%w: 0x%X has wrong degree for GF(2^%d)", ErrInvalidPolynomial, poly, w)
	}

	size := 1 << w
	f := &Field{
		w:    w,
		poly: poly,
		ord:  size - 1,
		log:  make([]uint16, size),
		exp:  make([]uint16, 2*(size-1)),
	}

	b := uint32(1)
	for i := 0; i < f.ord; i++ {
		if b == 1 && i != 0 {
			// x closed its cycle early, so poly is not primitive and the
			// tables would be ambiguous.
			return nil, fmt.Errorf("%w: 0x%X is not primitive", ErrInvalidPolynomial, poly)
		}
		f.exp[i] = uint16(b)
		f.exp[i+f.ord] = uint16(b)
		f.log[b] = uint16(i)
		b <<= 1
		if b&uint32(size) != 0 {
			b ^= poly
		}
	}
	if b != 1 {
		return nil, fmt.Errorf("%w: 0x%X is not primitive", ErrInvalidPolynomial, poly)
	}
	return f, nil
}

// NewDefault builds a field of degree w with the standard polynomial for
// that degree.
func NewDefault(w uint) (*Field, error) {
	poly, ok := defaultPolynomials[w]
	if !ok {
		return nil, fmt.Errorf("%w: no default polynomial for degree %d", ErrInvalidPolynomial, w)
	}
	return New(w, poly)
}

// Degree returns the field degree w.
func (f *Field) Degree() uint { return f.w }

// Size returns the number of field elements, 2^w.
func (f *Field) Size() int { return f.ord + 1 }

// Polynomial returns the reduction polynomial.
func (f *Field) Polynomial() uint32 { return f.poly }

// Add returns a + b.
func (f *Field) Add(a, b uint16) uint16 { return a ^ b }

// Sub returns a - b, which equals Add in characteristic 2.
func (f *Field) Sub(a, b uint16) uint16 { return a ^ b }

// Mul returns a * b.
func (f *Field) Mul(a, b uint16) uint16 {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[int(f.log[a])+int(f.log[b])]
}

// Div returns a / b, or ErrDivisionByZero when b is zero.
func (f *Field) Div(a, b uint16) (uint16, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return f.exp[int(f.log[a])+f.ord-int(f.log[b])], nil
}

// Inv returns the multiplicative inverse of a, or ErrDivisionByZero when a
// is zero.
func (f *Field) Inv(a uint16) (uint16, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return f.exp[f.ord-int(f.log[a])], nil
}

// Exp returns a raised to the n-th power. Exp(0, 0) is 1 by convention.
func (f *Field) Exp(a uint16, n int) uint16 {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	e := (int(f.log[a]) * n) % f.ord
	if e < 0 {
		e += f.ord
	}
	return f.exp[e]
}
