package field

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	// ErrNotPrime is returned when a field is requested for a composite order.
	ErrNotPrime = errors.New("field order is not prime")
	// ErrInvalidOperand is returned when an element has no multiplicative inverse.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrOutOfRange is returned when a value is not an element of the field.
	ErrOutOfRange = errors.New("value out of field range")
)

// Element is a value of a prime field, kept in [0, p) at rest.
type Element uint32

// PrimeField represents a prime finite field F_p
type PrimeField struct {
	p uint64 // the prime modulus
}

// NewPrimeField creates a new prime field of order p
func NewPrimeField(p uint32) (*PrimeField, error) {
	// ProbablyPrime is exact for values below 2^64
	if !new(big.Int).SetUint64(uint64(p)).ProbablyPrime(0) {
		return nil, fmt.Errorf("%w: %d", ErrNotPrime, p)
	}
	return &PrimeField{p: uint64(p)}, nil
}

// MustPrimeField is like NewPrimeField but panics on a composite order.
func MustPrimeField(p uint32) *PrimeField {
	f, err := NewPrimeField(p)
	if err != nil {
		panic(err)
	}
	return f
}

// Order returns the order (size) of the field, which is p for a prime field
func (f *PrimeField) Order() uint32 {
	return uint32(f.p)
}

// Zero returns the additive identity element (0)
func (f *PrimeField) Zero() Element {
	return 0
}

// One returns the multiplicative identity element (1)
func (f *PrimeField) One() Element {
	return 1
}

// Contains reports whether e is a normalized element of the field
func (f *PrimeField) Contains(e Element) bool {
	return uint64(e) < f.p
}

// Check returns ErrOutOfRange if e is not a normalized element
func (f *PrimeField) Check(e Element) error {
	if !f.Contains(e) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, e, f.p)
	}
	return nil
}

// FromInt reduces any integer, negative ones included, into the field
func (f *PrimeField) FromInt(v int64) Element {
	r := v % int64(f.p)
	if r < 0 {
		r += int64(f.p)
	}
	return Element(r)
}

// Random returns a uniformly random field element drawn from r
func (f *PrimeField) Random(r io.Reader) (Element, error) {
	val, err := rand.Int(r, new(big.Int).SetUint64(f.p))
	if err != nil {
		return 0, err
	}
	return Element(val.Uint64()), nil
}

// Add returns a + b in the field
func (f *PrimeField) Add(a, b Element) Element {
	return Element((uint64(a) + uint64(b)) % f.p)
}

// Sub returns a - b in the field
func (f *PrimeField) Sub(a, b Element) Element {
	return Element((uint64(a) + f.p - uint64(b)%f.p) % f.p)
}

// Neg returns -a in the field
func (f *PrimeField) Neg(a Element) Element {
	return f.Sub(0, a)
}

// Mul returns a * b in the field
func (f *PrimeField) Mul(a, b Element) Element {
	return Element((uint64(a) * uint64(b)) % f.p)
}

// Exp returns a^k in the field by square-and-multiply
func (f *PrimeField) Exp(a Element, k uint64) Element {
	result := uint64(1)
	base := uint64(a) % f.p
	for k > 0 {
		if k&1 == 1 {
			result = result * base % f.p
		}
		base = base * base % f.p
		k >>= 1
	}
	return Element(result)
}

// Inv returns the multiplicative inverse of a.
// Zero has no inverse and yields ErrInvalidOperand.
func (f *PrimeField) Inv(a Element) (Element, error) {
	if uint64(a)%f.p == 0 {
		return 0, fmt.Errorf("%w: %d has no inverse mod %d", ErrInvalidOperand, a, f.p)
	}
	// Extended Euclid on (a, p)
	t, newT := int64(0), int64(1)
	r, newR := int64(f.p), int64(uint64(a)%f.p)
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}
	if r != 1 {
		return 0, fmt.Errorf("%w: %d has no inverse mod %d", ErrInvalidOperand, a, f.p)
	}
	return f.FromInt(t), nil
}

// Div returns a / b in the field
func (f *PrimeField) Div(a, b Element) (Element, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return 0, err
	}
	return f.Mul(a, inv), nil
}

// Equal returns true if both fields have the same order
func (f *PrimeField) Equal(other *PrimeField) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.p == other.p
}

// String returns the conventional name of the field
func (f *PrimeField) String() string {
	return fmt.Sprintf("GF(%d)", f.p)
}
