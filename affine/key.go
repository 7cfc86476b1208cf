package affine

import (
	"fmt"
	"io"

	"github.com/ppopth/affine-cipher/field"
)

// DefaultMaxAttempts bounds the number of matrices RandomKey draws
const DefaultMaxAttempts = 10000

// Key is an invertible n×n matrix A over a prime field together with A⁻¹.
// Keys are immutable; accessors hand out copies.
type Key struct {
	field   *field.PrimeField
	matrix  [][]field.Element
	inverse [][]field.Element
}

// NewKey validates A and precomputes its inverse. A must be square, hold
// normalized elements and have full rank, otherwise ErrSingularMatrix.
func NewKey(f *field.PrimeField, A [][]field.Element) (*Key, error) {
	if f == nil {
		return nil, fmt.Errorf("key needs a field")
	}
	if err := field.ValidateMatrix(A, f); err != nil {
		return nil, fmt.Errorf("invalid key matrix: %w", err)
	}
	inv, err := field.InvertMatrix(A, f)
	if err != nil {
		return nil, fmt.Errorf("invalid key matrix: %w", err)
	}
	return &Key{
		field:   f,
		matrix:  field.CloneMatrix(A),
		inverse: inv,
	}, nil
}

// KeyFromInts reduces arbitrary integer entries into the field and builds a key
func KeyFromInts(f *field.PrimeField, rows [][]int64) (*Key, error) {
	A := make([][]field.Element, len(rows))
	for i, row := range rows {
		A[i] = make([]field.Element, len(row))
		for j, v := range row {
			A[i][j] = f.FromInt(v)
		}
	}
	return NewKey(f, A)
}

// RandomKey draws uniformly random n×n matrices from rng until one is
// invertible. At most maxAttempts matrices are drawn (DefaultMaxAttempts when
// maxAttempts <= 0); beyond that it fails with ErrKeyGenerationExhausted.
func RandomKey(f *field.PrimeField, n int, rng io.Reader, maxAttempts int) (*Key, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: key size %d", ErrDimensionMismatch, n)
	}
	if rng == nil {
		return nil, ErrNoRandomSource
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		A := field.NewMatrix(n, n)
		for i := range A {
			for j := range A[i] {
				e, err := f.Random(rng)
				if err != nil {
					return nil, fmt.Errorf("drawing key matrix: %w", err)
				}
				A[i][j] = e
			}
		}

		inv, err := field.InvertMatrix(A, f)
		if err != nil {
			log.Debugf("drawn %d×%d matrix is singular over %s, redrawing (attempt %d)", n, n, f, attempt)
			continue
		}
		if attempt > 1 {
			log.Debugf("found invertible %d×%d matrix after %d attempts", n, n, attempt)
		}
		return &Key{field: f, matrix: A, inverse: inv}, nil
	}
	return nil, fmt.Errorf("%w: no invertible %d×%d matrix over %s in %d attempts",
		ErrKeyGenerationExhausted, n, n, f, maxAttempts)
}

// Size returns n, the word length the key was sized for
func (k *Key) Size() int {
	return len(k.matrix)
}

// Field returns the field the key is defined over
func (k *Key) Field() *field.PrimeField {
	return k.field
}

// Matrix returns a copy of A
func (k *Key) Matrix() [][]field.Element {
	return field.CloneMatrix(k.matrix)
}

// Inverse returns a copy of A⁻¹
func (k *Key) Inverse() [][]field.Element {
	return field.CloneMatrix(k.inverse)
}

// Equal reports whether both keys hold the same matrix over the same field
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.field.Equal(other.field) && field.MatricesEqual(k.matrix, other.matrix)
}

func (k *Key) apply(x []field.Element) ([]field.Element, error) {
	return field.MatVec(k.matrix, x, k.field)
}

func (k *Key) applyInverse(y []field.Element) ([]field.Element, error) {
	return field.MatVec(k.inverse, y, k.field)
}

// ZeroConstant returns the zero vector of length n, the default constant
func ZeroConstant(n int) []field.Element {
	return make([]field.Element, n)
}

// ConstantFromInts reduces integer entries into the field
func ConstantFromInts(f *field.PrimeField, values []int64) []field.Element {
	b := make([]field.Element, len(values))
	for i, v := range values {
		b[i] = f.FromInt(v)
	}
	return b
}
