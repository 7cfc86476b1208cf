package field

import (
	"errors"
	"fmt"
	"math"
)

// Matrix operations over finite fields

var (
	// ErrSingularMatrix is returned when a matrix has rank below its dimension.
	ErrSingularMatrix = errors.New("matrix not invertible")
	// ErrDimensionMismatch is returned when operand shapes do not agree.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// NewMatrix returns a rows×cols zero matrix
func NewMatrix(rows, cols int) [][]Element {
	M := make([][]Element, rows)
	for i := range M {
		M[i] = make([]Element, cols)
	}
	return M
}

// IdentityMatrix returns the n×n identity matrix over the field
func IdentityMatrix(n int, field *PrimeField) [][]Element {
	I := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		I[i][i] = field.One()
	}
	return I
}

// ConstantVector returns a vector of length n with every entry set to v
func ConstantVector(n int, v Element) []Element {
	vec := make([]Element, n)
	for i := range vec {
		vec[i] = v
	}
	return vec
}

// CloneMatrix returns a deep copy of A
func CloneMatrix(A [][]Element) [][]Element {
	if A == nil {
		return nil
	}
	B := make([][]Element, len(A))
	for i := range A {
		B[i] = append([]Element(nil), A[i]...)
	}
	return B
}

// CloneVector returns a copy of v
func CloneVector(v []Element) []Element {
	if v == nil {
		return nil
	}
	return append([]Element(nil), v...)
}

// MatricesEqual checks if two matrices are element-wise equal
func MatricesEqual(A, B [][]Element) bool {
	if len(A) != len(B) {
		return false
	}
	for i := range A {
		if !VectorsEqual(A[i], B[i]) {
			return false
		}
	}
	return true
}

// VectorsEqual checks if two vectors are element-wise equal
func VectorsEqual(a, b []Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ValidateVector checks that every entry of v is a field element
func ValidateVector(v []Element, field *PrimeField) error {
	for i, e := range v {
		if err := field.Check(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// ValidateMatrix checks that A is a non-empty square matrix of field elements
func ValidateMatrix(A [][]Element, field *PrimeField) error {
	n := len(A)
	if n == 0 {
		return fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	}
	for i := range A {
		if len(A[i]) != n {
			return fmt.Errorf("%w: row %d has %d entries, want %d", ErrDimensionMismatch, i, len(A[i]), n)
		}
		for j, e := range A[i] {
			if err := field.Check(e); err != nil {
				return fmt.Errorf("entry (%d,%d): %w", i, j, err)
			}
		}
	}
	return nil
}

// ScaleMatrix returns c·A
func ScaleMatrix(A [][]Element, c Element, field *PrimeField) [][]Element {
	B := NewMatrix(len(A), 0)
	for i := range A {
		B[i] = ScaleVector(A[i], c, field)
	}
	return B
}

// ScaleVector returns c·v
func ScaleVector(v []Element, c Element, field *PrimeField) []Element {
	out := make([]Element, len(v))
	for i := range v {
		out[i] = field.Mul(c, v[i])
	}
	return out
}

// VectorAdd returns a + b
func VectorAdd(a, b []Element, field *PrimeField) ([]Element, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: vectors of length %d and %d", ErrDimensionMismatch, len(a), len(b))
	}
	out := make([]Element, len(a))
	for i := range a {
		out[i] = field.Add(a[i], b[i])
	}
	return out, nil
}

// VectorSub returns a - b
func VectorSub(a, b []Element, field *PrimeField) ([]Element, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: vectors of length %d and %d", ErrDimensionMismatch, len(a), len(b))
	}
	out := make([]Element, len(a))
	for i := range a {
		out[i] = field.Sub(a[i], b[i])
	}
	return out, nil
}

// MatrixMultiply computes A × B matrix multiplication over the field
// A is m×n, B is n×p, result is m×p
func MatrixMultiply(A, B [][]Element, field *PrimeField) ([][]Element, error) {
	if len(A) == 0 || len(B) == 0 {
		return nil, nil
	}

	m := len(A)    // rows of A
	n := len(A[0]) // cols of A = rows of B
	p := len(B[0]) // cols of B

	// Verify dimensions match
	if len(B) != n {
		return nil, fmt.Errorf("%w: A is %d×%d, B is %d×%d", ErrDimensionMismatch, m, n, len(B), p)
	}

	C := NewMatrix(m, p)
	for i := range C {
		if len(A[i]) != n {
			return nil, fmt.Errorf("%w: row %d of A has %d entries", ErrDimensionMismatch, i, len(A[i]))
		}
		for j := 0; j < p; j++ {
			sum := field.Zero()
			for k := 0; k < n; k++ {
				sum = field.Add(sum, field.Mul(A[i][k], B[k][j]))
			}
			C[i][j] = sum
		}
	}
	return C, nil
}

// MatVec computes y = A·x
func MatVec(A [][]Element, x []Element, field *PrimeField) ([]Element, error) {
	y := make([]Element, len(A))
	for i := range A {
		if len(A[i]) != len(x) {
			return nil, fmt.Errorf("%w: row %d has %d entries, vector has %d", ErrDimensionMismatch, i, len(A[i]), len(x))
		}
		sum := field.Zero()
		for k := range x {
			sum = field.Add(sum, field.Mul(A[i][k], x[k]))
		}
		y[i] = sum
	}
	return y, nil
}

// Rank computes the rank of A over the field using forward elimination
func Rank(A [][]Element, field *PrimeField) (int, error) {
	n := len(A)
	if n == 0 {
		return 0, nil
	}
	m := len(A[0])
	for i := range A {
		if len(A[i]) != m {
			return 0, fmt.Errorf("%w: row %d has %d entries, want %d", ErrDimensionMismatch, i, len(A[i]), m)
		}
	}

	B := CloneMatrix(A)
	rank := 0
	for col := 0; col < m && rank < n; col++ {
		// Find pivot
		pivot := -1
		for i := rank; i < n; i++ {
			if B[i][col] != 0 {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			continue // no pivot in this column
		}

		// Swap to current rank position
		if pivot != rank {
			B[rank], B[pivot] = B[pivot], B[rank]
		}

		invPivot, err := field.Inv(B[rank][col])
		if err != nil {
			return 0, err
		}

		// Eliminate below only (forward elimination)
		for i := rank + 1; i < n; i++ {
			if B[i][col] == 0 {
				continue
			}
			factor := field.Mul(B[i][col], invPivot)
			for j := col; j < m; j++ {
				B[i][j] = field.Sub(B[i][j], field.Mul(factor, B[rank][j]))
			}
		}
		rank++
	}
	return rank, nil
}

// IsInvertible reports whether the square matrix A has full rank
func IsInvertible(A [][]Element, field *PrimeField) bool {
	if ValidateMatrix(A, field) != nil {
		return false
	}
	rank, err := Rank(A, field)
	return err == nil && rank == len(A)
}

// IsLinearlyIndependent checks if the list of field element vectors is linearly independent.
func IsLinearlyIndependent(vectors [][]Element, field *PrimeField) bool {
	n := len(vectors)
	if n == 0 {
		return true // empty set is vacuously independent
	}
	// Early exit: if more vectors than dimensions, they must be dependent
	if n > len(vectors[0]) {
		return false
	}
	rank, err := Rank(vectors, field)
	return err == nil && rank == n
}

// Determinant computes det(A) over the field by elimination
func Determinant(A [][]Element, field *PrimeField) (Element, error) {
	if err := ValidateMatrix(A, field); err != nil {
		return 0, err
	}
	n := len(A)
	B := CloneMatrix(A)
	det := field.One()
	for i := 0; i < n; i++ {
		pivot := -1
		for k := i; k < n; k++ {
			if B[k][i] != 0 {
				pivot = k
				break
			}
		}
		if pivot == -1 {
			return field.Zero(), nil
		}
		if pivot != i {
			B[i], B[pivot] = B[pivot], B[i]
			det = field.Neg(det)
		}
		det = field.Mul(det, B[i][i])

		invPivot, err := field.Inv(B[i][i])
		if err != nil {
			return 0, err
		}
		for k := i + 1; k < n; k++ {
			if B[k][i] == 0 {
				continue
			}
			factor := field.Mul(B[k][i], invPivot)
			for j := i; j < n; j++ {
				B[k][j] = field.Sub(B[k][j], field.Mul(factor, B[i][j]))
			}
		}
	}
	return det, nil
}

// InvertMatrix computes the inverse of an n x n matrix over the field using Gaussian elimination.
func InvertMatrix(A [][]Element, field *PrimeField) ([][]Element, error) {
	if err := ValidateMatrix(A, field); err != nil {
		return nil, err
	}
	n := len(A)

	// Initialize inverse matrix as identity matrix
	inv := IdentityMatrix(n, field)

	// Work on a deep copy of A
	B := CloneMatrix(A)

	// Perform Gaussian elimination with pivoting
	for i := 0; i < n; i++ {
		// Find pivot: look for a non-zero element in column i
		pivot := -1
		for k := i; k < n; k++ {
			if B[k][i] != 0 {
				pivot = k
				break
			}
		}

		// If no pivot found, the rank is below n
		if pivot == -1 {
			return nil, fmt.Errorf("%w: no pivot in column %d", ErrSingularMatrix, i)
		}

		// Swap rows if needed
		if pivot != i {
			B[i], B[pivot] = B[pivot], B[i]
			inv[i], inv[pivot] = inv[pivot], inv[i]
		}

		// Normalize the pivot row
		invPivot, err := field.Inv(B[i][i])
		if err != nil {
			return nil, err
		}
		for j := 0; j < n; j++ {
			B[i][j] = field.Mul(B[i][j], invPivot)
			inv[i][j] = field.Mul(inv[i][j], invPivot)
		}

		// Eliminate other rows
		for k := 0; k < n; k++ {
			if k == i || B[k][i] == 0 {
				continue
			}
			factor := B[k][i]
			for j := 0; j < n; j++ {
				B[k][j] = field.Sub(B[k][j], field.Mul(factor, B[i][j]))
				inv[k][j] = field.Sub(inv[k][j], field.Mul(factor, inv[i][j]))
			}
		}
	}
	return inv, nil
}

// InvertibleProbability returns the chance that a uniformly random n×n
// matrix over GF(p) is invertible: ∏_{i=0}^{n-1} (1 - p^(i-n)).
func InvertibleProbability(p uint32, n int) float64 {
	prob := 1.0
	for i := 0; i < n; i++ {
		prob *= 1 - math.Pow(float64(p), float64(i-n))
	}
	return prob
}
