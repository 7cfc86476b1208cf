package field

import (
	"errors"
	"math/rand"
	"testing"
)

// Test helper functions
func setupPrimeField() *PrimeField {
	return MustPrimeField(31)
}

func TestNewPrimeFieldRejectsComposite(t *testing.T) {
	for _, p := range []uint32{0, 1, 4, 9, 30, 100} {
		if _, err := NewPrimeField(p); !errors.Is(err, ErrNotPrime) {
			t.Errorf("NewPrimeField(%d): expected ErrNotPrime, got %v", p, err)
		}
	}
	for _, p := range []uint32{2, 3, 5, 29, 31, 101, 65537} {
		f, err := NewPrimeField(p)
		if err != nil {
			t.Fatalf("NewPrimeField(%d) failed: %v", p, err)
		}
		if f.Order() != p {
			t.Errorf("Order() = %d, want %d", f.Order(), p)
		}
	}
}

// TestPrimeFieldBasic tests basic operations
func TestPrimeFieldBasic(t *testing.T) {
	field := setupPrimeField()

	tests := []struct {
		name     string
		a, b     Element
		expected Element
		op       string
	}{
		{"add_basic", 10, 12, 22, "add"},
		{"add_with_reduction", 20, 15, 4, "add"}, // (20 + 15) % 31 = 4
		{"sub_basic", 20, 5, 15, "sub"},
		{"sub_with_reduction", 3, 10, 24, "sub"}, // (3 - 10) % 31 = 24
		{"mul_basic", 5, 6, 30, "mul"},
		{"mul_with_reduction", 7, 9, 1, "mul"}, // 63 % 31 = 1
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result Element
			switch tt.op {
			case "add":
				result = field.Add(tt.a, tt.b)
			case "sub":
				result = field.Sub(tt.a, tt.b)
			case "mul":
				result = field.Mul(tt.a, tt.b)
			default:
				t.Fatalf("unknown operation: %s", tt.op)
			}

			if result != tt.expected {
				t.Errorf("%s operation failed: %d %s %d = expected %d, got %d",
					tt.op, tt.a, tt.op, tt.b, tt.expected, result)
			}
		})
	}
}

func TestFromInt(t *testing.T) {
	field := setupPrimeField()
	tests := []struct {
		in   int64
		want Element
	}{
		{0, 0},
		{30, 30},
		{31, 0},
		{-1, 30},
		{-4, 27},
		{-62, 0},
		{100, 7},
	}
	for _, tt := range tests {
		if got := field.FromInt(tt.in); got != tt.want {
			t.Errorf("FromInt(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestPrimeFieldInversion checks a * a^(-1) = 1 for every nonzero element of several fields
func TestPrimeFieldInversion(t *testing.T) {
	for _, p := range []uint32{2, 3, 5, 7, 29, 31, 101} {
		field := MustPrimeField(p)
		for a := Element(1); uint32(a) < p; a++ {
			inv, err := field.Inv(a)
			if err != nil {
				t.Fatalf("GF(%d): Inv(%d) failed: %v", p, a, err)
			}
			if !field.Contains(inv) {
				t.Fatalf("GF(%d): Inv(%d) = %d is not normalized", p, a, inv)
			}
			if got := field.Mul(a, inv); got != field.One() {
				t.Errorf("GF(%d): %d * %d = %d, expected 1", p, a, inv, got)
			}
		}
	}
}

// TestPrimeFieldZeroInversion tests that zero inversion fails
func TestPrimeFieldZeroInversion(t *testing.T) {
	field := setupPrimeField()

	if _, err := field.Inv(field.Zero()); !errors.Is(err, ErrInvalidOperand) {
		t.Errorf("expected ErrInvalidOperand, got %v", err)
	}
	if _, err := field.Div(5, 0); !errors.Is(err, ErrInvalidOperand) {
		t.Errorf("expected ErrInvalidOperand from division by zero, got %v", err)
	}
}

func TestDivAndExp(t *testing.T) {
	field := setupPrimeField()

	third, err := field.Div(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if third != 21 { // 3 * 21 = 63 = 2*31 + 1
		t.Errorf("1/3 = %d, want 21", third)
	}

	// Fermat: a^(p-1) = 1
	for a := Element(1); a < 31; a++ {
		if got := field.Exp(a, 30); got != 1 {
			t.Errorf("%d^30 = %d, want 1", a, got)
		}
	}
	if got := field.Exp(0, 0); got != 1 {
		t.Errorf("0^0 = %d, want 1", got)
	}
}

func TestNegAndCheck(t *testing.T) {
	field := setupPrimeField()
	for a := Element(0); a < 31; a++ {
		if got := field.Add(a, field.Neg(a)); got != 0 {
			t.Errorf("%d + (-%d) = %d", a, a, got)
		}
	}
	if err := field.Check(31); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := field.Check(30); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRandomIsInRangeAndDeterministic(t *testing.T) {
	field := setupPrimeField()

	r1 := rand.New(rand.NewSource(7))
	r2 := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a, err := field.Random(r1)
		if err != nil {
			t.Fatal(err)
		}
		b, err := field.Random(r2)
		if err != nil {
			t.Fatal(err)
		}
		if !field.Contains(a) {
			t.Fatalf("random element %d out of range", a)
		}
		if a != b {
			t.Fatalf("same seed produced %d and %d", a, b)
		}
	}
}
