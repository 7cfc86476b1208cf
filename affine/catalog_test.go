package affine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ppopth/affine-cipher/field"
)

func TestCatalogDefinitions(t *testing.T) {
	f := field.MustPrimeField(31)
	catalog, err := NewCatalog(f)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     CipherName
		diagonal field.Element
		constant field.Element
	}{
		{Caesar, 1, 3},
		{Example1, 3, 27},  // -4 mod 31
		{Example2, 21, 21}, // 3 * 21 = 63 = 1 mod 31
	}
	for _, tt := range tests {
		t.Run(tt.name.String(), func(t *testing.T) {
			spec, err := catalog.Get(tt.name, 3)
			if err != nil {
				t.Fatal(err)
			}
			want := field.ScaleMatrix(field.IdentityMatrix(3, f), tt.diagonal, f)
			if !field.MatricesEqual(spec.Key.Matrix(), want) {
				t.Errorf("A = %v, want %v", spec.Key.Matrix(), want)
			}
			if !field.VectorsEqual(spec.Constant, field.ConstantVector(3, tt.constant)) {
				t.Errorf("b = %v, want all %d", spec.Constant, tt.constant)
			}
			if spec.Name != tt.name.String() {
				t.Errorf("spec name %q", spec.Name)
			}
		})
	}
}

func TestCatalogDeterminism(t *testing.T) {
	catalog, err := NewCatalog(field.MustPrimeField(31))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []CipherName{Caesar, Example1, Example2} {
		first, err := catalog.Get(name, 3)
		if err != nil {
			t.Fatal(err)
		}
		second, err := catalog.Get(name, 3)
		if err != nil {
			t.Fatal(err)
		}
		if !first.Key.Equal(second.Key) || !field.VectorsEqual(first.Constant, second.Constant) {
			t.Errorf("%s is not deterministic", name)
		}
	}
}

func TestCatalogRandom(t *testing.T) {
	f := field.MustPrimeField(31)

	noSource, err := NewCatalog(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := noSource.Get(Random, 3); !errors.Is(err, ErrNoRandomSource) {
		t.Errorf("expected ErrNoRandomSource, got %v", err)
	}

	catalog, err := NewCatalog(f, WithRandomSource(rand.New(rand.NewSource(11))), WithMaxAttempts(100))
	if err != nil {
		t.Fatal(err)
	}
	spec, err := catalog.Get(Random, 5)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Key.Size() != 5 || len(spec.Constant) != 5 {
		t.Fatalf("random spec has size %d and constant %v", spec.Key.Size(), spec.Constant)
	}
	if err := field.ValidateVector(spec.Constant, f); err != nil {
		t.Error(err)
	}
	if !field.IsInvertible(spec.Key.Matrix(), f) {
		t.Error("random catalog key is singular")
	}
}

func TestCatalogExample2NeedsInverseOfThree(t *testing.T) {
	catalog, err := NewCatalog(field.MustPrimeField(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Get(Example2, 2); !errors.Is(err, ErrInvalidOperand) {
		t.Errorf("expected ErrInvalidOperand over GF(3), got %v", err)
	}
}

func TestCatalogErrors(t *testing.T) {
	catalog, err := NewCatalog(field.MustPrimeField(31))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Lookup("vigenere", 3); !errors.Is(err, ErrUnknownCipherName) {
		t.Errorf("expected ErrUnknownCipherName, got %v", err)
	}
	if _, err := catalog.Get(CipherName(42), 3); !errors.Is(err, ErrUnknownCipherName) {
		t.Errorf("expected ErrUnknownCipherName, got %v", err)
	}
	if _, err := catalog.Get(Caesar, 0); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewCatalog(field.MustPrimeField(31), WithMaxAttempts(0)); err == nil {
		t.Error("expected error for non-positive attempt budget")
	}
}

func TestParseCipherName(t *testing.T) {
	for _, name := range CipherNames() {
		got, err := ParseCipherName(" " + name.String() + " ")
		if err != nil {
			t.Fatal(err)
		}
		if got != name {
			t.Errorf("ParseCipherName(%q) = %v", name.String(), got)
		}
	}
	if got, err := ParseCipherName("CAESAR"); err != nil || got != Caesar {
		t.Errorf("ParseCipherName(CAESAR) = %v, %v", got, err)
	}
}
