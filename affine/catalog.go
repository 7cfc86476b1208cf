package affine

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppopth/affine-cipher/field"
)

// CipherName identifies one of the catalog's canonical ciphers
type CipherName int

const (
	// Caesar is A = I, b = 3·1: a shift by three
	Caesar CipherName = iota + 1
	// Random is a uniformly random invertible A and a random b
	Random
	// Example1 is A = 3·I, b = -4·1
	Example1
	// Example2 is A = 3⁻¹·I, b = 3⁻¹·1
	Example2
)

var cipherNames = map[CipherName]string{
	Caesar:   "caesar",
	Random:   "random",
	Example1: "example1",
	Example2: "example2",
}

func (c CipherName) String() string {
	if s, ok := cipherNames[c]; ok {
		return s
	}
	return fmt.Sprintf("cipher(%d)", int(c))
}

// ParseCipherName maps a catalog name to its CipherName
func ParseCipherName(s string) (CipherName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for name, str := range cipherNames {
		if str == s {
			return name, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCipherName, s)
}

// CipherNames lists the catalog in a stable order
func CipherNames() []CipherName {
	return []CipherName{Caesar, Random, Example1, Example2}
}

// CipherSpec pairs a key with its constant vector
type CipherSpec struct {
	Name     string
	Key      *Key
	Constant []field.Element
}

// CatalogOption configures a Catalog during construction
type CatalogOption func(*Catalog) error

// WithRandomSource sets the source the Random cipher draws from
func WithRandomSource(r io.Reader) CatalogOption {
	return func(c *Catalog) error {
		c.rng = r
		return nil
	}
}

// WithMaxAttempts bounds random key generation
func WithMaxAttempts(n int) CatalogOption {
	return func(c *Catalog) error {
		if n <= 0 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		c.maxAttempts = n
		return nil
	}
}

// Catalog produces the named canonical ciphers over a field
type Catalog struct {
	field       *field.PrimeField
	rng         io.Reader
	maxAttempts int
}

// NewCatalog creates a catalog over f. Without WithRandomSource only the
// deterministic ciphers are available.
func NewCatalog(f *field.PrimeField, opts ...CatalogOption) (*Catalog, error) {
	if f == nil {
		return nil, fmt.Errorf("catalog needs a field")
	}
	c := &Catalog{
		field:       f,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Lookup parses name and returns the cipher for word length n
func (c *Catalog) Lookup(name string, n int) (CipherSpec, error) {
	cn, err := ParseCipherName(name)
	if err != nil {
		return CipherSpec{}, err
	}
	return c.Get(cn, n)
}

// Get returns the cipher name for word length n. All names except Random
// are deterministic.
func (c *Catalog) Get(name CipherName, n int) (CipherSpec, error) {
	if n <= 0 {
		return CipherSpec{}, fmt.Errorf("%w: word length %d", ErrDimensionMismatch, n)
	}
	f := c.field

	var (
		A   [][]field.Element
		b   []field.Element
		key *Key
		err error
	)
	switch name {
	case Caesar:
		A = field.IdentityMatrix(n, f)
		b = field.ConstantVector(n, f.FromInt(3))
	case Random:
		key, err = RandomKey(f, n, c.rng, c.maxAttempts)
		if err != nil {
			return CipherSpec{}, fmt.Errorf("random cipher: %w", err)
		}
		b = make([]field.Element, n)
		for i := range b {
			if b[i], err = f.Random(c.rng); err != nil {
				return CipherSpec{}, fmt.Errorf("random cipher constant: %w", err)
			}
		}
	case Example1:
		A = field.ScaleMatrix(field.IdentityMatrix(n, f), f.FromInt(3), f)
		b = field.ConstantVector(n, f.FromInt(-4))
	case Example2:
		third, err := f.Inv(f.FromInt(3))
		if err != nil {
			return CipherSpec{}, fmt.Errorf("example2 over %s: %w", f, err)
		}
		A = field.ScaleMatrix(field.IdentityMatrix(n, f), third, f)
		b = field.ConstantVector(n, third)
	default:
		return CipherSpec{}, fmt.Errorf("%w: %s", ErrUnknownCipherName, name)
	}

	if key == nil {
		if key, err = NewKey(f, A); err != nil {
			return CipherSpec{}, fmt.Errorf("%s cipher: %w", name, err)
		}
	}
	return CipherSpec{Name: name.String(), Key: key, Constant: b}, nil
}
