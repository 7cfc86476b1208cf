package alphabet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppopth/affine-cipher/field"
)

// UnknownCharMode selects what happens to characters outside the alphabet
type UnknownCharMode int

const (
	// RejectUnknown fails the encoding with ErrUnknownCharacter
	RejectUnknown UnknownCharMode = iota
	// SubstituteRandom replaces the character with a uniformly random element
	SubstituteRandom
	// SubstituteFixed replaces the character with a configured element
	SubstituteFixed
)

// UnknownCharPolicy is the caller's choice for unknown characters.
// The zero value rejects them.
type UnknownCharPolicy struct {
	Mode  UnknownCharMode
	Fixed field.Element // used by SubstituteFixed
}

// Reject returns the policy that fails on unknown characters
func Reject() UnknownCharPolicy {
	return UnknownCharPolicy{Mode: RejectUnknown}
}

// SubstituteRandomly returns the policy that draws a random element
func SubstituteRandomly() UnknownCharPolicy {
	return UnknownCharPolicy{Mode: SubstituteRandom}
}

// SubstituteWith returns the policy that always substitutes e
func SubstituteWith(e field.Element) UnknownCharPolicy {
	return UnknownCharPolicy{Mode: SubstituteFixed, Fixed: e}
}

// ParseUnknownCharPolicy parses "reject", "random" or "fixed:<element>"
func ParseUnknownCharPolicy(s string) (UnknownCharPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "reject":
		return Reject(), nil
	case s == "random":
		return SubstituteRandomly(), nil
	case strings.HasPrefix(s, "fixed:"):
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "fixed:"), 10, 32)
		if err != nil {
			return UnknownCharPolicy{}, fmt.Errorf("invalid fixed element in %q: %w", s, err)
		}
		return SubstituteWith(field.Element(v)), nil
	default:
		return UnknownCharPolicy{}, fmt.Errorf("unknown character policy %q", s)
	}
}

func (p UnknownCharPolicy) validate(f *field.PrimeField) error {
	switch p.Mode {
	case RejectUnknown, SubstituteRandom:
		return nil
	case SubstituteFixed:
		if err := f.Check(p.Fixed); err != nil {
			return fmt.Errorf("fixed substitute: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported unknown character mode: %d", p.Mode)
	}
}

func (p UnknownCharPolicy) String() string {
	switch p.Mode {
	case RejectUnknown:
		return "reject"
	case SubstituteRandom:
		return "random"
	case SubstituteFixed:
		return fmt.Sprintf("fixed:%d", p.Fixed)
	default:
		return fmt.Sprintf("mode(%d)", int(p.Mode))
	}
}
