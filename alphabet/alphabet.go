// Package alphabet maps text characters onto the elements of a prime field.
//
// An Alphabet is an ordered character set: the character at index i is the
// field element i, so the alphabet size is the field order and must be prime.
package alphabet

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ppopth/affine-cipher/field"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var log = logging.Logger("alphabet")

var (
	// ErrUnknownCharacter is returned when a character is not in the alphabet.
	ErrUnknownCharacter = errors.New("unknown character")
	// ErrUnknownAlphabet is returned by ByName for an unsupported name.
	ErrUnknownAlphabet = errors.New("unknown alphabet")
	// ErrOutOfRange is returned when decoding a value outside [0, p).
	ErrOutOfRange = field.ErrOutOfRange
)

// Alphabet is an immutable bijection between characters and field elements
type Alphabet struct {
	name  string
	tag   language.Tag // language used for case folding
	chars []rune       // element -> character
	index map[rune]field.Element
	field *field.PrimeField
}

// New builds an alphabet from charset, where the i-th character encodes to
// element i. The charset is NFC-normalized first; its size must be prime.
func New(name string, charset string, tag language.Tag) (*Alphabet, error) {
	chars := []rune(norm.NFC.String(charset))
	if len(chars) == 0 {
		return nil, fmt.Errorf("alphabet %q is empty", name)
	}

	index := make(map[rune]field.Element, len(chars))
	for i, c := range chars {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("alphabet %q: duplicate character %q", name, c)
		}
		index[c] = field.Element(i)
	}

	f, err := field.NewPrimeField(uint32(len(chars)))
	if err != nil {
		return nil, fmt.Errorf("alphabet %q has %d characters: %w", name, len(chars), err)
	}

	return &Alphabet{
		name:  name,
		tag:   tag,
		chars: chars,
		index: index,
		field: f,
	}, nil
}

// Name returns the alphabet's selector name
func (a *Alphabet) Name() string {
	return a.name
}

// Size returns p, the number of characters
func (a *Alphabet) Size() int {
	return len(a.chars)
}

// Field returns the prime field whose order is the alphabet size
func (a *Alphabet) Field() *field.PrimeField {
	return a.field
}

// Charset returns the characters ordered by element
func (a *Alphabet) Charset() string {
	return string(a.chars)
}

// Contains reports whether c belongs to the alphabet
func (a *Alphabet) Contains(c rune) bool {
	_, ok := a.index[c]
	return ok
}

// Encode returns the element for c
func (a *Alphabet) Encode(c rune) (field.Element, error) {
	e, ok := a.index[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q not in alphabet %q", ErrUnknownCharacter, c, a.name)
	}
	return e, nil
}

// Decode returns the character for e
func (a *Alphabet) Decode(e field.Element) (rune, error) {
	if int(e) >= len(a.chars) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, e, len(a.chars))
	}
	return a.chars[e], nil
}

// Fold trims surrounding space, composes accents and lower-cases word using
// the alphabet's language rules (so Turkish "I" folds to "ı").
func (a *Alphabet) Fold(word string) string {
	word = strings.TrimSpace(word)
	word = norm.NFC.String(word)
	// Casers carry state; build one per call
	return cases.Lower(a.tag).String(word)
}

// Substitution records an unknown character replaced under a substituting policy
type Substitution struct {
	Position int           `json:"position"`
	Char     rune          `json:"char"`
	Element  field.Element `json:"element"`
}

// EncodeWord encodes every rune of word. Characters outside the alphabet are
// handled by policy; substitutions made are returned alongside the vector.
// rng is only read under SubstituteRandom.
func (a *Alphabet) EncodeWord(word string, policy UnknownCharPolicy, rng io.Reader) ([]field.Element, []Substitution, error) {
	if err := policy.validate(a.field); err != nil {
		return nil, nil, err
	}

	vec := make([]field.Element, 0, utf8.RuneCountInString(word))
	var subs []Substitution
	pos := 0
	for _, c := range word {
		e, err := a.Encode(c)
		if err != nil {
			switch policy.Mode {
			case SubstituteRandom:
				if rng == nil {
					return nil, nil, fmt.Errorf("random substitution needs a random source: %w", err)
				}
				if e, err = a.field.Random(rng); err != nil {
					return nil, nil, fmt.Errorf("drawing substitute for %q: %w", c, err)
				}
			case SubstituteFixed:
				e = policy.Fixed
			default:
				return nil, nil, fmt.Errorf("position %d: %w", pos, err)
			}
			log.Debugf("substituted %q at position %d with element %d (%s)", c, pos, e, policy)
			subs = append(subs, Substitution{Position: pos, Char: c, Element: e})
		}
		vec = append(vec, e)
		pos++
	}
	return vec, subs, nil
}

// DecodeWord decodes a vector of elements back to text
func (a *Alphabet) DecodeWord(vec []field.Element) (string, error) {
	var sb strings.Builder
	sb.Grow(len(vec))
	for i, e := range vec {
		c, err := a.Decode(e)
		if err != nil {
			return "", fmt.Errorf("position %d: %w", i, err)
		}
		sb.WriteRune(c)
	}
	return sb.String(), nil
}

// String returns the alphabet name and size
func (a *Alphabet) String() string {
	return fmt.Sprintf("%s(%d)", a.name, len(a.chars))
}
