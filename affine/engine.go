// Package affine implements the affine (Hill style) cipher y = A·x + b over
// the prime field of an alphabet, with decryption x = A⁻¹·(y - b).
package affine

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/field"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("affine")

// Option configures an Engine during construction
type Option func(*Engine) error

// WithUnknownCharPolicy sets how characters outside the alphabet are treated
func WithUnknownCharPolicy(policy alphabet.UnknownCharPolicy) Option {
	return func(e *Engine) error {
		e.policy = policy
		return nil
	}
}

// WithTruncation opts in to cutting over-long words to Size()-1 characters
// instead of failing with ErrTooLong
func WithTruncation(enabled bool) Option {
	return func(e *Engine) error {
		e.truncate = enabled
		return nil
	}
}

// WithRandom sets the source used by alphabet.SubstituteRandom. The engine
// may be shared between goroutines only if r is safe for concurrent use.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) error {
		e.rng = r
		return nil
	}
}

// Engine encrypts and decrypts words over a bound alphabet. It holds no
// mutable state; every call depends only on its arguments.
type Engine struct {
	alphabet *alphabet.Alphabet
	field    *field.PrimeField

	policy   alphabet.UnknownCharPolicy
	truncate bool
	rng      io.Reader
}

// NewEngine binds an engine to a and applies options
func NewEngine(a *alphabet.Alphabet, opts ...Option) (*Engine, error) {
	if a == nil {
		return nil, fmt.Errorf("engine needs an alphabet")
	}
	e := &Engine{
		alphabet: a,
		field:    a.Field(),
		policy:   alphabet.Reject(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.policy.Mode == alphabet.SubstituteRandom && e.rng == nil {
		return nil, fmt.Errorf("random substitution policy: %w", ErrNoRandomSource)
	}
	return e, nil
}

// Alphabet returns the bound alphabet
func (e *Engine) Alphabet() *alphabet.Alphabet {
	return e.alphabet
}

// Field returns the field of the bound alphabet
func (e *Engine) Field() *field.PrimeField {
	return e.field
}

// Encrypt computes y = A·x + b for the encoded word x. A nil constant is the
// zero vector.
func (e *Engine) Encrypt(word string, key *Key, constant []field.Element) (*Result, error) {
	res, x, b, err := e.prepare(Encryption, word, key, constant)
	if err != nil {
		return nil, err
	}

	y, err := key.apply(x)
	if err != nil {
		return nil, err
	}
	if y, err = field.VectorAdd(y, b, e.field); err != nil {
		return nil, err
	}
	return e.finish(res, y)
}

// Decrypt computes x = A⁻¹·(y - b) for the encoded word y
func (e *Engine) Decrypt(word string, key *Key, constant []field.Element) (*Result, error) {
	res, y, b, err := e.prepare(Decryption, word, key, constant)
	if err != nil {
		return nil, err
	}

	shifted, err := field.VectorSub(y, b, e.field)
	if err != nil {
		return nil, err
	}
	x, err := key.applyInverse(shifted)
	if err != nil {
		return nil, err
	}
	return e.finish(res, x)
}

// EncryptSpec encrypts word with a catalog or loaded cipher
func (e *Engine) EncryptSpec(word string, spec CipherSpec) (*Result, error) {
	return e.Encrypt(word, spec.Key, spec.Constant)
}

// DecryptSpec decrypts word with a catalog or loaded cipher
func (e *Engine) DecryptSpec(word string, spec CipherSpec) (*Result, error) {
	return e.Decrypt(word, spec.Key, spec.Constant)
}

// Apply runs op on word
func (e *Engine) Apply(op Operation, word string, spec CipherSpec) (*Result, error) {
	switch op {
	case Encryption:
		return e.EncryptSpec(word, spec)
	case Decryption:
		return e.DecryptSpec(word, spec)
	default:
		return nil, fmt.Errorf("unsupported operation: %d", op)
	}
}

// prepare folds and checks the word, validates key and constant, and encodes
// the word. Nothing is computed unless every check passes.
func (e *Engine) prepare(op Operation, word string, key *Key, constant []field.Element) (*Result, []field.Element, []field.Element, error) {
	if key == nil {
		return nil, nil, nil, fmt.Errorf("%s: nil key", op)
	}
	if !key.Field().Equal(e.field) {
		return nil, nil, nil, fmt.Errorf("%w: key over %s, alphabet %s over %s",
			ErrDimensionMismatch, key.Field(), e.alphabet.Name(), e.field)
	}

	word = e.alphabet.Fold(word)
	truncated := false
	if n := utf8.RuneCountInString(word); n >= e.alphabet.Size() {
		if !e.truncate {
			return nil, nil, nil, fmt.Errorf("%w: %d characters, alphabet %q has %d",
				ErrTooLong, n, e.alphabet.Name(), e.alphabet.Size())
		}
		word = string([]rune(word)[:e.alphabet.Size()-1])
		truncated = true
		log.Debugf("truncated %d-character word to %d characters", n, e.alphabet.Size()-1)
	}

	n := utf8.RuneCountInString(word)
	if n != key.Size() {
		return nil, nil, nil, fmt.Errorf("%w: word has %d characters, key is %d×%d",
			ErrDimensionMismatch, n, key.Size(), key.Size())
	}

	if constant == nil {
		constant = ZeroConstant(n)
	}
	if len(constant) != n {
		return nil, nil, nil, fmt.Errorf("%w: constant has %d entries, word has %d",
			ErrDimensionMismatch, len(constant), n)
	}
	if err := field.ValidateVector(constant, e.field); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid constant: %w", err)
	}

	vec, subs, err := e.alphabet.EncodeWord(word, e.policy, e.rng)
	if err != nil {
		return nil, nil, nil, err
	}

	res := &Result{
		Operation:     op,
		Input:         word,
		Word:          vec,
		Matrix:        key.Matrix(),
		Inverse:       key.Inverse(),
		Constant:      field.CloneVector(constant),
		Substitutions: subs,
		Truncated:     truncated,
	}
	return res, vec, constant, nil
}

func (e *Engine) finish(res *Result, out []field.Element) (*Result, error) {
	text, err := e.alphabet.DecodeWord(out)
	if err != nil {
		return nil, err
	}
	res.Transformed = out
	res.Output = text
	return res, nil
}
