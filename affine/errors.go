package affine

import (
	"errors"

	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/field"
)

var (
	// ErrTooLong is returned for words with at least as many characters as the
	// alphabet, unless truncation was enabled on the engine.
	ErrTooLong = errors.New("word too long for alphabet")
	// ErrKeyGenerationExhausted is returned when no invertible matrix was
	// drawn within the attempt budget.
	ErrKeyGenerationExhausted = errors.New("key generation exhausted")
	// ErrUnknownCipherName is returned for names outside the catalog.
	ErrUnknownCipherName = errors.New("unknown cipher name")
	// ErrNoRandomSource is returned when a random draw is needed but no
	// source was supplied.
	ErrNoRandomSource = errors.New("no random source")
)

// Errors from the lower layers, re-exported so callers only need this package.
var (
	ErrInvalidOperand    = field.ErrInvalidOperand
	ErrSingularMatrix    = field.ErrSingularMatrix
	ErrDimensionMismatch = field.ErrDimensionMismatch
	ErrOutOfRange        = field.ErrOutOfRange
	ErrUnknownCharacter  = alphabet.ErrUnknownCharacter
)
