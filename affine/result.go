package affine

import (
	"fmt"
	"strings"

	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/field"
)

// Operation is the direction of a transform
type Operation int

const (
	Encryption Operation = iota
	Decryption
)

func (op Operation) String() string {
	switch op {
	case Encryption:
		return "encrypt"
	case Decryption:
		return "decrypt"
	default:
		return fmt.Sprintf("operation(%d)", int(op))
	}
}

// ParseOperation accepts "encrypt" or "decrypt"
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encrypt", "enc", "encryption":
		return Encryption, nil
	case "decrypt", "dec", "decryption":
		return Decryption, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// Result is the outcome of one Encrypt or Decrypt call
type Result struct {
	Operation Operation
	// Input is the word after folding and optional truncation
	Input  string
	Output string

	Word        []field.Element   // encoded input
	Transformed []field.Element   // transformed vector, decodes to Output
	Matrix      [][]field.Element // A
	Inverse     [][]field.Element // A⁻¹
	Constant    []field.Element   // b

	Substitutions []alphabet.Substitution
	Truncated     bool
}

// Arrays are the raw field arrays of a result, keyed for export
type Arrays struct {
	Word      []field.Element   `json:"word_arr"`
	Lock      [][]field.Element `json:"lock"`
	Constant  []field.Element   `json:"constant"`
	Key       [][]field.Element `json:"key"`
	Encrypted []field.Element   `json:"encrypted"`
}

// Arrays returns copies of the result's arrays
func (r *Result) Arrays() Arrays {
	return Arrays{
		Word:      field.CloneVector(r.Word),
		Lock:      field.CloneMatrix(r.Matrix),
		Constant:  field.CloneVector(r.Constant),
		Key:       field.CloneMatrix(r.Inverse),
		Encrypted: field.CloneVector(r.Transformed),
	}
}

// LaTeXArrays holds the arrays rendered as bmatrix environments
type LaTeXArrays struct {
	Word      string `json:"word_arr"`
	Lock      string `json:"lock"`
	Constant  string `json:"constant"`
	Key       string `json:"key"`
	Encrypted string `json:"encrypted"`
}

// LaTeX renders the arrays; vectors become column vectors
func (r *Result) LaTeX() LaTeXArrays {
	return LaTeXArrays{
		Word:      columnLaTeX(r.Word),
		Lock:      matrixLaTeX(r.Matrix),
		Constant:  columnLaTeX(r.Constant),
		Key:       matrixLaTeX(r.Inverse),
		Encrypted: columnLaTeX(r.Transformed),
	}
}

// Spec returns the cipher that produced the result
func (r *Result) Spec(f *field.PrimeField) (CipherSpec, error) {
	key, err := NewKey(f, r.Matrix)
	if err != nil {
		return CipherSpec{}, err
	}
	return CipherSpec{Key: key, Constant: field.CloneVector(r.Constant)}, nil
}

func matrixLaTeX(M [][]field.Element) string {
	var sb strings.Builder
	sb.WriteString("\\begin{bmatrix}\n")
	for i, row := range M {
		sb.WriteString("  ")
		for j, e := range row {
			if j > 0 {
				sb.WriteString(" & ")
			}
			fmt.Fprintf(&sb, "%d", e)
		}
		if i < len(M)-1 {
			sb.WriteString(` \\`)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\\end{bmatrix}")
	return sb.String()
}

func columnLaTeX(v []field.Element) string {
	M := make([][]field.Element, len(v))
	for i, e := range v {
		M[i] = []field.Element{e}
	}
	return matrixLaTeX(M)
}
