// Package keyfile persists cipher keys.
//
// A key file holds exactly the arrays A (row-major) and b plus the alphabet
// they were made for, a format version and a BLAKE3 checksum over the rest of
// the message. The checksum detects corruption; it is not an authenticator.
package keyfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ppopth/affine-cipher/affine"
	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/field"

	"github.com/gogo/protobuf/proto"
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"
	"lukechampine.com/blake3"
)

var log = logging.Logger("keyfile")

// Version is the current key file format version
const Version = 1

// Extension is appended to key file names that lack it
const Extension = ".key"

var (
	// ErrUnsupportedVersion is returned for files written by another format version.
	ErrUnsupportedVersion = errors.New("unsupported key file version")
	// ErrChecksumMismatch is returned when the stored checksum does not match.
	ErrChecksumMismatch = errors.New("key file checksum mismatch")
	// ErrMalformed is returned when the arrays do not describe a valid key.
	ErrMalformed = errors.New("malformed key file")
)

// KeyFile is the persisted form of a cipher
type KeyFile struct {
	Version  uint32   `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	Alphabet string   `protobuf:"bytes,2,opt,name=alphabet,proto3" json:"alphabet,omitempty"`
	Order    uint32   `protobuf:"varint,3,opt,name=order,proto3" json:"order,omitempty"`
	Size     uint32   `protobuf:"varint,4,opt,name=size,proto3" json:"size,omitempty"`
	Matrix   []uint32 `protobuf:"varint,5,rep,packed,name=matrix,proto3" json:"matrix,omitempty"`
	Constant []uint32 `protobuf:"varint,6,rep,packed,name=constant,proto3" json:"constant,omitempty"`
	Checksum []byte   `protobuf:"bytes,7,opt,name=checksum,proto3" json:"checksum,omitempty"`
}

func (m *KeyFile) Reset()         { *m = KeyFile{} }
func (m *KeyFile) String() string { return proto.CompactTextString(m) }
func (*KeyFile) ProtoMessage()    {}

// New captures spec for the named alphabet and seals the result
func New(alphabetName string, spec affine.CipherSpec) (*KeyFile, error) {
	if spec.Key == nil {
		return nil, fmt.Errorf("%w: nil key", ErrMalformed)
	}
	n := spec.Key.Size()
	constant := spec.Constant
	if constant == nil {
		constant = affine.ZeroConstant(n)
	}
	if len(constant) != n {
		return nil, fmt.Errorf("%w: constant has %d entries, key is %d×%d", ErrMalformed, len(constant), n, n)
	}

	kf := &KeyFile{
		Version:  Version,
		Alphabet: alphabetName,
		Order:    spec.Key.Field().Order(),
		Size:     uint32(n),
		Matrix:   make([]uint32, 0, n*n),
		Constant: make([]uint32, 0, n),
	}
	for _, row := range spec.Key.Matrix() {
		for _, e := range row {
			kf.Matrix = append(kf.Matrix, uint32(e))
		}
	}
	for _, e := range constant {
		kf.Constant = append(kf.Constant, uint32(e))
	}
	if err := kf.Seal(); err != nil {
		return nil, err
	}
	return kf, nil
}

// Seal computes and stores the checksum
func (m *KeyFile) Seal() error {
	sum, err := m.digest()
	if err != nil {
		return err
	}
	m.Checksum = sum
	return nil
}

// Verify checks version and checksum
func (m *KeyFile) Verify() error {
	if m.Version != Version {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, m.Version, Version)
	}
	sum, err := m.digest()
	if err != nil {
		return err
	}
	if !bytes.Equal(sum, m.Checksum) {
		return ErrChecksumMismatch
	}
	return nil
}

// digest hashes the message encoded with an empty checksum
func (m *KeyFile) digest() ([]byte, error) {
	unsealed := *m
	unsealed.Checksum = nil
	data, err := proto.Marshal(&unsealed)
	if err != nil {
		return nil, err
	}
	sum := blake3.Sum256(data)
	return sum[:], nil
}

// Validate reports every structural problem of the arrays at once
func (m *KeyFile) Validate() error {
	var errs error
	f, err := field.NewPrimeField(m.Order)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	n := int(m.Size)
	if n == 0 {
		errs = multierr.Append(errs, fmt.Errorf("key size is zero"))
	}
	if len(m.Matrix) != n*n {
		errs = multierr.Append(errs, fmt.Errorf("matrix has %d entries, want %d", len(m.Matrix), n*n))
	}
	if len(m.Constant) != n {
		errs = multierr.Append(errs, fmt.Errorf("constant has %d entries, want %d", len(m.Constant), n))
	}
	if f != nil {
		for i, v := range m.Matrix {
			if !f.Contains(field.Element(v)) {
				errs = multierr.Append(errs, fmt.Errorf("matrix entry %d: %w", i, field.ErrOutOfRange))
			}
		}
		for i, v := range m.Constant {
			if !f.Contains(field.Element(v)) {
				errs = multierr.Append(errs, fmt.Errorf("constant entry %d: %w", i, field.ErrOutOfRange))
			}
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, errs)
	}
	return nil
}

// Spec rebuilds the cipher. The key matrix must still be invertible.
func (m *KeyFile) Spec() (affine.CipherSpec, error) {
	if err := m.Validate(); err != nil {
		return affine.CipherSpec{}, err
	}
	f, err := field.NewPrimeField(m.Order)
	if err != nil {
		return affine.CipherSpec{}, err
	}
	n := int(m.Size)
	A := field.NewMatrix(n, n)
	for i := range A {
		for j := range A[i] {
			A[i][j] = field.Element(m.Matrix[i*n+j])
		}
	}
	key, err := affine.NewKey(f, A)
	if err != nil {
		return affine.CipherSpec{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	b := make([]field.Element, n)
	for i, v := range m.Constant {
		b[i] = field.Element(v)
	}
	return affine.CipherSpec{Name: "key", Key: key, Constant: b}, nil
}

// SpecFor rebuilds the cipher and checks it was made for a
func (m *KeyFile) SpecFor(a *alphabet.Alphabet) (affine.CipherSpec, error) {
	if m.Alphabet != "" && m.Alphabet != a.Name() {
		return affine.CipherSpec{}, fmt.Errorf("%w: key made for alphabet %q, not %q", ErrMalformed, m.Alphabet, a.Name())
	}
	if m.Order != a.Field().Order() {
		return affine.CipherSpec{}, fmt.Errorf("%w: key over GF(%d), alphabet %q over %s",
			affine.ErrDimensionMismatch, m.Order, a.Name(), a.Field())
	}
	return m.Spec()
}

// Marshal encodes a sealed key file
func Marshal(m *KeyFile) ([]byte, error) {
	if len(m.Checksum) == 0 {
		if err := m.Seal(); err != nil {
			return nil, err
		}
	}
	return proto.Marshal(m)
}

// Unmarshal decodes data and verifies version and checksum
func Unmarshal(data []byte) (*KeyFile, error) {
	m := &KeyFile{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := m.Verify(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes spec to path
func Save(path string, alphabetName string, spec affine.CipherSpec) (*KeyFile, error) {
	m, err := New(alphabetName, spec)
	if err != nil {
		return nil, err
	}
	data, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	log.Debugf("saved %d×%d key for alphabet %q to %s", m.Size, m.Size, alphabetName, path)
	return m, nil
}

// Load reads and verifies the key file at path
func Load(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, nil
}
