package service

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/ppopth/affine-cipher/affine"
	"github.com/ppopth/affine-cipher/alphabet"
	"github.com/ppopth/affine-cipher/pb"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New(WithRandomSource(rand.New(rand.NewSource(3))))
	require.NoError(t, err)
	return s
}

func TestProcessCaesar(t *testing.T) {
	s := newTestService(t)
	out, err := s.Process(&pb.CipherRequest{Op: "encrypt", Word: "ABC", Cipher: "caesar"})
	require.NoError(t, err)
	require.Equal(t, "abc", out.Result.Input)
	require.Equal(t, "def", out.Result.Output)
	require.Equal(t, alphabet.EnglishName, out.Alphabet.Name())
	require.Equal(t, "caesar", out.Spec.Name)
	require.NotNil(t, out.KeyFile)
}

func TestDefaultCipher(t *testing.T) {
	s := newTestService(t)
	resp := s.Handle(&pb.CipherRequest{Op: "encrypt", Word: "abc"})
	require.Empty(t, resp.Error)
	require.Equal(t, "def", resp.Output)
}

func TestRandomRoundTripThroughKeyFile(t *testing.T) {
	s := newTestService(t)
	for _, name := range alphabet.Names() {
		enc := s.Handle(&pb.CipherRequest{Op: "encrypt", Alphabet: name, Word: "kalem", Cipher: "random"})
		require.Empty(t, enc.Error, name)
		require.EqualValues(t, 5, enc.Size)
		require.Len(t, enc.Lock, 25)
		require.Len(t, enc.Key, 25)
		require.NotEmpty(t, enc.KeyFile)

		dec := s.Handle(&pb.CipherRequest{Op: "decrypt", Alphabet: name, Word: enc.Output, KeyFile: enc.KeyFile})
		require.Empty(t, dec.Error, name)
		require.Equal(t, "kalem", dec.Output)
		require.Equal(t, enc.Encrypted, dec.Word)
		require.Equal(t, enc.Word, dec.Encrypted)
	}
}

func TestKeyFileForOtherAlphabet(t *testing.T) {
	s := newTestService(t)
	enc := s.Handle(&pb.CipherRequest{Op: "encrypt", Word: "abc", Cipher: "example1"})
	require.Empty(t, enc.Error)

	dec := s.Handle(&pb.CipherRequest{Op: "decrypt", Alphabet: alphabet.TurkishName, Word: "abc", KeyFile: enc.KeyFile})
	require.NotEmpty(t, dec.Error)
}

func TestTooLong(t *testing.T) {
	s := newTestService(t)
	word := strings.Repeat("a", 31)

	_, err := s.Process(&pb.CipherRequest{Op: "encrypt", Word: word, Cipher: "random"})
	require.ErrorIs(t, err, affine.ErrTooLong)

	out, err := s.Process(&pb.CipherRequest{Op: "encrypt", Word: word, Cipher: "random", Truncate: true})
	require.NoError(t, err)
	require.True(t, out.Result.Truncated)
	require.Len(t, out.Result.Word, 30)
}

func TestUnknownCharacters(t *testing.T) {
	s := newTestService(t)

	_, err := s.Process(&pb.CipherRequest{Op: "encrypt", Word: "a?c", Cipher: "caesar"})
	require.ErrorIs(t, err, alphabet.ErrUnknownCharacter)

	out, err := s.Process(&pb.CipherRequest{Op: "encrypt", Word: "a?c", Cipher: "caesar", UnknownPolicy: "fixed:0"})
	require.NoError(t, err)
	require.Equal(t, "dcf", out.Result.Output) // substitute 0 shifts to 3
	require.Len(t, out.Result.Substitutions, 1)

	resp := s.Handle(&pb.CipherRequest{Op: "encrypt", Word: "a?c", Cipher: "caesar", UnknownPolicy: "random"})
	require.Empty(t, resp.Error)
	require.EqualValues(t, 1, resp.Substitutions)
}

func TestBadRequests(t *testing.T) {
	s := newTestService(t)
	tests := []struct {
		name string
		req  *pb.CipherRequest
		err  error
	}{
		{"alphabet", &pb.CipherRequest{Op: "encrypt", Alphabet: "klingon", Word: "abc"}, alphabet.ErrUnknownAlphabet},
		{"cipher", &pb.CipherRequest{Op: "encrypt", Word: "abc", Cipher: "vigenere"}, affine.ErrUnknownCipherName},
		{"empty word", &pb.CipherRequest{Op: "encrypt", Cipher: "caesar"}, affine.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Process(tt.req)
			require.ErrorIs(t, err, tt.err)
		})
	}

	_, err := s.Process(&pb.CipherRequest{Op: "sign", Word: "abc"})
	require.Error(t, err)
	_, err = s.Process(&pb.CipherRequest{Op: "encrypt", Word: "abc", KeyFile: []byte{1, 2, 3}})
	require.Error(t, err)
	_, err = s.Process(nil)
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	_, err := New(WithRandomSource(nil))
	require.Error(t, err)
	_, err = New(WithMaxAttempts(0))
	require.Error(t, err)

	s, err := New()
	require.NoError(t, err)
	resp := s.Handle(&pb.CipherRequest{Op: "encrypt", Word: "abc", Cipher: "random"})
	require.Empty(t, resp.Error)
}
