package alphabet

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/ppopth/affine-cipher/field"

	"golang.org/x/text/language"
)

// englishTable pins the English encoding used by the cipher fixtures
var englishTable = map[rune]field.Element{
	'-': 0, 'a': 1, 'b': 2, 'c': 3, 'd': 4, 'e': 5, 'f': 6, 'g': 7, 'h': 8,
	'i': 9, 'j': 10, 'k': 11, 'l': 12, 'm': 13, 'n': 14, 'o': 15, 'p': 16,
	'q': 17, 'r': 18, 's': 19, 't': 20, 'u': 21, 'v': 22, 'w': 23, 'x': 24,
	'y': 25, 'z': 26, '.': 27, ',': 28, '!': 29, '_': 30,
}

func TestEnglishTable(t *testing.T) {
	a := English()
	if a.Size() != 31 || a.Field().Order() != 31 {
		t.Fatalf("English alphabet size %d, field %s", a.Size(), a.Field())
	}
	for c, want := range englishTable {
		got, err := a.Encode(c)
		if err != nil {
			t.Fatalf("Encode(%q): %v", c, err)
		}
		if got != want {
			t.Errorf("Encode(%q) = %d, want %d", c, got, want)
		}
		back, err := a.Decode(got)
		if err != nil || back != c {
			t.Errorf("Decode(%d) = %q (%v), want %q", got, back, err, c)
		}
	}
}

func TestTurkishTable(t *testing.T) {
	a := Turkish()
	if a.Size() != 31 {
		t.Fatalf("Turkish alphabet size %d", a.Size())
	}
	tests := []struct {
		c    rune
		want field.Element
	}{
		{'.', 0}, {'a', 1}, {'ç', 4}, {'ğ', 9}, {'h', 10}, {'ı', 11}, {'i', 12},
		{'ö', 19}, {'ş', 23}, {'ü', 26}, {'z', 29}, {'_', 30},
	}
	for _, tt := range tests {
		got, err := a.Encode(tt.c)
		if err != nil {
			t.Fatalf("Encode(%q): %v", tt.c, err)
		}
		if got != tt.want {
			t.Errorf("Encode(%q) = %d, want %d", tt.c, got, tt.want)
		}
	}
	if a.Contains('q') || a.Contains('w') || a.Contains('x') {
		t.Error("Turkish alphabet should not contain q, w or x")
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]*Alphabet{"": English(), "eng": English(), " TR ": Turkish()} {
		got, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ByName(%q) = %s", name, got)
		}
	}
	if _, err := ByName("de"); !errors.Is(err, ErrUnknownAlphabet) {
		t.Errorf("expected ErrUnknownAlphabet, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("composite", "abcd", language.English); !errors.Is(err, field.ErrNotPrime) {
		t.Errorf("expected ErrNotPrime, got %v", err)
	}
	if _, err := New("dup", "aab", language.English); err == nil {
		t.Error("expected duplicate character error")
	}
	if _, err := New("empty", "", language.English); err == nil {
		t.Error("expected empty alphabet error")
	}
	a, err := New("abc", "abc", language.English)
	if err != nil {
		t.Fatal(err)
	}
	if a.Field().Order() != 3 || a.Charset() != "abc" {
		t.Errorf("unexpected alphabet %s %q", a, a.Charset())
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	if _, err := English().Decode(31); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := English().DecodeWord([]field.Element{1, 2, 99}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		a    *Alphabet
		in   string
		want string
	}{
		{English(), "  Hello ", "hello"},
		{English(), "CAB", "cab"},
		{Turkish(), "IŞIK", "ışık"},
		{Turkish(), "İstanbul", "istanbul"},
		// decomposed C + combining cedilla composes and folds to ç
		{Turkish(), "C\u0327", "ç"},
	}
	for _, tt := range tests {
		if got := tt.a.Fold(tt.in); got != tt.want {
			t.Errorf("%s.Fold(%q) = %q, want %q", tt.a.Name(), tt.in, got, tt.want)
		}
	}
}

func TestEncodeWordPolicies(t *testing.T) {
	a := English()

	vec, subs, err := a.EncodeWord("cab", Reject(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !field.VectorsEqual(vec, []field.Element{3, 1, 2}) || len(subs) != 0 {
		t.Errorf("EncodeWord(cab) = %v, %v", vec, subs)
	}

	if _, _, err := a.EncodeWord("c?b", Reject(), nil); !errors.Is(err, ErrUnknownCharacter) {
		t.Errorf("expected ErrUnknownCharacter, got %v", err)
	}

	vec, subs, err = a.EncodeWord("c?b", SubstituteWith(7), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !field.VectorsEqual(vec, []field.Element{3, 7, 2}) {
		t.Errorf("fixed substitution vector = %v", vec)
	}
	if len(subs) != 1 || subs[0] != (Substitution{Position: 1, Char: '?', Element: 7}) {
		t.Errorf("fixed substitution record = %+v", subs)
	}

	if _, _, err := a.EncodeWord("c?b", SubstituteWith(31), nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for bad fixed element, got %v", err)
	}

	if _, _, err := a.EncodeWord("c?b", SubstituteRandomly(), nil); !errors.Is(err, ErrUnknownCharacter) {
		t.Errorf("expected error without a random source, got %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	vec, subs, err = a.EncodeWord("??", SubstituteRandomly(), rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 || len(subs) != 2 {
		t.Fatalf("random substitution returned %v, %v", vec, subs)
	}
	for i, s := range subs {
		if s.Position != i || s.Element != vec[i] || !a.Field().Contains(s.Element) {
			t.Errorf("bad substitution record %+v for vector %v", s, vec)
		}
	}
}

func TestParseUnknownCharPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want UnknownCharPolicy
	}{
		{"", Reject()},
		{"reject", Reject()},
		{"Random", SubstituteRandomly()},
		{"fixed:12", SubstituteWith(12)},
	}
	for _, tt := range tests {
		got, err := ParseUnknownCharPolicy(tt.in)
		if err != nil {
			t.Fatalf("ParseUnknownCharPolicy(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseUnknownCharPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if round, _ := ParseUnknownCharPolicy(got.String()); round != got {
			t.Errorf("String() of %v does not parse back", got)
		}
	}
	for _, bad := range []string{"fixed:", "fixed:-1", "skip"} {
		if _, err := ParseUnknownCharPolicy(bad); err == nil {
			t.Errorf("ParseUnknownCharPolicy(%q) should fail", bad)
		}
	}
}
