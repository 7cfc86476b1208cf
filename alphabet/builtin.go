package alphabet

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	// EnglishName selects the English alphabet
	EnglishName = "eng"
	// TurkishName selects the Turkish alphabet
	TurkishName = "tr"
)

// Character tables, indexed by field element. Both have 31 characters.
const (
	englishCharset = "-abcdefghijklmnopqrstuvwxyz.,!_"
	turkishCharset = ".abcçdefgğhıijklmnoöprsştuüvyz_"
)

var (
	english = mustBuiltin(EnglishName, englishCharset, language.English)
	turkish = mustBuiltin(TurkishName, turkishCharset, language.Turkish)
)

func mustBuiltin(name, charset string, tag language.Tag) *Alphabet {
	a, err := New(name, charset, tag)
	if err != nil {
		panic(err)
	}
	return a
}

// English returns the built-in English alphabet over GF(31)
func English() *Alphabet {
	return english
}

// Turkish returns the built-in Turkish alphabet over GF(31)
func Turkish() *Alphabet {
	return turkish
}

// ByName selects a built-in alphabet. An empty name selects English.
func ByName(name string) (*Alphabet, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EnglishName:
		return english, nil
	case TurkishName:
		return turkish, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlphabet, name)
	}
}

// Names lists the built-in alphabet selectors
func Names() []string {
	return []string{EnglishName, TurkishName}
}
