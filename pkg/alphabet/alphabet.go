/*
Package alphabet defines the letters of a language and their case pairs.

An alphabet file holds one entry per line:

	Aa    uppercase then lowercase: A is upper, a is lower, A is an upper variant of a
	#AZ   interval: every char from A to Z is both upper and lower of itself
	ก     single char with no case distinction (Thai and similar scripts)

Dictionary matching is case-asymmetric: a lowercase dictionary letter accepts
any of its uppercase variants in the text, an uppercase dictionary letter only
accepts itself.
*/
package alphabet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/bastiangx/dicoserve/pkg/textio"
)

// ErrInvalidAlphabet is returned for malformed alphabet files.
var ErrInvalidAlphabet = errors.New("invalid alphabet")

const (
	flagUpper uint8 = 1 << iota
	flagLower
)

// Alphabet maps letters to their case flags and uppercase variants.
type Alphabet struct {
	flags  map[rune]uint8
	uppers map[rune][]rune
	// fallback answers from the unicode tables when no file was loaded.
	fallback bool
}

// New returns an empty alphabet.
func New() *Alphabet {
	return &Alphabet{
		flags:  make(map[rune]uint8),
		uppers: make(map[rune][]rune),
	}
}

// Unicode returns an alphabet backed by the unicode letter and case tables,
// for lookups where no language alphabet is available.
func Unicode() *Alphabet {
	a := New()
	a.fallback = true
	return a
}

// Load reads an alphabet file.
func Load(path string, enc textio.Encoding) (*Alphabet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alphabet %s: %w", path, err)
	}
	defer f.Close()
	a, err := Parse(textio.NewReader(f, enc))
	if err != nil {
		return nil, fmt.Errorf("alphabet %s: %w", path, err)
	}
	return a, nil
}

// Parse reads alphabet entries from decoded text.
func Parse(r io.Reader) (*Alphabet, error) {
	lines, err := textio.ScanLines(r)
	if err != nil {
		return nil, err
	}
	a := New()
	for n, line := range lines {
		runes := []rune(line)
		switch {
		case len(runes) == 0:
			continue
		case runes[0] == '#' && len(runes) >= 3:
			lo, hi := runes[1], runes[2]
			if lo > hi {
				return nil, fmt.Errorf("%w: line %d: interval %c-%c is reversed", ErrInvalidAlphabet, n+1, lo, hi)
			}
			for c := lo; c <= hi; c++ {
				a.AddPair(c, c)
			}
		case len(runes) == 1:
			a.AddPair(runes[0], runes[0])
		default:
			a.AddPair(runes[0], runes[1])
		}
	}
	return a, nil
}

// AddPair declares upper as an uppercase variant of lower.
func (a *Alphabet) AddPair(upper, lower rune) {
	a.flags[upper] |= flagUpper
	a.flags[lower] |= flagLower
	for _, u := range a.uppers[lower] {
		if u == upper {
			return
		}
	}
	a.uppers[lower] = append(a.uppers[lower], upper)
}

// IsUpper reports whether c is declared as an uppercase letter.
func (a *Alphabet) IsUpper(c rune) bool {
	if a.fallback {
		return unicode.IsUpper(c) || (unicode.IsLetter(c) && !unicode.IsLower(c))
	}
	return a.flags[c]&flagUpper != 0
}

// IsLower reports whether c is declared as a lowercase letter.
func (a *Alphabet) IsLower(c rune) bool {
	if a.fallback {
		return unicode.IsLower(c) || (unicode.IsLetter(c) && !unicode.IsUpper(c))
	}
	return a.flags[c]&flagLower != 0
}

// IsLetter reports whether c belongs to the alphabet.
func (a *Alphabet) IsLetter(c rune) bool {
	return a.IsUpper(c) || a.IsLower(c)
}

// IsUpperOf reports whether upper is an uppercase variant of lower.
func (a *Alphabet) IsUpperOf(lower, upper rune) bool {
	if a.fallback {
		return unicode.IsLetter(lower) && (upper == lower || unicode.ToUpper(lower) == upper || unicode.ToTitle(lower) == upper)
	}
	for _, u := range a.uppers[lower] {
		if u == upper {
			return true
		}
	}
	return false
}

// Matches is the dictionary-to-text letter test: the text char must equal
// the dictionary char or be one of its uppercase variants.
func (a *Alphabet) Matches(dic, text rune) bool {
	return dic == text || a.IsUpperOf(dic, text)
}

// IsSequenceOfLetters reports whether s is non-empty and made of letters only.
func (a *Alphabet) IsSequenceOfLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !a.IsLetter(c) {
			return false
		}
	}
	return true
}

// StartsWithLetter reports whether the first char of s is a letter.
func (a *Alphabet) StartsWithLetter(s string) bool {
	for _, c := range s {
		return a.IsLetter(c)
	}
	return false
}

// Tokenize splits s word by word: every maximal run of letters is a token and
// every other char is a token of its own.
func (a *Alphabet) Tokenize(s string) []string {
	var out []string
	start := -1
	for i, c := range s {
		if a.IsLetter(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
		out = append(out, string(c))
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// Len returns the number of declared letters.
func (a *Alphabet) Len() int {
	return len(a.flags)
}
