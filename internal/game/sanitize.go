package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinWordLen = 3
	MaxWordLen = 20
)

// Sanitize decomposes s, drops combining marks and everything outside A-Z,
// and upper-cases the rest. Words and guesses go through the same rule so a
// stored letter is always comparable to a fresh guess.
func Sanitize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// SanitizeWord returns the sanitized word or ErrInvalidWord when its length
// falls outside [MinWordLen, MaxWordLen].
func SanitizeWord(raw string) (string, error) {
	w := Sanitize(raw)
	if len(w) < MinWordLen || len(w) > MaxWordLen {
		return "", ErrInvalidWord
	}
	return w, nil
}

// SanitizeLetter returns the single letter raw reduces to.
func SanitizeLetter(raw string) (rune, error) {
	l := Sanitize(raw)
	if len(l) != 1 {
		return 0, ErrInvalidLetter
	}
	return rune(l[0]), nil
}
