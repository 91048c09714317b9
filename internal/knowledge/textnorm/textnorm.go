// Package textnorm holds the small string helpers shared by the router,
// the extractor and the geo resolver.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics: "Réunion" -> "reunion".
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Slug turns a city name into the path segment used by campus pages:
// "La Réunion" -> "la-reunion", "Saint-Andre d’Ile" -> "saint-andre-dile".
func Slug(s string) string {
	s = Fold(s)
	s = strings.NewReplacer("’", "", "'", "").Replace(s)
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
}

// NormalizeApostrophes maps typographic apostrophes to ASCII.
func NormalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'").Replace(s)
}

// ContainsWord reports whether word occurs in text delimited by non-letters
// on both sides. Comparison is case-insensitive; diacritics must match.
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	lt, lw := strings.ToLower(text), strings.ToLower(word)
	for start := 0; start <= len(lt)-len(lw); {
		i := strings.Index(lt[start:], lw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(lw)
		if !letterBefore(lt, i) && !letterAfter(lt, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(lt[i:])
		start = i + size
	}
	return false
}

// HasWordPrefix reports whether some word of text starts with prefix,
// case-insensitively: "formations" matches "formation", "information" does not.
func HasWordPrefix(text, prefix string) bool {
	if prefix == "" {
		return false
	}
	lt, lp := strings.ToLower(text), strings.ToLower(prefix)
	for start := 0; start <= len(lt)-len(lp); {
		i := strings.Index(lt[start:], lp)
		if i < 0 {
			return false
		}
		i += start
		if !letterBefore(lt, i) {
			return true
		}
		_, size := utf8.DecodeRuneInString(lt[i:])
		start = i + size
	}
	return false
}

// WordBounded reports whether s[i:j] is delimited by non-letters on both
// sides.
func WordBounded(s string, i, j int) bool {
	return !letterBefore(s, i) && !letterAfter(s, j)
}

func letterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func letterAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IndexFold returns the rune offset of the first case-insensitive occurrence
// of sub in s, or -1.
func IndexFold(s, sub string) int {
	hay, needle := lowerRunes(s), lowerRunes(sub)
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for k, r := range needle {
			if hay[i+k] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

// TruncateRunes returns at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// CollapseSpaces replaces every whitespace run with a single space and trims.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TitleWords upper-cases the first rune of every space-separated word.
func TitleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
