package extract

import (
	"regexp"
	"strings"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

// CanonicalValuesSentence is the one sentence the values page states. It is
// returned only when the page carries it.
const CanonicalValuesSentence = "Chez Epitech, nous croyons en nos valeurs, que sont l'excellence, le courage et la solidarité."

const valuesWindowRunes = 600

var (
	valuesSentenceRe = regexp.MustCompile(`(?i)Chez\s+Epitech,\s+nous\s+croyons\s+en\s+nos\s+valeurs,\s+que\s+sont\s+l'excellence,\s+le\s+courage\s+et\s+la\s+solidarit[eé]\.`)
	valueWords       = []string{"excellence", "courage", "solidarit"}
	canonicalValues  = []string{"excellence", "courage", "solidarité"}
)

// Values looks for the values sentence, first verbatim then as the three
// value words close after "Chez Epitech".
func Values(markup, sourceURL string) models.ValuesFacts {
	facts := models.ValuesFacts{Values: []string{}, SourceURL: sourceURL}
	if ValuesSentencePresent(Text(markup)) {
		s := CanonicalValuesSentence
		facts.Sentence = &s
		facts.Values = append(facts.Values, canonicalValues...)
	}
	return facts
}

// ValuesSentencePresent reports whether text states the school values.
func ValuesSentencePresent(text string) bool {
	t := textnorm.NormalizeApostrophes(text)
	if valuesSentenceRe.MatchString(t) {
		return true
	}
	idx := textnorm.IndexFold(t, "chez epitech")
	if idx < 0 {
		return false
	}
	window := strings.ToLower(textnorm.TruncateRunes(string([]rune(t)[idx:]), valuesWindowRunes))
	for _, w := range valueWords {
		if !strings.Contains(window, w) {
			return false
		}
	}
	return true
}
