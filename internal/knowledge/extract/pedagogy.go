package extract

import (
	"strings"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

const (
	maxPillars     = 8
	maxPillarRunes = 40
)

// Pedagogy reads the pillars and the labelled paragraphs of the pedagogy
// page.
func Pedagogy(markup, sourceURL string) models.PedagogyFacts {
	text := Text(markup)
	return models.PedagogyFacts{
		Pillars:   Pillars(text),
		Objective: After("L’objectif", text, 320),
		KeyQuote:  After("Née à Epitech", text, 320),
		Headline:  After("Avec la pédagogie par projet", text, 220),
		Summary:   After("Comment fonctionne la pédagogie Epitech", text, 420),
		SourceURL: sourceURL,
	}
}

// After returns the window of max runes starting at label (label included),
// cut after the first sentence end. Empty when the label is absent.
func After(label, text string, max int) string {
	idx := textnorm.IndexFold(text, label)
	if idx < 0 {
		return ""
	}
	rs := []rune(text)
	end := idx + max
	if end > len(rs) {
		end = len(rs)
	}
	frag := string(rs[idx:end])
	if loc := sentenceEndRe.FindStringIndex(frag); loc != nil {
		frag = frag[:loc[0]+1]
	}
	return strings.TrimSpace(frag)
}

// Pillars splits the "Ses piliers : a, b, c" enumeration.
func Pillars(text string) []string {
	snippet := After("Ses piliers", text, 240)
	if _, rest, ok := strings.Cut(snippet, ":"); ok {
		snippet = rest
	}

	pillars := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(snippet, ",") {
		p := strings.Trim(part, " .;:")
		if p == "" || len([]rune(p)) > maxPillarRunes {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		pillars = append(pillars, p)
		if len(pillars) == maxPillars {
			break
		}
	}
	return pillars
}
