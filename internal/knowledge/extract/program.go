package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

const (
	snippetMaxRunes  = 360
	maxDurationHints = 6
)

var (
	sentenceEndRe = regexp.MustCompile(`[.!?]\s`)
	// Trailing word boundaries are checked by hand: RE2's \b is ASCII-only
	// and would split "années" after the é.
	yearHintRe  = regexp.MustCompile(`\d+\s*(?:années|année|ans|an)`)
	monthHintRe = regexp.MustCompile(`\d+\s*mois`)
)

// ProgramPage pulls the title, heading, description, snippet and duration
// hints out of one catalog page.
func ProgramPage(markup, url string) models.ProgramPage {
	doc := parse(markup)
	page := models.ProgramPage{URL: url}

	page.Title = metaContent(doc, "property", "og:title")
	if page.Title == "" {
		if n := find(doc, func(c *html.Node) bool { return isElement(c, atom.Title) }); n != nil {
			page.Title = nodeText(n)
		}
	}
	if n := find(doc, func(c *html.Node) bool { return isElement(c, atom.H1) }); n != nil {
		page.Heading = nodeText(n)
	}
	page.Description = metaContent(doc, "name", "description")
	if page.Description == "" {
		page.Description = metaContent(doc, "property", "og:description")
	}

	text := Text(markup)
	page.ShortSnippet = Snippet(text, snippetMaxRunes)
	page.DurationHints = DurationHints(text)
	return page
}

// Snippet returns text unchanged when it fits in max runes, otherwise the
// prefix up to the first sentence end, otherwise the prefix plus an ellipsis.
func Snippet(text string, max int) string {
	t := textnorm.CollapseSpaces(text)
	if len([]rune(t)) <= max {
		return t
	}
	cut := textnorm.TruncateRunes(t, max)
	if loc := sentenceEndRe.FindStringIndex(cut); loc != nil {
		return strings.TrimSpace(cut[:loc[1]])
	}
	return strings.TrimSpace(cut) + "…"
}

// DurationHints returns the distinct "N an(s)/année(s)" then "N mois"
// substrings of text, lowercased, at most six.
func DurationHints(text string) []string {
	lower := strings.ToLower(text)
	var hints []string
	seen := make(map[string]bool)
	for _, re := range []*regexp.Regexp{yearHintRe, monthHintRe} {
		for _, loc := range re.FindAllStringIndex(lower, -1) {
			if !textnorm.WordBounded(lower, loc[0], loc[1]) {
				continue
			}
			h := strings.TrimSpace(lower[loc[0]:loc[1]])
			if seen[h] {
				continue
			}
			seen[h] = true
			hints = append(hints, h)
			if len(hints) >= maxDurationHints {
				return hints
			}
		}
	}
	return hints
}
