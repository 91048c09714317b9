// Package extract turns raw HTML into typed facts. Everything here works on
// a line or text view of the page rather than on its DOM layout, so markup
// and CSS changes do not break it; wording changes do. Nothing in this
// package performs I/O or returns an error: a pattern that does not match
// leaves the corresponding field empty.
package extract

import (
	"fmt"

	"knowledge-workers/internal/models"
)

// Kind selects what Extract looks for.
type Kind string

const (
	KindContact        Kind = "contact"
	KindProgramPage    Kind = "program_page"
	KindPedagogy       Kind = "pedagogy"
	KindValues         Kind = "values"
	KindNews           Kind = "news"
	KindCampusPrograms Kind = "campus_programs"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindContact, KindProgramPage, KindPedagogy, KindValues, KindNews, KindCampusPrograms}

// Record is the typed result of one extraction. Only the fields matching
// Kind are set.
type Record struct {
	Kind     Kind                  `json:"kind"`
	Contacts []ContactBlock        `json:"contacts,omitempty"`
	Page     *models.ProgramPage   `json:"page,omitempty"`
	Pedagogy *models.PedagogyFacts `json:"pedagogy,omitempty"`
	Values   *models.ValuesFacts   `json:"values,omitempty"`
	News     []models.NewsItem     `json:"news,omitempty"`
	Programs []string              `json:"programs,omitempty"`
}

// Extract runs the extractor for kind. The boolean is false when nothing
// was found, which callers render as a gap. An unsupported kind is a
// programming error and panics.
func Extract(markup string, kind Kind) (Record, bool) {
	rec := Record{Kind: kind}
	switch kind {
	case KindContact:
		rec.Contacts = ContactBlocks(Lines(markup))
		return rec, len(rec.Contacts) > 0
	case KindProgramPage:
		page := ProgramPage(markup, "")
		rec.Page = &page
		return rec, page.Title != "" || page.Heading != "" || page.Description != "" || page.ShortSnippet != ""
	case KindPedagogy:
		facts := Pedagogy(markup, "")
		rec.Pedagogy = &facts
		return rec, len(facts.Pillars) > 0 || facts.Objective != "" || facts.Headline != "" || facts.Summary != "" || facts.KeyQuote != ""
	case KindValues:
		facts := Values(markup, "")
		rec.Values = &facts
		return rec, facts.Sentence != nil
	case KindNews:
		rec.News = News(markup)
		return rec, len(rec.News) > 0
	case KindCampusPrograms:
		rec.Programs = CampusPrograms(markup)
		return rec, len(rec.Programs) > 0
	}
	panic(fmt.Sprintf("extract: unsupported kind %q", kind))
}
