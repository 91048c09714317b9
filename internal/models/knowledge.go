// internal/models/knowledge.go
package models

// Coordinates are WGS84 degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Facility is one school site from the static registry.
type Facility struct {
	Name        string      `json:"name" yaml:"name"`
	Country     string      `json:"country" yaml:"country"`
	Address     string      `json:"address" yaml:"address"`
	PostalCode  string      `json:"postalCode,omitempty" yaml:"postal_code"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Email       string      `json:"email,omitempty" yaml:"email"`
	Phone       string      `json:"phone,omitempty" yaml:"phone"`
}

// ExtractedContact is the contact block scraped for one facility.
type ExtractedContact struct {
	AddressLines []string `json:"addressLines"`
	Email        *string  `json:"email,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
}

// CampusEntry is one campus as published on the live site.
type CampusEntry struct {
	City             string           `json:"city"`
	Country          string           `json:"country"`
	URL              string           `json:"url"`
	Contact          ExtractedContact `json:"contact"`
	Programs         []string         `json:"programs"`
	ContactSourceURL string           `json:"contactSourceUrl"`
}

// ProgramPage holds the facts pulled from one program page. Err is set when
// the page could not be fetched; the other fields are then empty.
type ProgramPage struct {
	URL           string   `json:"url"`
	Title         string   `json:"title,omitempty"`
	Heading       string   `json:"heading,omitempty"`
	Description   string   `json:"description,omitempty"`
	ShortSnippet  string   `json:"shortSnippet,omitempty"`
	DurationHints []string `json:"durationHints,omitempty"`
	Err           string   `json:"error,omitempty"`
}

// Program is one catalog entry with its crawled pages.
type Program struct {
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Level    string        `json:"level"`
	Pages    []ProgramPage `json:"pages"`
}

type PedagogyFacts struct {
	Pillars   []string `json:"pillars"`
	Objective string   `json:"objective,omitempty"`
	Headline  string   `json:"headline,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	KeyQuote  string   `json:"keyQuote,omitempty"`
	SourceURL string   `json:"sourceUrl"`
}

// ValuesFacts carries the canonical values sentence when it was found.
type ValuesFacts struct {
	Sentence  *string  `json:"sentence,omitempty"`
	Values    []string `json:"values"`
	SourceURL string   `json:"sourceUrl"`
}

type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Link    string `json:"link,omitempty"`
}

// DomainResult is the typed payload one fetcher returns. Only the field
// matching Domain is populated.
type DomainResult struct {
	Domain    Domain         `json:"domain"`
	SourceURL string         `json:"sourceUrl,omitempty"`
	Campus    []CampusEntry  `json:"campus,omitempty"`
	Programs  []Program      `json:"programs,omitempty"`
	Pedagogy  *PedagogyFacts `json:"pedagogy,omitempty"`
	Values    *ValuesFacts   `json:"values,omitempty"`
	News      []NewsItem     `json:"news,omitempty"`
}
