package geo

import (
	"regexp"
	"strings"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/pkg/registry"
)

// Extractor names, reported in LocationContext.Extractor.
const (
	ExtractorPostalCode   = "postal_code"
	ExtractorVerbCity     = "verb_city"
	ExtractorFacilityCity = "facility_city"
	ExtractorDictionary   = "dictionary"
	ExtractorAlias        = "alias"
)

// Messages mentioning one of these talk about the school, not a place.
var nonLocationTerms = []string{
	"méthodologie", "methodologie", "pédagogie", "pedagogie", "programme",
	"cursus", "formation", "apprentissage", "méthode", "enseignement",
	"étude", "cours", "diplome", "diplôme",
	"intéressant", "interessant", "cool", "sympa", "super", "génial",
	"l'air", "lair", "semble", "parait", "paraît",
}

// Words the verb pattern catches that are never places.
var notPlaces = map[string]bool{
	"l": true, "la": true, "le": true, "les": true, "un": true, "une": true, "des": true,
	"air": true, "lair": true, "l'air": true,
	"bien": true, "mal": true, "bon": true, "bonne": true, "très": true, "trop": true,
	"peu": true, "plus": true,
	"être": true, "etre": true, "avoir": true, "fait": true, "faire": true, "dit": true, "dire": true,
	"intéressant": true, "interessant": true, "cool": true, "sympa": true, "super": true,
}

var (
	postalCodeRe   = regexp.MustCompile(`\d{5}`)
	verbCityRe     = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:habite|vis|viens|suis)\s+(?:à|a|de|d')\s*([a-zA-Z\x{00C0}-\x{00FF}]{3,})`)
	facilityCityRe = regexp.MustCompile(`(?i)(?:campus|epitech)\s+([a-zA-Z\x{00C0}-\x{00FF}\-]+)`)
)

// Extractor pulls a location phrase out of a message.
type Extractor struct {
	Name string
	Find func(text string) (string, bool)
}

// LocationFinder runs its extractors in order and keeps the first hit.
type LocationFinder struct {
	extractors []Extractor
}

// NewLocationFinder builds the default cascade over the registry names and
// aliases.
func NewLocationFinder(reg *registry.FacilityRegistry) *LocationFinder {
	names := reg.Names()
	aliases := reg.AliasNames()
	return &LocationFinder{extractors: []Extractor{
		{Name: ExtractorPostalCode, Find: findPostalCode},
		{Name: ExtractorVerbCity, Find: findVerbCity},
		{Name: ExtractorFacilityCity, Find: func(text string) (string, bool) {
			m := facilityCityRe.FindStringSubmatch(text)
			if m == nil {
				return "", false
			}
			if _, ok := reg.Canonical(m[1]); !ok {
				return "", false
			}
			return m[1], true
		}},
		{Name: ExtractorDictionary, Find: func(text string) (string, bool) {
			for _, name := range names {
				if textnorm.ContainsWord(text, name) {
					return name, true
				}
			}
			return "", false
		}},
		{Name: ExtractorAlias, Find: func(text string) (string, bool) {
			for _, alias := range aliases {
				if textnorm.ContainsWord(text, alias) {
					target, _ := reg.Canonical(alias)
					return target, true
				}
			}
			return "", false
		}},
	}}
}

// Extractors lists the cascade in evaluation order.
func (f *LocationFinder) Extractors() []Extractor {
	return f.extractors
}

// ExtractLocation returns the location phrase and the extractor that found
// it. Messages about pedagogy, programs or opinions yield nothing.
func (f *LocationFinder) ExtractLocation(text string) (query, extractor string, ok bool) {
	text = textnorm.NormalizeApostrophes(text)
	if IsTopicMessage(text) {
		return "", "", false
	}
	for _, ex := range f.extractors {
		if q, found := ex.Find(text); found {
			return q, ex.Name, true
		}
	}
	return "", "", false
}

// IsTopicMessage reports whether text names a non-location topic.
func IsTopicMessage(text string) bool {
	text = textnorm.NormalizeApostrophes(text)
	for _, term := range nonLocationTerms {
		if textnorm.HasWordPrefix(text, term) {
			return true
		}
	}
	return false
}

func findPostalCode(text string) (string, bool) {
	for _, loc := range postalCodeRe.FindAllStringIndex(text, -1) {
		if textnorm.WordBounded(text, loc[0], loc[1]) {
			return text[loc[0]:loc[1]], true
		}
	}
	return "", false
}

func findVerbCity(text string) (string, bool) {
	m := verbCityRe.FindStringSubmatchIndex(text)
	if m == nil || !textnorm.WordBounded(text, m[2], m[3]) {
		return "", false
	}
	candidate := text[m[2]:m[3]]
	if notPlaces[strings.ToLower(candidate)] {
		return "", false
	}
	return candidate, true
}
