package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

// maxAddressLines caps the address part of a contact block; longer blocks
// are page chrome bleeding in.
const maxAddressLines = 6

var (
	headingRe    = regexp.MustCompile(`(?i)^Epitech\s+à\s+(.+)$`)
	cityIntroRe  = regexp.MustCompile(`(?i)\bEpitech\s+à\s+([A-Za-zÀ-ÿ'’ -]+)`)
	emailRe      = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@(?:[A-Z0-9-]+\.)+[A-Z]{2,}`)
	phoneRe      = regexp.MustCompile(`^(?:\+?\d{1,3}\s*)?(?:\(?0?\d\)?[\s.\-]*){6,}\d$`)
	contactNoise = []string{"contacts", "réclam", "reclam", "journées portes ouvertes", "agenda", "fermer"}
)

// ContactBlock is the contact section found under one "Epitech à <City>"
// heading.
type ContactBlock struct {
	City    string                  `json:"city"`
	Contact models.ExtractedContact `json:"contact"`
}

// ContactBlocks partitions lines by facility headings. Blocks come back in
// page order; a heading directly followed by another heading yields nothing.
func ContactBlocks(lines []string) []ContactBlock {
	type heading struct {
		idx  int
		city string
	}
	var headings []heading
	for i, ln := range lines {
		m := headingRe.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		city := strings.Trim(strings.TrimSpace(m[1]), " -–—:•")
		headings = append(headings, heading{idx: i, city: normalizeReunion(city)})
	}

	var blocks []ContactBlock
	for j, h := range headings {
		end := len(lines)
		if j+1 < len(headings) {
			end = headings[j+1].idx
		}
		chunk := lines[h.idx+1 : end]
		if len(chunk) == 0 {
			continue
		}
		blocks = append(blocks, ContactBlock{City: h.city, Contact: contactFromChunk(chunk)})
	}
	return blocks
}

func contactFromChunk(chunk []string) models.ExtractedContact {
	contact := models.ExtractedContact{AddressLines: []string{}}
	for _, ln := range chunk {
		if contact.Email == nil {
			if found := emailRe.FindString(ln); found != "" {
				contact.Email = &found
				continue
			}
		}
		if contact.Phone == nil && looksLikePhone(ln) {
			phone := ln
			contact.Phone = &phone
			continue
		}
		if isContactNoise(ln) || emailRe.MatchString(ln) || phoneRe.MatchString(ln) {
			continue
		}
		if len([]rune(ln)) <= 2 {
			continue
		}
		contact.AddressLines = append(contact.AddressLines, ln)
	}
	if len(contact.AddressLines) > maxAddressLines {
		contact.AddressLines = contact.AddressLines[:maxAddressLines]
	}
	return contact
}

func looksLikePhone(ln string) bool {
	if phoneRe.MatchString(ln) {
		return true
	}
	return strings.HasPrefix(ln, "+") && strings.IndexFunc(ln, unicode.IsDigit) >= 0
}

func isContactNoise(ln string) bool {
	low := strings.ToLower(ln)
	for _, k := range contactNoise {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

func normalizeReunion(city string) string {
	switch strings.ToLower(city) {
	case "la reunion", "la réunion", "reunion", "réunion":
		return "La Réunion"
	}
	return city
}

// Cities returns the known cities a contact page mentions, sorted. Both the
// "Epitech à <City>" headings and bare mentions of a known name count.
func Cities(markup string, known []string) []string {
	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}

	found := make(map[string]bool)
	for _, m := range cityIntroRe.FindAllStringSubmatch(markup, -1) {
		raw := m[1]
		if i := strings.IndexAny(raw, "\n\r\t|,"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.Trim(strings.TrimSpace(raw), " .;:!?\u00a0")
		city := textnorm.TitleWords(normalizeReunion(raw))
		if knownSet[city] {
			found[city] = true
		}
	}
	for _, k := range known {
		if textnorm.ContainsWord(markup, k) {
			found[k] = true
		}
	}

	out := make([]string, 0, len(found))
	for c := range found {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
