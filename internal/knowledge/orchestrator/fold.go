package orchestrator

import (
	"fmt"
	"strings"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

const (
	missing          = "non communiqué"
	defaultNewsItems = 3
	maxCampusTitles  = 3
	maxSnippets      = 2
)

var (
	campusTitleDeny = []string{
		"où étudier", "plan d'accès", "choisir l'école", "contact",
		"informations", "télécharger", "brochure", "plus qu'une école",
		"nos formations", "nos campus",
	}
	campusTitleAllow = []string{
		"programme", "bachelor", "master", "msc", "coding", "w@c", "web@cadémie",
		"bootcamp", "pge", "grande ecole", "grande école",
	}
	pseudoCampuses = map[string]bool{"apres bac": true, "après bac": true}
)

// Section is the rendered text of one domain.
type Section struct {
	Domain models.Domain
	Text   string
}

// ContextBlock is the folded, deterministic rendering of a request's results.
type ContextBlock struct {
	Sections []Section
	Failed   []models.Domain
}

// String joins the sections with a blank line.
func (b ContextBlock) String() string {
	parts := make([]string, len(b.Sections))
	for i, s := range b.Sections {
		parts[i] = s.Text
	}
	return strings.Join(parts, "\n\n")
}

type FoldOptions struct {
	NewsMaxItems int
}

// Fold renders the successful outcomes in domain order. Identical results
// give identical output whatever order the fetches completed in.
func Fold(results Results, opts FoldOptions) ContextBlock {
	if opts.NewsMaxItems <= 0 {
		opts.NewsMaxItems = defaultNewsItems
	}
	block := ContextBlock{Failed: results.Failed()}
	for _, d := range models.AllDomains {
		out, ok := results[d]
		if !ok || out.Err != nil {
			continue
		}
		var text string
		switch d {
		case models.DomainCampus:
			text = FoldCampus(out.Result.Campus)
		case models.DomainDegrees:
			text = FoldDegrees(out.Result.Programs)
		case models.DomainNews:
			text = FoldNews(out.Result.News, opts.NewsMaxItems)
		case models.DomainPedagogy:
			text = FoldPedagogy(out.Result.Pedagogy)
		case models.DomainValues:
			text = FoldValues(out.Result.Values)
		}
		block.Sections = append(block.Sections, Section{Domain: d, Text: text})
	}
	return block
}

// CampusTitles filters the program titles scraped for one campus.
func CampusTitles(titles []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range titles {
		lower := strings.ToLower(textnorm.NormalizeApostrophes(t))
		if containsAny(lower, campusTitleDeny) || !containsAny(lower, campusTitleAllow) {
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func FoldCampus(entries []models.CampusEntry) string {
	var kept []models.CampusEntry
	for _, e := range entries {
		city := strings.TrimSpace(e.City)
		if city == "" || pseudoCampuses[strings.ToLower(city)] {
			continue
		}
		kept = append(kept, e)
	}

	n := len(kept)
	var lines []string
	for i, e := range kept {
		titles := CampusTitles(e.Programs)
		forms := "Toutes formations"
		if len(titles) > 0 {
			shown := titles
			if len(shown) > maxCampusTitles {
				shown = shown[:maxCampusTitles]
			}
			forms = strings.Join(shown, ", ")
			if extra := len(titles) - maxCampusTitles; extra > 0 {
				forms += fmt.Sprintf(" (+%d autres)", extra)
			}
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s) : %s", i+1, strings.ToUpper(e.City), orMissing(e.Country), forms))
		lines = append(lines, fmt.Sprintf("   Adresse : %s | Contact : %s | %s",
			orMissing(strings.Join(e.Contact.AddressLines, ", ")),
			orMissing(deref(e.Contact.Email)),
			orMissing(deref(e.Contact.Phone)),
		))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[SYSTÈME: DONNÉES CAMPUS LIVE - %d CAMPUS TROUVÉS]\n", n)
	fmt.Fprintf(&b, "⚠️ IMPORTANT : Il y a EXACTEMENT %d campus dans cette liste. "+
		"Tu DOIS tous les mentionner si on te demande de lister les campus.\n\n", n)
	fmt.Fprintf(&b, "Liste complète des campus (%d) :\n", n)
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "\n\nSi on te demande combien il y a de campus, réponds : %d.", n)
	return b.String()
}

func FoldDegrees(programs []models.Program) string {
	var b strings.Builder
	b.WriteString("[SYSTÈME: FORMATIONS EPITECH LIVE]\n")
	var urls []string
	seenURL := make(map[string]bool)

	for _, p := range programs {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", p.Name, orMissing(p.Category), orMissing(p.Level))

		snippets := 0
		var hints []string
		seenHint := make(map[string]bool)
		for _, page := range p.Pages {
			if page.URL != "" && !seenURL[page.URL] {
				seenURL[page.URL] = true
				urls = append(urls, page.URL)
			}
			if page.Err != "" {
				continue
			}
			if snippets < maxSnippets && page.ShortSnippet != "" {
				fmt.Fprintf(&b, "  • %s\n", page.ShortSnippet)
				snippets++
			}
			for _, h := range page.DurationHints {
				if !seenHint[h] {
					seenHint[h] = true
					hints = append(hints, h)
				}
			}
		}
		if len(hints) > 0 {
			fmt.Fprintf(&b, "  Durée indiquée : %s\n", strings.Join(hints, ", "))
		} else {
			fmt.Fprintf(&b, "  Durée : %s\n", missing)
		}
	}
	if len(programs) == 0 {
		fmt.Fprintf(&b, "Formations : %s\n", missing)
	}
	fmt.Fprintf(&b, "Sources : %s", orMissing(strings.Join(urls, ", ")))
	return b.String()
}

func FoldNews(items []models.NewsItem, max int) string {
	var b strings.Builder
	b.WriteString("[SYSTÈME: DONNÉES LIVE INJECTÉES]\n")
	if len(items) == 0 {
		b.WriteString("Aucune actualité disponible pour le moment.")
		return b.String()
	}
	if len(items) > max {
		items = items[:max]
	}
	b.WriteString("Voici les dernières actualités Epitech récupérées en direct :\n")
	for _, it := range items {
		link := it.Link
		if link == "" {
			link = missing
		}
		fmt.Fprintf(&b, "- %s: %s (Source: %s)\n", strings.TrimSpace(it.Title), strings.TrimSpace(it.Summary), link)
	}
	b.WriteString("Utilise ces informations pour répondre.")
	return b.String()
}

func FoldPedagogy(p *models.PedagogyFacts) string {
	if p == nil {
		p = &models.PedagogyFacts{}
	}
	var b strings.Builder
	b.WriteString("[SYSTÈME: PÉDAGOGIE EPITECH LIVE]\n")
	fmt.Fprintf(&b, "Piliers : %s\n", orMissing(strings.Join(p.Pillars, ", ")))
	fmt.Fprintf(&b, "Objectif : %s\n", orMissing(p.Objective))
	fmt.Fprintf(&b, "Pédagogie par projet : %s\n", orMissing(p.Headline))
	fmt.Fprintf(&b, "Fonctionnement : %s\n", orMissing(p.Summary))
	fmt.Fprintf(&b, "Citation : %s\n", orMissing(p.KeyQuote))
	fmt.Fprintf(&b, "Source : %s", orMissing(p.SourceURL))
	return b.String()
}

func FoldValues(v *models.ValuesFacts) string {
	if v == nil {
		v = &models.ValuesFacts{}
	}
	var b strings.Builder
	b.WriteString("[SYSTÈME: VALEURS EPITECH LIVE]\n")
	fmt.Fprintf(&b, "Devise : %s\n", orMissing(deref(v.Sentence)))
	fmt.Fprintf(&b, "Valeurs : %s\n", orMissing(strings.Join(v.Values, ", ")))
	fmt.Fprintf(&b, "Source : %s", orMissing(v.SourceURL))
	return b.String()
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}
