package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-workers/internal/models"
)

const contactPage = `<html><body>
<nav><a href="/ecole-informatique-nice/">Nice</a></nav>
<h3>Epitech à Lyon</h3>
<p>86 Boulevard Marius Vivier Merle</p>
<p>69003 Lyon</p>
<p><a href="mailto:lyon@epitech.eu">lyon@epitech.eu</a></p>
<p>04 28 29 33 25</p>
<h3>Epitech à Paris</h3>
<h3>Epitech à Réunion</h3>
<div>Contacts</div>
<p>14 rue Jules Verne</p>
<p>97440 Saint-André</p>
<p>+262 262 00 00 00</p>
</body></html>`

func strPtr(s string) *string { return &s }

func TestLines(t *testing.T) {
	markup := `<head><style>.a{color:red}</style><script>var x = "<p>";</script></head>` +
		`<body><h2>Epitech à Lyon</h2><p>86 Boulevard R&amp;D<br/>69003 Lyon</p>  <span> </span></body>`

	assert.Equal(t, []string{"Epitech à Lyon", "86 Boulevard R&D", "69003 Lyon"}, Lines(markup))
	assert.Empty(t, Lines(""))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Un deux trois", Text("<p>Un</p><p>deux<script>x()</script></p>\n\n trois"))
}

func TestContactBlocks_TwoHeadingRoundTrip(t *testing.T) {
	blocks := ContactBlocks(Lines(contactPage))

	want := []ContactBlock{
		{
			City: "Lyon",
			Contact: models.ExtractedContact{
				AddressLines: []string{"86 Boulevard Marius Vivier Merle", "69003 Lyon"},
				Email:        strPtr("lyon@epitech.eu"),
				Phone:        strPtr("04 28 29 33 25"),
			},
		},
		{
			City: "La Réunion",
			Contact: models.ExtractedContact{
				AddressLines: []string{"14 rue Jules Verne", "97440 Saint-André"},
				Phone:        strPtr("+262 262 00 00 00"),
			},
		},
	}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("contact blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestContactBlocks_AddressCap(t *testing.T) {
	lines := []string{"Epitech à Nantes"}
	for i := 0; i < 9; i++ {
		lines = append(lines, "ligne d'adresse "+string(rune('a'+i)))
	}
	lines = append(lines, "ok")

	blocks := ContactBlocks(lines)
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Contact.AddressLines, maxAddressLines)
	assert.Nil(t, blocks[0].Contact.Email)
	assert.Nil(t, blocks[0].Contact.Phone)
}

func TestCities(t *testing.T) {
	markup := `<h2>Epitech à Lyon</h2><a href="/ecole-informatique-nice/">voir</a><h2>Epitech à la reunion</h2><p>Parisien</p>`
	known := []string{"Lyon", "Nice", "La Réunion", "Paris"}

	assert.Equal(t, []string{"La Réunion", "Lyon", "Nice"}, Cities(markup, known))
	assert.Empty(t, Cities("<p>rien</p>", known))
}

func TestProgramPage(t *testing.T) {
	markup := `<html><head><title>Bachelor | Epitech</title>
<meta property="og:title" content="Bachelor IA">
<meta name="description" content="Trois ans pour devenir expert."></head>
<body><h1>Le <em>Bachelor</em> IA</h1><p>Un cursus en 3 ans. Puis 6 mois de stage et 3 ans encore.</p></body></html>`

	page := ProgramPage(markup, "https://www.epitech.eu/formation-bachelor-ecole-informatique/")
	assert.Equal(t, "Bachelor IA", page.Title)
	assert.Equal(t, "Le Bachelor IA", page.Heading)
	assert.Equal(t, "Trois ans pour devenir expert.", page.Description)
	assert.Equal(t, []string{"3 ans", "6 mois"}, page.DurationHints)
	assert.Contains(t, page.ShortSnippet, "Un cursus en 3 ans.")

	fallback := ProgramPage(`<title> Programme   MSc </title><meta property="og:description" content="Deux années.">`, "u")
	assert.Equal(t, "Programme MSc", fallback.Title)
	assert.Equal(t, "Deux années.", fallback.Description)
	assert.Empty(t, fallback.Heading)
}

func TestProgramPage_NoDurationClaimWithoutHints(t *testing.T) {
	page := ProgramPage(`<h1>MBA Luxe</h1><p>Un programme pour les passionnés.</p>`, "u")
	assert.Empty(t, page.DurationHints)
}

func TestSnippet(t *testing.T) {
	short := "Une phrase courte."
	assert.Equal(t, short, Snippet(short, 360))

	sentence := "Bonjour le monde. " + strings.Repeat("x", 400)
	assert.Equal(t, "Bonjour le monde.", Snippet(sentence, 360))

	noStop := strings.Repeat("é", 400)
	got := Snippet(noStop, 360)
	assert.Equal(t, strings.Repeat("é", 360)+"…", got)
}

func TestDurationHints(t *testing.T) {
	assert.Equal(t, []string{"2 années"}, DurationHints("En 2 Années seulement"))
	assert.Empty(t, DurationHints("1 ansible playbook"))
	assert.Equal(t, []string{"1 an", "12 mois"}, DurationHints("1 an, soit 12 mois, soit 12 mois"))

	many := "1 an 2 ans 3 ans 4 ans 5 ans 6 ans 7 ans 8 mois"
	assert.Len(t, DurationHints(many), maxDurationHints)
}

func TestPedagogy(t *testing.T) {
	markup := `<section><h2>Comment fonctionne la pédagogie Epitech ?</h2><p>Par projets.</p>
<p>Ses piliers : la pratique, la collaboration, l’autonomie, La Pratique, la créativité. L’objectif est clair. Autre chose.</p></section>`

	facts := Pedagogy(markup, "https://example.test/pedagogie/")
	assert.Equal(t, []string{"la pratique", "la collaboration", "l’autonomie", "la créativité"}, facts.Pillars)
	assert.Equal(t, "Comment fonctionne la pédagogie Epitech ?", facts.Summary)
	assert.Equal(t, "L’objectif est clair.", facts.Objective)
	assert.Empty(t, facts.Headline)
	assert.Empty(t, facts.KeyQuote)
	assert.Equal(t, "https://example.test/pedagogie/", facts.SourceURL)
}

func TestPillars_Caps(t *testing.T) {
	long := strings.Repeat("y", maxPillarRunes+1)
	text := "Ses piliers : a, b, c, d, e, f, g, h, i, j, " + long
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, Pillars(text))
	assert.Empty(t, Pillars("pas de liste ici"))
}

func TestValues(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		found  bool
	}{
		{"exact sentence", `<p>Chez Epitech, nous croyons en nos valeurs, que sont l’excellence, le courage et la solidarité.</p>`, true},
		{"proximity", `<p>Chez Epitech on cultive l'excellence.</p><p>Le courage aussi, et la solidarité.</p>`, true},
		{"missing word", `<p>Chez Epitech on cultive l'excellence et le courage.</p>`, false},
		{"no anchor", `<p>Excellence, courage, solidarité.</p>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := Values(tt.markup, "src")
			if !tt.found {
				assert.Nil(t, facts.Sentence)
				assert.Empty(t, facts.Values)
				return
			}
			require.NotNil(t, facts.Sentence)
			assert.Equal(t, CanonicalValuesSentence, *facts.Sentence)
			assert.Equal(t, []string{"excellence", "courage", "solidarité"}, facts.Values)
		})
	}
}

func TestNews(t *testing.T) {
	markup := `<main>
<article><h3>Hackathon</h3><a href="/news/hack">Lire</a><p>48h de code.</p></article>
<article><p>Sans titre</p></article>
<article><h2>Salon</h2></article>
</main>`

	want := []models.NewsItem{
		{Title: "Hackathon", Summary: "48h de code.", Link: "/news/hack"},
		{Title: "Salon"},
	}
	assert.Equal(t, want, News(markup))
	assert.Empty(t, News("<p>rien</p>"))
}

func TestCampusPrograms(t *testing.T) {
	markup := `<h2>Nos formations à Lyon</h2><h3>Vie étudiante</h3>
<ul><li>Programme Grande École</li><li>MSc</li></ul>
<a href="#">Coding Academy</a><a href="#">Nos formations à Lyon</a>`

	assert.Equal(t, []string{"Nos formations à Lyon", "Programme Grande École", "Coding Academy"}, CampusPrograms(markup))
}

func TestExtract(t *testing.T) {
	rec, ok := Extract(contactPage, KindContact)
	assert.True(t, ok)
	assert.Len(t, rec.Contacts, 2)

	_, ok = Extract("<p>rien</p>", KindContact)
	assert.False(t, ok)

	_, ok = Extract("<p>rien</p>", KindValues)
	assert.False(t, ok)

	rec, ok = Extract("<article><h2>Titre</h2></article>", KindNews)
	assert.True(t, ok)
	assert.Equal(t, KindNews, rec.Kind)

	assert.Panics(t, func() { Extract("", Kind("weather")) })
}

func TestExtract_MalformedMarkupNeverPanics(t *testing.T) {
	junk := []string{"", "<", "<div><p>unclosed <b>bold", "<<<>>>&&&;", "<script>never closed", "\x00\xff"}
	for _, markup := range junk {
		for _, kind := range Kinds {
			assert.NotPanics(t, func() { Extract(markup, kind) }, "kind %s markup %q", kind, markup)
		}
	}
}
