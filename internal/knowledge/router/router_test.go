package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-workers/internal/common/config"
	"knowledge-workers/internal/models"
)

func TestRoute_ZeroKeywordsNeverCall(t *testing.T) {
	for _, text := range []string{"", "hello there", "thanks a lot", "   "} {
		decisions := Route(text, false)
		require.Len(t, decisions, len(models.AllDomains))
		for _, d := range models.AllDomains {
			dec := decisions[d]
			assert.False(t, dec.Call, "%q domain %s", text, d)
			assert.Zero(t, dec.Score, "%q domain %s", text, d)
			assert.Empty(t, dec.Reasons, "%q domain %s", text, d)
		}
	}
}

func TestRoute_ExplicitHintWithTwoKeywordsCalls(t *testing.T) {
	tests := []struct {
		domain models.Domain
		text   string
	}{
		{models.DomainCampus, "scrape the campus ville"},
		{models.DomainDegrees, "scrape formation msc"},
		{models.DomainNews, "crawl news actu"},
		{models.DomainPedagogy, "scraper methodologie pedagogie"},
		{models.DomainValues, "scraping valeurs engagements"},
	}
	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			dec := Decision(Route(tt.text, false), tt.domain)
			assert.True(t, dec.Call)
			assert.GreaterOrEqual(t, dec.Score, 2.5)
			assert.Equal(t, "+0.5 explicit tool hint", dec.Reasons[len(dec.Reasons)-1])
		})
	}
}

func TestRoute_DegreesReasonsInScoringOrder(t *testing.T) {
	dec := Route("Quelles spécialisations en cybersécurité chez Epitech ?", false)[models.DomainDegrees]

	assert.True(t, dec.Call)
	assert.InDelta(t, 5.5, dec.Score, 1e-9)
	assert.Equal(t, []string{
		"+1 'spécialisation'",
		"+1 'spécialisations'",
		"+1 specialization question boost",
		"+1.5 domain 'cyber'",
		"+1 subject mention",
	}, dec.Reasons)
}

func TestRoute_FieldOfStudyForcesDegrees(t *testing.T) {
	dec := Route("je veux travailler dans la data", false)[models.DomainDegrees]

	assert.True(t, dec.Call)
	assert.InDelta(t, 1.5, dec.Score, 1e-9)
	assert.Equal(t, []string{"+1.5 domain 'data'"}, dec.Reasons)
}

func TestRoute_CampusWithoutSubject(t *testing.T) {
	dec := Route("Quels sont les campus en Espagne ?", false)[models.DomainCampus]

	assert.True(t, dec.Call)
	assert.InDelta(t, 3.0, dec.Score, 1e-9)
	assert.Equal(t, []string{"+1 'campus'", "+1 'quels'", "+1 'espagne'"}, dec.Reasons)
}

func TestRoute_SubjectGatedDomains(t *testing.T) {
	news := Route("des news et actu ?", false)[models.DomainNews]
	assert.False(t, news.Call)
	assert.InDelta(t, 2.0, news.Score, 1e-9)

	news = Route("des news et actu ?", true)[models.DomainNews]
	assert.True(t, news.Call)
	assert.Contains(t, news.Reasons, "+1 subject mention")

	ped := Route("Comment marche la pédagogie Epitech ?", false)[models.DomainPedagogy]
	assert.True(t, ped.Call)
	assert.InDelta(t, 3.0, ped.Score, 1e-9)

	ped = Route("la pédagogie ?", false)[models.DomainPedagogy]
	assert.False(t, ped.Call)

	values := Route("quelles sont les valeurs d'epitech", false)[models.DomainValues]
	assert.True(t, values.Call)
}

func TestRouter_ThresholdsAreConfigurable(t *testing.T) {
	strict := New(config.RouterThresholds{Campus: 5})
	dec := strict.Route("Quels sont les campus en Espagne ?", false)[models.DomainCampus]

	assert.False(t, dec.Call)
	assert.InDelta(t, 3.0, dec.Score, 1e-9)
}

func TestRoute_Deterministic(t *testing.T) {
	text := "Scrape les formations et campus Epitech à Lyon"
	assert.Equal(t, Route(text, false), Route(text, false))
}

func TestDecision(t *testing.T) {
	decisions := Route("campus", false)
	assert.Equal(t, models.DomainCampus, Decision(decisions, models.DomainCampus).Domain)

	empty := Decision(models.Decisions{}, models.DomainNews)
	assert.False(t, empty.Call)

	assert.Panics(t, func() { Decision(decisions, models.Domain("weather")) })
}

func TestParseTables_RejectsIncompleteTables(t *testing.T) {
	_, err := parseTables([]byte("subject: [x]\ndomains:\n  campus:\n    keywords: [campus]\n"))
	assert.Error(t, err)

	_, err = parseTables([]byte("domains: [broken"))
	assert.Error(t, err)
}

func TestMentionsSubject(t *testing.T) {
	r := New(config.RouterThresholds{})
	assert.True(t, r.MentionsSubject("Et EPITECH Lyon ?"))
	assert.False(t, r.MentionsSubject("et à Lyon ?"))
}
