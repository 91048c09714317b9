// Package router decides which knowledge domains a message needs. Scoring is
// deterministic keyword matching so every decision can be explained by its
// reasons.
package router

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"knowledge-workers/internal/common/config"
	"knowledge-workers/internal/models"
)

// Router scores messages against the embedded keyword tables. It holds no
// per-request state and is safe for concurrent use.
type Router struct {
	tables     *keywordTables
	thresholds config.RouterThresholds
}

// New returns a router using the given thresholds. Zero thresholds take
// their defaults.
func New(thresholds config.RouterThresholds) *Router {
	defaults := config.DefaultThresholds()
	if thresholds.Campus == 0 {
		thresholds.Campus = defaults.Campus
	}
	if thresholds.CampusExplicit == 0 {
		thresholds.CampusExplicit = defaults.CampusExplicit
	}
	if thresholds.Degrees == 0 {
		thresholds.Degrees = defaults.Degrees
	}
	if thresholds.DegreesExplicit == 0 {
		thresholds.DegreesExplicit = defaults.DegreesExplicit
	}
	if thresholds.News == 0 {
		thresholds.News = defaults.News
	}
	if thresholds.NewsExplicit == 0 {
		thresholds.NewsExplicit = defaults.NewsExplicit
	}
	if thresholds.Pedagogy == 0 {
		thresholds.Pedagogy = defaults.Pedagogy
	}
	if thresholds.Values == 0 {
		thresholds.Values = defaults.Values
	}
	return &Router{tables: loadTables(), thresholds: thresholds}
}

var defaultRouter = sync.OnceValue(func() *Router {
	return New(config.RouterThresholds{})
})

// Route scores text with the default thresholds. contextFlag stands in for
// the subject mention when recent turns already named the school.
func Route(text string, contextFlag bool) models.Decisions {
	return defaultRouter().Route(text, contextFlag)
}

// Route returns one decision per domain.
func (r *Router) Route(text string, contextFlag bool) models.Decisions {
	lower := strings.ToLower(strings.TrimSpace(text))
	subject := contextFlag || containsAny(lower, r.tables.Subject)
	explicit := containsAny(lower, r.tables.Explicit)

	decisions := make(models.Decisions, len(models.AllDomains))
	for _, d := range models.AllDomains {
		decisions[d] = r.score(d, lower, subject, explicit)
	}
	return decisions
}

func (r *Router) score(d models.Domain, lower string, subject, explicit bool) models.ToolDecision {
	table := r.tables.Domains[d]
	dec := models.ToolDecision{Domain: d, Reasons: []string{}}

	for _, k := range table.Keywords {
		if strings.Contains(lower, k) {
			dec.Score += 1.0
			dec.Reasons = append(dec.Reasons, fmt.Sprintf("+1 '%s'", k))
		}
	}

	if b := table.Boost; b != nil && containsAny(lower, b.Terms) {
		dec.Score += b.Weight
		dec.Reasons = append(dec.Reasons, fmt.Sprintf("+%s %s", formatWeight(b.Weight), b.Reason))
	}

	override := false
	if o := table.Override; o != nil {
		for _, term := range o.Terms {
			if strings.Contains(lower, term) {
				dec.Score += o.Weight
				dec.Reasons = append(dec.Reasons, fmt.Sprintf("+%s domain '%s'", formatWeight(o.Weight), term))
				override = true
				break
			}
		}
	}

	if subject {
		dec.Score += 1.0
		dec.Reasons = append(dec.Reasons, "+1 subject mention")
	}
	if explicit {
		dec.Score += 0.5
		dec.Reasons = append(dec.Reasons, "+0.5 explicit tool hint")
	}

	topic := subject
	if !table.TopicIsSubject {
		topic = containsAny(lower, table.Topic)
	}
	threshold, low := r.thresholdsFor(d)

	dec.Call = (explicit && dec.Score >= low) ||
		(topic && dec.Score >= threshold) ||
		override
	return dec
}

func (r *Router) thresholdsFor(d models.Domain) (threshold, low float64) {
	t := r.thresholds
	switch d {
	case models.DomainCampus:
		return t.Campus, t.CampusExplicit
	case models.DomainDegrees:
		return t.Degrees, t.DegreesExplicit
	case models.DomainNews:
		return t.News, t.NewsExplicit
	case models.DomainPedagogy:
		return t.Pedagogy, t.Pedagogy
	default:
		return t.Values, t.Values
	}
}

// Decision returns the decision for domain. Asking for a domain outside the
// known set is a caller bug and panics.
func Decision(decisions models.Decisions, domain models.Domain) models.ToolDecision {
	if !domain.Valid() {
		panic(fmt.Sprintf("router: unknown domain %q", domain))
	}
	dec, ok := decisions[domain]
	if !ok {
		return models.ToolDecision{Domain: domain, Reasons: []string{}}
	}
	return dec
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// MentionsSubject reports whether text names the school. Callers use it over
// recent turns to compute the context flag.
func (r *Router) MentionsSubject(text string) bool {
	return containsAny(strings.ToLower(text), r.tables.Subject)
}
