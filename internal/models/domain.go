// internal/models/domain.go
package models

import "fmt"

// Domain names a knowledge source the router can select.
type Domain string

const (
	DomainCampus   Domain = "campus"
	DomainDegrees  Domain = "degrees"
	DomainNews     Domain = "news"
	DomainPedagogy Domain = "pedagogy"
	DomainValues   Domain = "values"
)

// AllDomains lists every domain in fold order. Context blocks are always
// rendered in this order.
var AllDomains = []Domain{DomainCampus, DomainDegrees, DomainNews, DomainPedagogy, DomainValues}

func (d Domain) String() string { return string(d) }

// Valid reports whether d is one of AllDomains.
func (d Domain) Valid() bool {
	return d.Order() >= 0
}

// Order returns d's position in AllDomains, or -1.
func (d Domain) Order() int {
	for i, known := range AllDomains {
		if known == d {
			return i
		}
	}
	return -1
}

func ParseDomain(s string) (Domain, error) {
	d := Domain(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown domain %q", s)
	}
	return d, nil
}

// ToolDecision is the router verdict for one domain.
type ToolDecision struct {
	Domain  Domain   `json:"domain"`
	Call    bool     `json:"call"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Decisions maps every domain to its decision.
type Decisions map[Domain]ToolDecision

// Called returns the domains with Call set, in fold order.
func (d Decisions) Called() []Domain {
	var out []Domain
	for _, domain := range AllDomains {
		if dec, ok := d[domain]; ok && dec.Call {
			out = append(out, domain)
		}
	}
	return out
}

// Force marks domain as called with an extra reason, keeping its score.
func (d Decisions) Force(domain Domain, reason string) {
	dec := d[domain]
	dec.Domain = domain
	dec.Call = true
	dec.Reasons = append(dec.Reasons, reason)
	d[domain] = dec
}
