package router

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"knowledge-workers/internal/models"
)

//go:embed keywords.yaml
var keywordsYAML []byte

type weightedTerms struct {
	Reason string   `yaml:"reason"`
	Weight float64  `yaml:"weight"`
	Terms  []string `yaml:"terms"`
}

type domainTable struct {
	Keywords       []string       `yaml:"keywords"`
	Topic          []string       `yaml:"topic"`
	TopicIsSubject bool           `yaml:"topic_is_subject"`
	Boost          *weightedTerms `yaml:"boost"`
	Override       *weightedTerms `yaml:"override"`
}

type keywordTables struct {
	Subject  []string                      `yaml:"subject"`
	Explicit []string                      `yaml:"explicit"`
	Domains  map[models.Domain]domainTable `yaml:"domains"`
}

var (
	tablesOnce sync.Once
	tables     *keywordTables
)

// loadTables parses the embedded tables once. A broken table is a build
// defect, so it panics.
func loadTables() *keywordTables {
	tablesOnce.Do(func() {
		t, err := parseTables(keywordsYAML)
		if err != nil {
			panic(err)
		}
		tables = t
	})
	return tables
}

func parseTables(data []byte) (*keywordTables, error) {
	var t keywordTables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode router keywords: %w", err)
	}
	for _, d := range models.AllDomains {
		table, ok := t.Domains[d]
		if !ok {
			return nil, fmt.Errorf("router keywords missing domain %s", d)
		}
		if len(table.Keywords) == 0 {
			return nil, fmt.Errorf("router keywords for %s are empty", d)
		}
	}
	for d := range t.Domains {
		if !d.Valid() {
			return nil, fmt.Errorf("router keywords name unknown domain %s", d)
		}
	}
	return &t, nil
}
