// pkg/registry/schema.go
package registry

import "knowledge-workers/internal/models"

// FacilityRegistry is the static table of school sites. It is read-only
// once loaded.
type FacilityRegistry struct {
	Version    string            `yaml:"version"`
	Facilities []models.Facility `yaml:"facilities"`
	Aliases    map[string]string `yaml:"aliases"`
	SiteList   []Site            `yaml:"sites"`

	byName map[string]int
}

// Site is a campus listed on the public contact directory. URL is empty when
// the default school page applies.
type Site struct {
	City    string `yaml:"city"`
	Country string `yaml:"country"`
	URL     string `yaml:"url,omitempty"`
}
