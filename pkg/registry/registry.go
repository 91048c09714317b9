// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

//go:embed facilities.yaml
var embedded []byte

const campusPagePattern = "https://www.epitech.eu/ecole-informatique-%s/"

var (
	defaultOnce sync.Once
	defaultReg  *FacilityRegistry
	defaultErr  error
)

// Default returns the registry compiled into the binary.
func Default() (*FacilityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(embedded)
	})
	return defaultReg, defaultErr
}

// MustDefault is Default for callers that cannot recover from a broken
// embedded table.
func MustDefault() *FacilityRegistry {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	return reg
}

// Load reads and validates a registry file.
func Load(path string) (*FacilityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML registry and validates it.
func Parse(data []byte) (*FacilityRegistry, error) {
	var reg FacilityRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks names are unique, aliases point at known facilities and
// coordinates are in range. It also builds the lookup index.
func (r *FacilityRegistry) Validate() error {
	if len(r.Facilities) == 0 {
		return fmt.Errorf("registry contains no facilities")
	}

	r.byName = make(map[string]int, len(r.Facilities))
	for i, f := range r.Facilities {
		if f.Name == "" {
			return fmt.Errorf("facility %d missing required field: name", i)
		}
		if f.Country == "" {
			return fmt.Errorf("facility %s missing required field: country", f.Name)
		}
		if f.Address == "" {
			return fmt.Errorf("facility %s missing required field: address", f.Name)
		}
		key := strings.ToLower(f.Name)
		if _, dup := r.byName[key]; dup {
			return fmt.Errorf("duplicate facility name: %s", f.Name)
		}
		if f.Coordinates.Lat < -90 || f.Coordinates.Lat > 90 || f.Coordinates.Lon < -180 || f.Coordinates.Lon > 180 {
			return fmt.Errorf("facility %s has coordinates out of range", f.Name)
		}
		r.byName[key] = i
	}

	aliases := make(map[string]string, len(r.Aliases))
	for alias, target := range r.Aliases {
		if _, ok := r.byName[strings.ToLower(target)]; !ok {
			return fmt.Errorf("alias %s points at unknown facility %s", alias, target)
		}
		aliases[strings.ToLower(alias)] = target
	}
	r.Aliases = aliases

	seen := make(map[string]bool, len(r.SiteList))
	for _, s := range r.SiteList {
		if s.City == "" || s.Country == "" {
			return fmt.Errorf("site entry missing city or country")
		}
		if seen[strings.ToLower(s.City)] {
			return fmt.Errorf("duplicate site: %s", s.City)
		}
		seen[strings.ToLower(s.City)] = true
	}
	return nil
}

// All returns the facilities in registry order.
func (r *FacilityRegistry) All() []models.Facility {
	out := make([]models.Facility, len(r.Facilities))
	copy(out, r.Facilities)
	return out
}

// Get looks a facility up by name, case-insensitively.
func (r *FacilityRegistry) Get(name string) (models.Facility, bool) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Facility{}, false
	}
	return r.Facilities[i], true
}

// Canonical resolves a facility name or alias to the registry name.
func (r *FacilityRegistry) Canonical(nameOrAlias string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(nameOrAlias))
	if target, ok := r.Aliases[key]; ok {
		return target, true
	}
	if i, ok := r.byName[key]; ok {
		return r.Facilities[i].Name, true
	}
	return "", false
}

// Names returns the facility names in registry order.
func (r *FacilityRegistry) Names() []string {
	names := make([]string, len(r.Facilities))
	for i, f := range r.Facilities {
		names[i] = f.Name
	}
	return names
}

// AliasNames returns the lowercase aliases, sorted.
func (r *FacilityRegistry) AliasNames() []string {
	out := make([]string, 0, len(r.Aliases))
	for a := range r.Aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Sites returns the contact directory cities in file order.
func (r *FacilityRegistry) Sites() []Site {
	out := make([]Site, len(r.SiteList))
	copy(out, r.SiteList)
	return out
}

// SiteCountry returns the country of a directory city.
func (r *FacilityRegistry) SiteCountry(city string) (string, bool) {
	for _, s := range r.SiteList {
		if strings.EqualFold(s.City, city) {
			return s.Country, true
		}
	}
	return "", false
}

// CampusURL returns the campus page for a directory city, falling back to
// the slugged school page.
func (r *FacilityRegistry) CampusURL(city string) string {
	for _, s := range r.SiteList {
		if strings.EqualFold(s.City, city) && s.URL != "" {
			return s.URL
		}
	}
	return fmt.Sprintf(campusPagePattern, textnorm.Slug(city))
}
