package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Len(t, reg.All(), 16)
	assert.Len(t, reg.Sites(), 20)
	assert.Equal(t, "Paris", reg.Names()[0])

	paris, ok := reg.Get("paris")
	require.True(t, ok)
	assert.Equal(t, "94270", paris.PostalCode)
	assert.InDelta(t, 48.8156, paris.Coordinates.Lat, 1e-9)

	cotonou, ok := reg.Get("Cotonou")
	require.True(t, ok)
	assert.Equal(t, "Bénin", cotonou.Country)
}

func TestSites_ReturnsCopyOfDirectory(t *testing.T) {
	reg := MustDefault()

	sites := reg.Sites()
	require.Len(t, sites, len(reg.SiteList))
	first := sites[0].City
	sites[0].City = "Atlantis"

	assert.Equal(t, first, reg.Sites()[0].City)
	assert.Equal(t, first, reg.SiteList[0].City)
}

func TestCanonical(t *testing.T) {
	reg := MustDefault()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Barcelona", "Barcelone", true},
		{"barna", "Barcelone", true},
		{"Brussels", "Bruxelles", true},
		{"berlim", "Berlin", true},
		{"LYON", "Lyon", true},
		{"Metz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := reg.Canonical(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCampusURL(t *testing.T) {
	reg := MustDefault()

	assert.Equal(t, "https://www.epitech.eu/ecole-informatique-lyon/", reg.CampusURL("Lyon"))
	assert.Equal(t, "https://www.epitech.eu/ecole-informatique-saint-andre-la-reunion/", reg.CampusURL("La Réunion"))
	assert.Equal(t, "https://www.epitech-it.es/", reg.CampusURL("Madrid"))
	assert.Equal(t, "https://www.epitech.eu/ecole-informatique-mulhouse/", reg.CampusURL("Mulhouse"))

	country, ok := reg.SiteCountry("bruxelles")
	assert.True(t, ok)
	assert.Equal(t, "Belgique", country)
}

func TestValidate(t *testing.T) {
	base := `
facilities:
  - name: Lyon
    country: France
    address: 86 Boulevard Marius Vivier Merle
    coordinates: {lat: 45.7597, lon: 4.8584}
`
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"valid", "", ""},
		{"duplicate", `
  - name: lyon
    country: France
    address: elsewhere
    coordinates: {lat: 45, lon: 4}
`, "duplicate facility name"},
		{"bad alias", "aliases:\n  lugdunum: Lugdunum\n", "unknown facility"},
		{"out of range", `
  - name: Nowhere
    country: France
    address: x
    coordinates: {lat: 95, lon: 4}
`, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(base + tt.extra))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Parse([]byte("facilities: []\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilities.yaml")
	require.NoError(t, os.WriteFile(path, embedded, 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reg.All(), 16)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
