package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "knowledge-workers/internal/common/errors"
	apphttp "knowledge-workers/internal/common/http"
	"knowledge-workers/internal/common/validation"
	"knowledge-workers/internal/knowledge/textnorm"
	"knowledge-workers/internal/models"
)

// Provider names, also used as metric labels.
const (
	ProviderAddress   = "ban"
	ProviderNominatim = "nominatim"
	ProviderRegistry  = "registry"
)

var errNoMatch = errors.New("no match")

// Getter is the HTTP surface providers need.
type Getter interface {
	Get(ctx context.Context, source, rawURL string) (*apphttp.Page, error)
}

// Provider geocodes a free-text location.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, query string) (*models.GeoResult, error)
}

// AddressProvider queries the French national address API. Street-level
// matches must name the queried city unless the query is a postal code.
type AddressProvider struct {
	client  Getter
	baseURL string
}

func NewAddressProvider(client Getter, baseURL string) *AddressProvider {
	return &AddressProvider{client: client, baseURL: baseURL}
}

func (p *AddressProvider) Name() string { return ProviderAddress }

type addressResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
			City  string `json:"city"`
			Type  string `json:"type"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *AddressProvider) Geocode(ctx context.Context, query string) (*models.GeoResult, error) {
	page, err := p.client.Get(ctx, ProviderAddress, withQuery(p.baseURL, url.Values{
		"q":     {query},
		"limit": {"1"},
	}))
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateJSON(validation.SchemaAddressSearch, page.Body); err != nil {
		return nil, err
	}

	var resp addressResponse
	if err := json.Unmarshal(page.Body, &resp); err != nil {
		return nil, apperrors.NewUnparseableContentError(validation.SchemaAddressSearch, err.Error())
	}
	if len(resp.Features) == 0 {
		return nil, errNoMatch
	}

	feat := resp.Features[0]
	q := strings.ToLower(strings.TrimSpace(query))
	if feat.Properties.Type == "street" &&
		!strings.Contains(strings.ToLower(feat.Properties.City), q) &&
		!textnorm.IsDigits(q) {
		return nil, apperrors.NewAmbiguousLocationError(query, []string{feat.Properties.Label})
	}

	return &models.GeoResult{
		Label:           feat.Properties.Label,
		DetectedCountry: "France",
		Coordinates: models.Coordinates{
			Lon: feat.Geometry.Coordinates[0],
			Lat: feat.Geometry.Coordinates[1],
		},
		Provider: ProviderAddress,
	}, nil
}

// NominatimProvider queries OpenStreetMap worldwide. The country is guessed
// from the display name.
type NominatimProvider struct {
	client  Getter
	baseURL string
}

func NewNominatimProvider(client Getter, baseURL string) *NominatimProvider {
	return &NominatimProvider{client: client, baseURL: baseURL}
}

func (p *NominatimProvider) Name() string { return ProviderNominatim }

// flexFloat accepts both 4.85 and "4.85".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("bad coordinate %s: %w", b, err)
	}
	*f = flexFloat(v)
	return nil
}

type nominatimPlace struct {
	Lat         flexFloat `json:"lat"`
	Lon         flexFloat `json:"lon"`
	DisplayName string    `json:"display_name"`
}

func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*models.GeoResult, error) {
	page, err := p.client.Get(ctx, ProviderNominatim, withQuery(p.baseURL, url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}))
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateJSON(validation.SchemaNominatim, page.Body); err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(page.Body, &places); err != nil {
		return nil, apperrors.NewUnparseableContentError(validation.SchemaNominatim, err.Error())
	}
	if len(places) == 0 {
		return nil, errNoMatch
	}

	place := places[0]
	return &models.GeoResult{
		Label:           place.DisplayName,
		DetectedCountry: CountryFromLabel(place.DisplayName),
		Coordinates:     models.Coordinates{Lat: float64(place.Lat), Lon: float64(place.Lon)},
		Provider:        ProviderNominatim,
	}, nil
}

var countryHints = []struct {
	country string
	needles []string
}{
	{"Allemagne", []string{"Germany", "Deutschland"}},
	{"Espagne", []string{"Spain", "España"}},
	{"Belgique", []string{"Belgium", "Belgique", "België"}},
	{"Bénin", []string{"Benin", "Bénin"}},
	{"France", []string{"France"}},
}

// CountryFromLabel maps a display name onto a registry country, or "" when
// none matches.
func CountryFromLabel(label string) string {
	for _, h := range countryHints {
		for _, n := range h.needles {
			if strings.Contains(label, n) {
				return h.country
			}
		}
	}
	return ""
}

func withQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
