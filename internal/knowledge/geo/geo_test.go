package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "knowledge-workers/internal/common/errors"
	apphttp "knowledge-workers/internal/common/http"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/models"
	"knowledge-workers/pkg/registry"
)

const metzAddress = `{"features":[{"geometry":{"coordinates":[6.1757,49.1193]},
	"properties":{"label":"Metz","city":"Metz","type":"municipality"}}]}`

func serve(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newResolver(t *testing.T, providers ...Provider) *Resolver {
	t.Helper()
	return NewResolver(registry.MustDefault(), providers, Options{Timeout: time.Second}, logger.NewTestLogger(t))
}

type stubProvider struct {
	name string
	fn   func(ctx context.Context, query string) (*models.GeoResult, error)
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Geocode(ctx context.Context, query string) (*models.GeoResult, error) {
	return s.fn(ctx, query)
}

func TestHaversine(t *testing.T) {
	paris := models.Coordinates{Lat: 48.8566, Lon: 2.3522}
	lyon := models.Coordinates{Lat: 45.7640, Lon: 4.8357}
	assert.InDelta(t, 392, Haversine(paris, lyon), 2)
	assert.Zero(t, Haversine(paris, paris))
}

func TestResolve_MetzRecommendsNancyWithGuard(t *testing.T) {
	srv := serve(t, metzAddress, nil)
	client := apphttp.NewClient(time.Second)
	r := newResolver(t, NewAddressProvider(client, srv.URL))

	lc, err := r.Resolve(context.Background(), "Metz")
	require.NoError(t, err)

	assert.Equal(t, "Nancy", lc.Recommended.Facility.Name)
	assert.Equal(t, "Nancy", lc.NearestOverall.Facility.Name)
	require.NotNil(t, lc.NearestInCountry)
	assert.Equal(t, "France", lc.Geo.DetectedCountry)
	assert.Equal(t, models.PresenceRemote, lc.Presence)
	assert.False(t, lc.NationalPreference)
	assert.Contains(t, lc.Guard, "Il n'y a PAS de campus à Metz")
	assert.Contains(t, lc.Guard, "Nancy (47km)")
	assert.Len(t, lc.Ranking, len(registry.MustDefault().All()))

	out := Render(lc)
	assert.Contains(t, out, "[INFO SYSTÈME: LOCALISATION]")
	assert.Contains(t, out, "Campus recommandé (PROXIMITÉ) : NANCY (47 km).")
	assert.Contains(t, out, "(Metz (Pays: France))")
	assert.Contains(t, out, "GARDE-FOU")
}

func TestResolve_DirectMatchSkipsNetwork(t *testing.T) {
	var hits int32
	srv := serve(t, metzAddress, &hits)
	r := newResolver(t, NewAddressProvider(apphttp.NewClient(time.Second), srv.URL))

	for _, q := range []string{"Lyon", "lyon", "Barcelona"} {
		lc, err := r.Resolve(context.Background(), q)
		require.NoError(t, err, q)
		assert.Equal(t, ProviderRegistry, lc.Geo.Provider)
		assert.Equal(t, models.PresenceCoLocated, lc.Presence)
		assert.Zero(t, lc.Recommended.DistanceKm)
		assert.Empty(t, lc.Guard)
	}
	assert.Zero(t, atomic.LoadInt32(&hits))

	lc, err := r.Resolve(context.Background(), "Lyon")
	require.NoError(t, err)
	out := Render(lc)
	assert.Contains(t, out, "Epitech est à LYON !")
	assert.Contains(t, out, "Contact : lyon@epitech.eu | 04 28 29 33 25")
	assert.NotContains(t, out, "GARDE-FOU")
}

func TestRecommend_NationalPreference(t *testing.T) {
	far := models.Facility{Name: "Home", Country: "France"}
	near := models.Facility{Name: "Abroad", Country: "Belgique"}

	ranked := []models.RankedFacility{{Facility: near, DistanceKm: 50}, {Facility: far, DistanceKm: 200}}
	rec, inCountry, national := Recommend(ranked, "France", 200)
	assert.Equal(t, "Home", rec.Facility.Name)
	assert.True(t, national)
	require.NotNil(t, inCountry)

	ranked = []models.RankedFacility{{Facility: near, DistanceKm: 50}, {Facility: far, DistanceKm: 300}}
	rec, _, national = Recommend(ranked, "France", 200)
	assert.Equal(t, "Abroad", rec.Facility.Name)
	assert.False(t, national)

	ranked = []models.RankedFacility{{Facility: near, DistanceKm: 80}, {Facility: far, DistanceKm: 80 + 150}}
	rec, _, _ = Recommend(ranked, "France", 200)
	assert.Equal(t, "Home", rec.Facility.Name)

	ranked = []models.RankedFacility{{Facility: near, DistanceKm: 80}, {Facility: far, DistanceKm: 80 + 250}}
	rec, _, _ = Recommend(ranked, "France", 200)
	assert.Equal(t, "Abroad", rec.Facility.Name)

	rec, inCountry, national = Recommend(ranked, "", 200)
	assert.Equal(t, "Abroad", rec.Facility.Name)
	assert.Nil(t, inCountry)
	assert.False(t, national)
}

func TestRank_TiesBrokenByName(t *testing.T) {
	at := models.Coordinates{Lat: 45, Lon: 5}
	ranked := Rank(at, []models.Facility{
		{Name: "Zeta", Coordinates: at},
		{Name: "Alpha", Coordinates: at},
		{Name: "Far", Coordinates: models.Coordinates{Lat: 50, Lon: 5}},
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"Alpha", "Zeta", "Far"}, []string{
		ranked[0].Facility.Name, ranked[1].Facility.Name, ranked[2].Facility.Name,
	})
}

func TestAddressProvider_StreetMatchRejected(t *testing.T) {
	street := `{"features":[{"geometry":{"coordinates":[2.35,48.85]},
		"properties":{"label":"Rue de Metz 75010 Paris","city":"Paris","type":"street"}}]}`
	srv := serve(t, street, nil)
	p := NewAddressProvider(apphttp.NewClient(time.Second), srv.URL)

	_, err := p.Geocode(context.Background(), "Metz")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAmbiguousLocation, apperrors.CodeOf(err))

	geo, err := p.Geocode(context.Background(), "75010")
	require.NoError(t, err)
	assert.Equal(t, "Rue de Metz 75010 Paris", geo.Label)
	assert.InDelta(t, 48.85, geo.Coordinates.Lat, 1e-9)
}

func TestResolve_FallsBackToNominatim(t *testing.T) {
	empty := serve(t, `{"features":[]}`, nil)
	osm := serve(t, `[{"lat":"52.52","lon":13.405,"display_name":"Berlin, Deutschland"}]`, nil)
	client := apphttp.NewClient(time.Second)

	r := newResolver(t,
		NewAddressProvider(client, empty.URL),
		NewNominatimProvider(client, osm.URL),
	)
	lc, err := r.Resolve(context.Background(), "Mitte")
	require.NoError(t, err)
	assert.Equal(t, ProviderNominatim, lc.Geo.Provider)
	assert.Equal(t, "Allemagne", lc.Geo.DetectedCountry)
	assert.Equal(t, "Berlin", lc.Recommended.Facility.Name)
	assert.Equal(t, models.PresenceCoLocated, lc.Presence)
}

func TestResolve_NotFound(t *testing.T) {
	r := newResolver(t, NewAddressProvider(apphttp.NewClient(time.Second), serve(t, `{"features":[]}`, nil).URL))
	lc, err := r.Resolve(context.Background(), "Atlantis")
	assert.Nil(t, lc)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, apperrors.ErrCodeLocationNotFound, apperrors.CodeOf(err))

	_, err = r.Resolve(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolve_TimeoutIsNotFound(t *testing.T) {
	var second int32
	blocking := stubProvider{name: "slow", fn: func(ctx context.Context, _ string) (*models.GeoResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	never := stubProvider{name: "never", fn: func(context.Context, string) (*models.GeoResult, error) {
		atomic.AddInt32(&second, 1)
		return nil, errNoMatch
	}}

	r := NewResolver(registry.MustDefault(), []Provider{blocking, never},
		Options{Timeout: 20 * time.Millisecond}, logger.NewNoOpLogger())
	_, err := r.Resolve(context.Background(), "Somewhere")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, atomic.LoadInt32(&second))
}

func TestCountryFromLabel(t *testing.T) {
	cases := map[string]string{
		"Madrid, Comunidad de Madrid, España": "Espagne",
		"Liège, Wallonie, Belgique":           "Belgique",
		"Porto-Novo, Bénin":                   "Bénin",
		"Lille, Nord, France":                 "France",
		"Tokyo, Japan":                        "",
	}
	for label, want := range cases {
		assert.Equal(t, want, CountryFromLabel(label), label)
	}
}

func TestExtractLocation(t *testing.T) {
	f := NewLocationFinder(registry.MustDefault())

	cases := []struct {
		text      string
		query     string
		extractor string
	}{
		{"J'habite au 57000, c'est loin ?", "57000", ExtractorPostalCode},
		{"J’habite à Metz", "Metz", ExtractorVerbCity},
		{"je viens de Grenoble", "Grenoble", ExtractorVerbCity},
		{"Le campus Lyon est où ?", "Lyon", ExtractorFacilityCity},
		{"il y a quoi à Nancy ?", "Nancy", ExtractorDictionary},
		{"et à barcelona ?", "Barcelone", ExtractorAlias},
	}
	for _, tc := range cases {
		q, ex, ok := f.ExtractLocation(tc.text)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.query, q, tc.text)
		assert.Equal(t, tc.extractor, ex, tc.text)
	}

	for _, text := range []string{
		"La pédagogie à Lyon ?",
		"ça a l'air cool",
		"je suis à la recherche d'un stage",
		"bonjour",
		"mon numéro 0612345678",
	} {
		_, _, ok := f.ExtractLocation(text)
		assert.False(t, ok, text)
	}
	assert.Len(t, f.Extractors(), 5)
}

func TestRender_UnknownCountryAndMissingContact(t *testing.T) {
	lc := &models.LocationContext{
		Query:       "Tokyo",
		Geo:         models.GeoResult{Label: "Tokyo, Japan"},
		Recommended: models.RankedFacility{Facility: models.Facility{Name: "Berlin", Address: "x"}, DistanceKm: 8918.7},
		Presence:    models.PresenceRemote,
		Guard:       Guard("Tokyo", models.RankedFacility{Facility: models.Facility{Name: "Berlin"}, DistanceKm: 8918.7}),
	}
	out := Render(lc)
	assert.Contains(t, out, "(Pays: Inconnu)")
	assert.Contains(t, out, "BERLIN (8918 km)")
	assert.Contains(t, out, "Contact : non communiqué | non communiqué")
	assert.True(t, strings.HasSuffix(out, "N'invente JAMAIS d'adresse pour Tokyo.\n"))
	assert.Empty(t, Render(nil))
}
