// Package geo turns a location phrase into the nearest school site, with a
// national preference and a guard text when the school is not present there.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/common/metrics"
	"knowledge-workers/internal/models"
	"knowledge-workers/pkg/registry"
)

// ErrNotFound is wrapped by every resolution failure.
var ErrNotFound = errors.New("location not found")

const (
	defaultTimeout     = 5 * time.Second
	defaultSlackKm     = 200
	defaultCoLocatedKm = 10
)

type Options struct {
	Timeout         time.Duration
	NationalSlackKm float64
	CoLocatedKm     float64
}

// Resolver geocodes through an ordered provider cascade and ranks the
// registry facilities around the result.
type Resolver struct {
	reg       *registry.FacilityRegistry
	providers []Provider
	opts      Options
	log       logger.Logger
}

func NewResolver(reg *registry.FacilityRegistry, providers []Provider, opts Options, log logger.Logger) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.NationalSlackKm <= 0 {
		opts.NationalSlackKm = defaultSlackKm
	}
	if opts.CoLocatedKm <= 0 {
		opts.CoLocatedKm = defaultCoLocatedKm
	}
	return &Resolver{reg: reg, providers: providers, opts: opts, log: log}
}

// Resolve never returns a partial context: either every field is set or the
// error wraps ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, query string) (*models.LocationContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewLocationNotFoundError(query, ErrNotFound)
	}

	if name, ok := r.reg.Canonical(query); ok {
		metrics.GeoResolutions.WithLabelValues(ProviderRegistry, metrics.OutcomeOK).Inc()
		return r.direct(query, name), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	var lastErr error
	for _, p := range r.providers {
		geo, err := p.Geocode(ctx, query)
		if err == nil {
			metrics.GeoResolutions.WithLabelValues(p.Name(), metrics.OutcomeOK).Inc()
			return r.locate(query, *geo), nil
		}

		lastErr = err
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(err, errNoMatch):
			outcome = metrics.OutcomeNotFound
		case ctx.Err() != nil || apperrors.CodeOf(err) == apperrors.ErrCodeUpstreamTimeout:
			outcome = metrics.OutcomeTimeout
		}
		metrics.GeoResolutions.WithLabelValues(p.Name(), outcome).Inc()
		r.log.Debug("Geocoding provider failed", map[string]interface{}{
			"provider": p.Name(),
			"query":    query,
			"error":    err.Error(),
		})

		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = errNoMatch
	}
	return nil, apperrors.NewLocationNotFoundError(query, fmt.Errorf("%w: %v", ErrNotFound, lastErr))
}

func (r *Resolver) direct(query, name string) *models.LocationContext {
	f, _ := r.reg.Get(name)
	geo := models.GeoResult{
		Label:           f.Name,
		DetectedCountry: f.Country,
		Coordinates:     f.Coordinates,
		Provider:        ProviderRegistry,
	}
	lc := r.locate(query, geo)
	// Sites sharing coordinates would otherwise tie by name.
	self := models.RankedFacility{Facility: f}
	lc.NearestOverall, lc.Recommended = self, self
	lc.NearestInCountry = &self
	lc.NationalPreference = false
	lc.Presence = models.PresenceCoLocated
	lc.Guard = ""
	return lc
}

func (r *Resolver) locate(query string, geo models.GeoResult) *models.LocationContext {
	ranked := Rank(geo.Coordinates, r.reg.All())
	rec, inCountry, national := Recommend(ranked, geo.DetectedCountry, r.opts.NationalSlackKm)

	lc := &models.LocationContext{
		Query:              query,
		Geo:                geo,
		Ranking:            ranked,
		NearestOverall:     ranked[0],
		NearestInCountry:   inCountry,
		Recommended:        rec,
		NationalPreference: national,
		Presence:           models.PresenceRemote,
	}
	if sameCity(query, rec.Facility.Name) || rec.DistanceKm < r.opts.CoLocatedKm {
		lc.Presence = models.PresenceCoLocated
	} else {
		lc.Guard = Guard(query, rec)
	}
	return lc
}

func sameCity(query, facility string) bool {
	q, f := strings.ToLower(query), strings.ToLower(facility)
	return strings.Contains(q, f) || strings.Contains(f, q)
}

// Guard is the instruction attached when the school has no site at query.
func Guard(query string, nearest models.RankedFacility) string {
	return fmt.Sprintf(
		"⚠️ GARDE-FOU : Il n'y a PAS de campus à %s. Le plus proche est %s (%dkm). N'invente JAMAIS d'adresse pour %s.",
		query, nearest.Facility.Name, int(nearest.DistanceKm), query,
	)
}
