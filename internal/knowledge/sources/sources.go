// Package sources holds one fetcher per knowledge domain. Fetchers do the
// HTTP retrieval and hand the markup to the extract package.
package sources

import (
	"context"
	"time"

	"knowledge-workers/internal/common/config"
	apphttp "knowledge-workers/internal/common/http"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/common/metrics"
	"knowledge-workers/internal/knowledge/extract"
	"knowledge-workers/internal/models"
	"knowledge-workers/pkg/registry"
)

// Fetcher retrieves the live facts of one domain.
type Fetcher interface {
	Domain() models.Domain
	Fetch(ctx context.Context) (models.DomainResult, error)
}

// Getter is the HTTP surface fetchers need.
type Getter interface {
	Get(ctx context.Context, source, rawURL string) (*apphttp.Page, error)
}

// NewClient builds the shared HTTP client from the sources section.
func NewClient(cfg config.SourcesConfig) *apphttp.Client {
	return apphttp.NewClient(
		time.Duration(cfg.Timeout)*time.Millisecond,
		apphttp.WithUserAgent(cfg.UserAgent),
		apphttp.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
}

// NewFetchers returns a fetcher for every domain, keyed by domain.
func NewFetchers(cfg config.SourcesConfig, client Getter, reg *registry.FacilityRegistry, log logger.Logger) map[models.Domain]Fetcher {
	return map[models.Domain]Fetcher{
		models.DomainCampus: NewCampusFetcher(client, reg, CampusOptions{
			ContactURL:  cfg.ContactURL,
			Crawl:       cfg.CampusCrawl,
			Concurrency: cfg.CampusConcurrency,
		}, log),
		models.DomainDegrees:  NewDegreesFetcher(client, cfg.BaseURL, cfg.DegreesConcurrency, log),
		models.DomainNews:     NewNewsFetcher(client, cfg.NewsURL, log),
		models.DomainPedagogy: NewPedagogyFetcher(client, cfg.PedagogyURL, log),
		models.DomainValues:   NewValuesFetcher(client, cfg.ValuesURL, log),
	}
}

// reportEmpty records a page whose wording no longer matches the extractor.
func reportEmpty(log logger.Logger, kind extract.Kind, url string) {
	metrics.ExtractionEmpty.WithLabelValues(string(kind)).Inc()
	log.Warn("Extraction found nothing, page layout may have changed", map[string]interface{}{
		"kind":          string(kind),
		logger.FieldURL: url,
	})
}
