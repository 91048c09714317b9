package sources

import (
	"context"

	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/knowledge/extract"
	"knowledge-workers/internal/models"
)

// PedagogyFetcher reads the pedagogy page.
type PedagogyFetcher struct {
	client Getter
	url    string
	logger logger.Logger
}

func NewPedagogyFetcher(client Getter, url string, log logger.Logger) *PedagogyFetcher {
	return &PedagogyFetcher{client: client, url: url, logger: log}
}

func (f *PedagogyFetcher) Domain() models.Domain { return models.DomainPedagogy }

func (f *PedagogyFetcher) Fetch(ctx context.Context) (models.DomainResult, error) {
	result := models.DomainResult{Domain: models.DomainPedagogy, SourceURL: f.url}

	page, err := f.client.Get(ctx, string(models.DomainPedagogy), f.url)
	if err != nil {
		return result, err
	}

	rec, ok := extract.Extract(string(page.Body), extract.KindPedagogy)
	if !ok {
		reportEmpty(f.logger, extract.KindPedagogy, f.url)
	}
	rec.Pedagogy.SourceURL = f.url
	result.Pedagogy = rec.Pedagogy
	return result, nil
}

// ValuesFetcher reads the engagements page for the values sentence.
type ValuesFetcher struct {
	client Getter
	url    string
	logger logger.Logger
}

func NewValuesFetcher(client Getter, url string, log logger.Logger) *ValuesFetcher {
	return &ValuesFetcher{client: client, url: url, logger: log}
}

func (f *ValuesFetcher) Domain() models.Domain { return models.DomainValues }

func (f *ValuesFetcher) Fetch(ctx context.Context) (models.DomainResult, error) {
	result := models.DomainResult{Domain: models.DomainValues, SourceURL: f.url}

	page, err := f.client.Get(ctx, string(models.DomainValues), f.url)
	if err != nil {
		return result, err
	}

	rec, ok := extract.Extract(string(page.Body), extract.KindValues)
	if !ok {
		reportEmpty(f.logger, extract.KindValues, f.url)
	}
	rec.Values.SourceURL = f.url
	result.Values = rec.Values
	return result, nil
}
