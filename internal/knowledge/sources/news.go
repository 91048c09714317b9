package sources

import (
	"context"
	"net/url"

	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/knowledge/extract"
	"knowledge-workers/internal/models"
)

// NewsFetcher reads the news listing, either as HTML articles or as a JSON
// feed.
type NewsFetcher struct {
	client Getter
	url    string
	logger logger.Logger
}

func NewNewsFetcher(client Getter, url string, log logger.Logger) *NewsFetcher {
	return &NewsFetcher{client: client, url: url, logger: log}
}

func (f *NewsFetcher) Domain() models.Domain { return models.DomainNews }

func (f *NewsFetcher) Fetch(ctx context.Context) (models.DomainResult, error) {
	result := models.DomainResult{Domain: models.DomainNews, SourceURL: f.url}

	page, err := f.client.Get(ctx, string(models.DomainNews), f.url)
	if err != nil {
		return result, err
	}

	var items []models.NewsItem
	if page.IsJSON() {
		items, err = decodeNewsPayload(page.Body)
		if err != nil {
			return result, err
		}
	} else {
		items = extract.News(string(page.Body))
		if len(items) == 0 {
			reportEmpty(f.logger, extract.KindNews, f.url)
		}
	}

	for i := range items {
		items[i].Link = absoluteLink(f.url, items[i].Link)
	}
	result.News = items
	return result, nil
}

// absoluteLink resolves a relative article link against the listing page.
func absoluteLink(base, link string) string {
	if link == "" {
		return ""
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	b, err := url.Parse(base)
	if err != nil {
		return link
	}
	return b.ResolveReference(ref).String()
}
