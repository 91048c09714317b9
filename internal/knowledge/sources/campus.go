package sources

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/knowledge/extract"
	"knowledge-workers/internal/models"
	"knowledge-workers/pkg/registry"
)

const defaultCampusConcurrency = 4

type CampusOptions struct {
	ContactURL string
	// Crawl follows every campus page to list its programs.
	Crawl       bool
	Concurrency int
}

// CampusFetcher reads the contact directory: which campuses exist and how to
// reach them.
type CampusFetcher struct {
	client Getter
	reg    *registry.FacilityRegistry
	opts   CampusOptions
	logger logger.Logger
}

func NewCampusFetcher(client Getter, reg *registry.FacilityRegistry, opts CampusOptions, log logger.Logger) *CampusFetcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultCampusConcurrency
	}
	return &CampusFetcher{client: client, reg: reg, opts: opts, logger: log}
}

func (f *CampusFetcher) Domain() models.Domain { return models.DomainCampus }

func (f *CampusFetcher) Fetch(ctx context.Context) (models.DomainResult, error) {
	result := models.DomainResult{Domain: models.DomainCampus, SourceURL: f.opts.ContactURL}

	page, err := f.client.Get(ctx, string(models.DomainCampus), f.opts.ContactURL)
	if err != nil {
		return result, err
	}

	if page.IsJSON() {
		entries, err := decodeCampusPayload(page.Body, f.opts.ContactURL)
		if err != nil {
			return result, err
		}
		result.Campus = entries
		return result, nil
	}

	result.Campus = f.fromContactPage(string(page.Body))
	if len(result.Campus) == 0 {
		reportEmpty(f.logger, extract.KindContact, f.opts.ContactURL)
		return result, nil
	}
	if f.opts.Crawl {
		f.crawlPrograms(ctx, result.Campus)
	}
	return result, nil
}

func (f *CampusFetcher) fromContactPage(markup string) []models.CampusEntry {
	sites := f.reg.Sites()
	known := make([]string, len(sites))
	for i, s := range sites {
		known[i] = s.City
	}

	contacts := make(map[string]models.ExtractedContact)
	for _, b := range extract.ContactBlocks(extract.Lines(markup)) {
		contacts[b.City] = b.Contact
	}

	cities := extract.Cities(markup, known)
	entries := make([]models.CampusEntry, 0, len(cities))
	for _, city := range cities {
		country, _ := f.reg.SiteCountry(city)
		contact, ok := contacts[city]
		if !ok {
			contact = models.ExtractedContact{AddressLines: []string{}}
		}
		entries = append(entries, models.CampusEntry{
			City:             city,
			Country:          country,
			URL:              f.reg.CampusURL(city),
			Contact:          contact,
			Programs:         []string{},
			ContactSourceURL: f.opts.ContactURL,
		})
	}
	return entries
}

// crawlPrograms fills Programs from each campus page. A failing page leaves
// its entry without programs.
func (f *CampusFetcher) crawlPrograms(ctx context.Context, entries []models.CampusEntry) {
	sem := semaphore.NewWeighted(int64(f.opts.Concurrency))
	var wg sync.WaitGroup
	for i := range entries {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(e *models.CampusEntry) {
			defer wg.Done()
			defer sem.Release(1)

			page, err := f.client.Get(ctx, string(models.DomainCampus), e.URL)
			if err != nil {
				f.logger.Debug("Campus page unavailable", map[string]interface{}{
					"city":          e.City,
					logger.FieldURL: e.URL,
					"error":         err.Error(),
				})
				return
			}
			e.Programs = extract.CampusPrograms(string(page.Body))
		}(&entries[i])
	}
	wg.Wait()
}
