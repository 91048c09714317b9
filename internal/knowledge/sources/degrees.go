package sources

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/knowledge/extract"
	"knowledge-workers/internal/models"
)

const defaultDegreesConcurrency = 8

// CatalogProgram is one program of the fixed catalog. Paths are relative to
// the school site.
type CatalogProgram struct {
	Name     string
	Category string
	Level    string
	Paths    []string
}

// Catalog lists the official program pages.
var Catalog = []CatalogProgram{
	{
		Name:     "Programme Grande École",
		Category: "Diplôme",
		Level:    "Bac+5",
		Paths: []string{
			"/programme-grande-ecole-informatique/",
			"/programme-grande-ecole-informatique/etudier-a-letranger/",
		},
	},
	{
		Name:     "Programme Bachelor",
		Category: "Diplôme",
		Level:    "Bac+3",
		Paths: []string{
			"/formation-bachelor-ecole-informatique/",
			"/formation-bachelor-ecole-informatique/intelligence-artificielle/",
			"/formation-bachelor-ecole-informatique/cybersecurite/",
			"/formation-bachelor-ecole-informatique/cloud-web3/",
			"/formation-bachelor-ecole-informatique/tech-business-management/",
			"/formation-bachelor-ecole-informatique/developpeur-full-stack/",
		},
	},
	{
		Name:     "Programme Master of Science",
		Category: "Spécialisation",
		Level:    "Post Bac+2/Bac+3",
		Paths: []string{
			"/formation-alternance/pre-msc-post-bac2/",
			"/formation-alternance/master-of-science-post-bac3/",
			"/formation-alternance/master-of-science-cybersecurite/",
			"/formation-alternance/master-of-science-cloud/",
			"/formation-alternance/master-of-science-big-data/",
			"/formation-alternance/master-of-science-realite-virtuelle/",
			"/formation-alternance/master-of-science-intelligence-artificielle/",
			"/formation-alternance/master-of-science-robotique-iot/",
		},
	},
	{
		Name:     "MBA",
		Category: "MBA",
		Level:    "Post Bac+3",
		Paths: []string{
			"/formation-alternance/mba-strategic-project-management-entrepreneurship/",
			"/formation-alternance/mba-fintech-strategies-financieres/",
			"/formation-alternance/mba-marketing-influence/",
			"/formation-alternance/mba-intelligence-artificielle-transformation-organisation/",
			"/formation-alternance/mba-data-protection-securite/",
			"/formation-alternance/mba-digitalisation-de-la-fonction-rh/",
			"/formation-alternance/mba-sante-ia-iot/",
			"/formation-alternance/mba-data-science-business-intelligence/",
			"/formation-alternance/mba-luxe-retail-tech/",
		},
	},
}

// DegreesFetcher crawls every catalog page with bounded concurrency.
type DegreesFetcher struct {
	client      Getter
	baseURL     string
	catalog     []CatalogProgram
	concurrency int64
	logger      logger.Logger
}

func NewDegreesFetcher(client Getter, baseURL string, concurrency int, log logger.Logger) *DegreesFetcher {
	if concurrency <= 0 {
		concurrency = defaultDegreesConcurrency
	}
	return &DegreesFetcher{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		catalog:     Catalog,
		concurrency: int64(concurrency),
		logger:      log,
	}
}

func (f *DegreesFetcher) Domain() models.Domain { return models.DomainDegrees }

// Fetch never fails because of a single page: the page carries its error.
// It fails only when no page at all could be read.
func (f *DegreesFetcher) Fetch(ctx context.Context) (models.DomainResult, error) {
	result := models.DomainResult{Domain: models.DomainDegrees, SourceURL: f.baseURL}

	programs := make([]models.Program, len(f.catalog))
	errs := make([][]error, len(f.catalog))
	sem := semaphore.NewWeighted(f.concurrency)
	var g errgroup.Group

	for pi, prog := range f.catalog {
		programs[pi] = models.Program{
			Name:     prog.Name,
			Category: prog.Category,
			Level:    prog.Level,
			Pages:    make([]models.ProgramPage, len(prog.Paths)),
		}
		errs[pi] = make([]error, len(prog.Paths))
		for qi, path := range prog.Paths {
			url := f.baseURL + path
			g.Go(func() error {
				page, err := f.fetchPage(ctx, sem, url)
				programs[pi].Pages[qi] = page
				errs[pi][qi] = err
				return nil
			})
		}
	}
	_ = g.Wait()

	var firstErr error
	ok := 0
	for pi := range errs {
		for _, err := range errs[pi] {
			if err == nil {
				ok++
			} else if firstErr == nil {
				firstErr = err
			}
		}
	}
	if ok == 0 && firstErr != nil {
		return result, firstErr
	}

	result.Programs = programs
	return result, nil
}

func (f *DegreesFetcher) fetchPage(ctx context.Context, sem *semaphore.Weighted, url string) (models.ProgramPage, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		err = apperrors.NewUpstreamTimeoutError(string(models.DomainDegrees), url, err)
		return models.ProgramPage{URL: url, Err: err.Error()}, err
	}
	defer sem.Release(1)

	page, err := f.client.Get(ctx, string(models.DomainDegrees), url)
	if err != nil {
		f.logger.Debug("Program page unavailable", map[string]interface{}{
			logger.FieldURL: url,
			"error":         err.Error(),
		})
		return models.ProgramPage{URL: url, Err: err.Error()}, err
	}

	pp := extract.ProgramPage(string(page.Body), url)
	if pp.Title == "" && pp.Heading == "" && pp.ShortSnippet == "" {
		reportEmpty(f.logger, extract.KindProgramPage, url)
	}
	return pp, nil
}
