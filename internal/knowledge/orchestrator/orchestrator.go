// Package orchestrator fans a request out to the routed domain fetchers and
// folds their results into one context block.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/events"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/common/metrics"
	"knowledge-workers/internal/common/observability"
	"knowledge-workers/internal/knowledge/sources"
	"knowledge-workers/internal/models"
)

const defaultTimeout = 15 * time.Second

// Outcome is what one domain produced: a result or a typed error.
type Outcome struct {
	Result   models.DomainResult
	Err      *apperrors.StandardError
	Duration time.Duration
}

// Results maps each called domain to its outcome.
type Results map[models.Domain]Outcome

// Failed lists the failed domains in fold order.
func (r Results) Failed() []models.Domain {
	var out []models.Domain
	for _, d := range models.AllDomains {
		if o, ok := r[d]; ok && o.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// AllFailed reports whether at least one domain ran and none succeeded.
func (r Results) AllFailed() bool {
	return len(r) > 0 && len(r.Failed()) == len(r)
}

// Errors returns the failures keyed by domain name.
func (r Results) Errors() map[string]error {
	out := make(map[string]error)
	for d, o := range r {
		if o.Err != nil {
			out[string(d)] = o.Err
		}
	}
	return out
}

type Options struct {
	Timeout      time.Duration // per domain
	NewsMaxItems int
}

type Orchestrator struct {
	fetchers map[models.Domain]sources.Fetcher
	opts     Options
	sink     events.Sink
	obs      *observability.Observability
	log      logger.Logger
}

func New(fetchers map[models.Domain]sources.Fetcher, opts Options, sink events.Sink, obs *observability.Observability, log logger.Logger) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.NewsMaxItems <= 0 {
		opts.NewsMaxItems = defaultNewsItems
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Orchestrator{fetchers: fetchers, opts: opts, sink: sink, obs: obs, log: log}
}

// Run fetches every domain whose decision says call. A failure stays with
// its domain; siblings always run to completion or to their own timeout.
func (o *Orchestrator) Run(ctx context.Context, decisions models.Decisions) Results {
	called := decisions.Called()
	results := make(Results, len(called))
	if len(called) == 0 {
		return results
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range called {
		g.Go(func() error {
			out := o.runDomain(gctx, d)
			mu.Lock()
			results[d] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) runDomain(ctx context.Context, d models.Domain) Outcome {
	requestID := events.RequestID(ctx)
	log := logger.ForRequest(o.log, requestID, string(d))

	fetcher, ok := o.fetchers[d]
	if !ok {
		err := apperrors.NewUnknownDomainError(string(d))
		o.sink.Emit(ctx, events.New(requestID, string(d), events.KindFetchFailed, events.LevelError,
			map[string]interface{}{"code": string(err.Code)}))
		return Outcome{Err: err}
	}

	ctx, span := o.obs.StartSpan(ctx, "knowledge.fetch", map[string]string{"domain": string(d)})
	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	o.sink.Emit(ctx, events.New(requestID, string(d), events.KindFetchStarted, events.LevelDebug, nil))
	start := time.Now()
	res, err := fetcher.Fetch(ctx)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	var stdErr *apperrors.StandardError
	if err != nil {
		stdErr = classify(ctx, d, err)
		outcome = metrics.OutcomeError
		if stdErr.Code == apperrors.ErrCodeUpstreamTimeout {
			outcome = metrics.OutcomeTimeout
		}
	}

	metrics.KnowledgeFetches.WithLabelValues(string(d), outcome).Inc()
	metrics.KnowledgeFetchDuration.WithLabelValues(string(d)).Observe(elapsed.Seconds())
	o.obs.RecordDomainDuration(ctx, string(d), elapsed, outcome)
	observability.EndSpan(span, err)

	fields := map[string]interface{}{logger.FieldDuration: elapsed.Milliseconds()}
	if stdErr != nil {
		fields["code"] = string(stdErr.Code)
		fields["error"] = stdErr.Error()
		if stdErr.Details != "" {
			fields["details"] = stdErr.Details
		}
		o.sink.Emit(ctx, events.New(requestID, string(d), events.KindFetchFailed, events.LevelWarn, fields))
		log.Warn("Domain fetch failed", fields)
		return Outcome{Err: stdErr, Duration: elapsed}
	}
	o.sink.Emit(ctx, events.New(requestID, string(d), events.KindFetchSucceeded, events.LevelInfo, fields))
	return Outcome{Result: res, Duration: elapsed}
}

// classify maps a fetch error onto a StandardError. Deadline expiry of the
// per-domain context is reported as an upstream timeout.
func classify(ctx context.Context, d models.Domain, err error) *apperrors.StandardError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && apperrors.CodeOf(err) != apperrors.ErrCodeUpstreamTimeout {
		return apperrors.NewUpstreamTimeoutError(string(d), "", err)
	}
	return apperrors.Normalize(err)
}

// Fold renders results and emits one folded event per rendered domain.
func (o *Orchestrator) Fold(ctx context.Context, results Results) ContextBlock {
	block := Fold(results, FoldOptions{NewsMaxItems: o.opts.NewsMaxItems})
	requestID := events.RequestID(ctx)
	for _, s := range block.Sections {
		o.sink.Emit(ctx, events.New(requestID, string(s.Domain), events.KindFolded, events.LevelDebug,
			map[string]interface{}{"bytes": len(s.Text)}))
	}
	return block
}
