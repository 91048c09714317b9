// internal/workers/knowledge/ground-context/handler.go
package groundcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/events"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/common/metrics"
	"knowledge-workers/internal/common/observability"
	"knowledge-workers/internal/common/validation"
	"knowledge-workers/internal/knowledge/geo"
	"knowledge-workers/internal/knowledge/orchestrator"
	"knowledge-workers/internal/knowledge/profile"
	"knowledge-workers/internal/models"
)

const TaskType = "ground-context"

// Follow-up reasons appended to forced decisions.
const (
	ReasonLevelAnswer = "level answer follow-up"
	ReasonCityAnswer  = "city answer follow-up"
)

// Router scores a message per domain.
type Router interface {
	Route(text string, contextFlag bool) models.Decisions
	MentionsSubject(text string) bool
}

// Aggregator runs the routed fetchers and folds their results.
type Aggregator interface {
	Run(ctx context.Context, decisions models.Decisions) orchestrator.Results
	Fold(ctx context.Context, results orchestrator.Results) orchestrator.ContextBlock
}

// LocationResolver geocodes a location phrase.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (*models.LocationContext, error)
}

// LocationExtractor finds a location phrase in a message.
type LocationExtractor interface {
	ExtractLocation(text string) (query, extractor string, ok bool)
}

type Dependencies struct {
	Router       Router
	Aggregator   Aggregator
	Resolver     LocationResolver
	Locations    LocationExtractor
	Events       events.Sink
	Logger       logger.Logger
	Obs          *observability.Observability
	ErrorHandler *apperrors.ErrorHandler
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	router       Router
	aggregator   Aggregator
	resolver     LocationResolver
	locations    LocationExtractor
	sink         events.Sink
	obs          *observability.Observability
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(cfg *Config, deps Dependencies) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if deps.Router == nil || deps.Aggregator == nil {
		return nil, fmt.Errorf("%s needs a router and an aggregator", TaskType)
	}

	log := deps.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	sink := deps.Events
	if sink == nil {
		sink = events.NopSink{}
	}
	errorHandler := deps.ErrorHandler
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(log)
	}

	return &Handler{
		config:       cfg,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		router:       deps.Router,
		aggregator:   deps.Aggregator,
		resolver:     deps.Resolver,
		locations:    deps.Locations,
		sink:         sink,
		obs:          deps.Obs,
		errorHandler: errorHandler,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing ground-context job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.obs.RecordJobProcessed(ctx, "completed")
			h.obs.RecordJobDuration(ctx, time.Since(startTime), "completed")
			return
		}
	}

	code := string(apperrors.Normalize(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("job variables: %v", err))
	}
	if err := validation.ValidateValue(validation.SchemaGroundInput, variables); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("decode input: %v", err))
	}
	return &input, nil
}

// Execute grounds one message: route, apply follow-up overrides, fetch the
// routed domains while resolving the location, then fold.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewInvalidInputError("message is required")
	}

	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = events.WithRequestID(ctx, requestID)
	log := logger.ForRequest(h.logger, requestID, "")

	ctx, span := h.obs.StartSpan(ctx, "ground-context.execute", map[string]string{"requestId": requestID})
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	turns := profile.Trim(toTurns(input.History), h.config.MaxHistory)
	decisions := h.router.Route(message, h.contextFlag(turns))

	query, extractor, hasLocation := "", "", false
	if h.locations != nil {
		query, extractor, hasLocation = h.locations.ExtractLocation(message)
	}
	if profile.AskedForLevel(turns) && profile.IsBareLevelAnswer(message) {
		decisions.Force(models.DomainDegrees, ReasonLevelAnswer)
	}
	if profile.AskedForCity(turns) && hasLocation {
		decisions.Force(models.DomainCampus, ReasonCityAnswer)
	}
	h.recordDecisions(ctx, requestID, decisions)

	var (
		wg       sync.WaitGroup
		results  orchestrator.Results
		location *models.LocationContext
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results = h.aggregator.Run(ctx, decisions)
	}()
	if hasLocation && h.resolver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			location = h.resolveLocation(ctx, requestID, query, extractor)
		}()
	}
	wg.Wait()

	failed := results.Failed()
	if results.AllFailed() {
		spanErr = apperrors.NewAllSourcesFailedError(results.Errors())
		h.sink.Emit(ctx, events.New(requestID, "", events.KindRequestDone, events.LevelError,
			map[string]interface{}{"failedDomains": domainNames(failed)}))
		return nil, spanErr
	}

	block := h.aggregator.Fold(ctx, results)
	level := profile.DetectLevel(message, turns)

	sections := []string{block.String(), geo.Render(location), profile.LevelContext(level)}
	output := &Output{
		RequestID:     requestID,
		ContextBlock:  joinNonEmpty(sections),
		Decisions:     toDecisionOutputs(decisions),
		Location:      location,
		DetectedLevel: string(level),
		Degraded:      len(failed) > 0,
		FailedDomains: domainNames(failed),
	}

	h.sink.Emit(ctx, events.New(requestID, "", events.KindRequestDone, events.LevelInfo, map[string]interface{}{
		"called":   len(decisions.Called()),
		"degraded": output.Degraded,
		"location": location != nil,
		"level":    output.DetectedLevel,
	}))
	log.Info("Context grounded", map[string]interface{}{
		"called":        domainNames(decisions.Called()),
		"failedDomains": output.FailedDomains,
		"bytes":         len(output.ContextBlock),
	})
	return output, nil
}

// contextFlag reports whether a recent user turn already named the school.
func (h *Handler) contextFlag(turns []profile.Turn) bool {
	for _, text := range profile.RecentUserTurns(turns, h.config.ContextTurns) {
		if h.router.MentionsSubject(text) {
			return true
		}
	}
	return false
}

func (h *Handler) recordDecisions(ctx context.Context, requestID string, decisions models.Decisions) {
	for _, d := range models.AllDomains {
		dec := decisions[d]
		metrics.RouterDecisions.WithLabelValues(string(d), strconv.FormatBool(dec.Call)).Inc()
		h.sink.Emit(ctx, events.New(requestID, string(d), events.KindRouted, events.LevelDebug, map[string]interface{}{
			"call":    dec.Call,
			"score":   dec.Score,
			"reasons": dec.Reasons,
		}))
	}
}

// resolveLocation never fails the request; an unresolved place only drops
// the location section.
func (h *Handler) resolveLocation(ctx context.Context, requestID, query, extractor string) *models.LocationContext {
	lc, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		h.sink.Emit(ctx, events.New(requestID, "", events.KindGeoNotFound, events.LevelWarn, map[string]interface{}{
			"query":     query,
			"extractor": extractor,
			"error":     err.Error(),
		}))
		return nil
	}
	lc.Extractor = extractor
	h.sink.Emit(ctx, events.New(requestID, "", events.KindGeoResolved, events.LevelInfo, map[string]interface{}{
		"query":       query,
		"extractor":   extractor,
		"provider":    lc.Geo.Provider,
		"recommended": lc.Recommended.Facility.Name,
		"presence":    string(lc.Presence),
	}))
	return lc
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("Completed ground-context job", map[string]interface{}{
		"jobKey":              job.GetKey(),
		logger.FieldRequestID: output.RequestID,
		"degraded":            output.Degraded,
	})
}

func toTurns(history []HistoryTurn) []profile.Turn {
	turns := make([]profile.Turn, 0, len(history))
	for _, t := range history {
		sender := t.Sender
		if sender == "assistant" {
			sender = profile.SenderBot
		}
		turns = append(turns, profile.Turn{Sender: sender, Text: t.Text, IsError: t.IsError})
	}
	return turns
}

func toDecisionOutputs(decisions models.Decisions) map[string]DecisionOutput {
	out := make(map[string]DecisionOutput, len(models.AllDomains))
	for _, d := range models.AllDomains {
		dec := decisions[d]
		reasons := dec.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		out[string(d)] = DecisionOutput{Call: dec.Call, Score: dec.Score, Reasons: reasons}
	}
	return out
}

func domainNames(domains []models.Domain) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
