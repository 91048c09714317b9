package groundcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-workers/internal/common/config"
	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/events"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/common/observability"
	"knowledge-workers/internal/knowledge/geo"
	"knowledge-workers/internal/knowledge/orchestrator"
	"knowledge-workers/internal/knowledge/router"
	"knowledge-workers/internal/knowledge/sources"
	"knowledge-workers/internal/models"
	"knowledge-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

type stubFetcher struct {
	domain models.Domain
	result models.DomainResult
	err    error
}

func (s stubFetcher) Domain() models.Domain { return s.domain }

func (s stubFetcher) Fetch(context.Context) (models.DomainResult, error) {
	if s.err != nil {
		return models.DomainResult{}, s.err
	}
	res := s.result
	res.Domain = s.domain
	return res, nil
}

func healthyFetchers() map[models.Domain]sources.Fetcher {
	return map[models.Domain]sources.Fetcher{
		models.DomainCampus: stubFetcher{domain: models.DomainCampus, result: models.DomainResult{
			Campus: []models.CampusEntry{
				{City: "Madrid", Country: "Espagne", Programs: []string{"Programme Grande École"}},
				{City: "Barcelone", Country: "Espagne"},
			},
		}},
		models.DomainDegrees: stubFetcher{domain: models.DomainDegrees, result: models.DomainResult{
			Programs: []models.Program{{Name: "MSc Pro", Pages: []models.ProgramPage{{URL: "https://x/msc", ShortSnippet: "Deux ans."}}}},
		}},
		models.DomainNews:     stubFetcher{domain: models.DomainNews},
		models.DomainPedagogy: stubFetcher{domain: models.DomainPedagogy, result: models.DomainResult{Pedagogy: &models.PedagogyFacts{}}},
		models.DomainValues:   stubFetcher{domain: models.DomainValues, result: models.DomainResult{Values: &models.ValuesFacts{}}},
	}
}

func upstreamDown(d models.Domain) sources.Fetcher {
	return stubFetcher{domain: d, err: apperrors.NewUpstreamUnavailableError(string(d), "https://x", errors.New("503"))}
}

func createTestHandler(t *testing.T, fetchers map[models.Domain]sources.Fetcher, sink events.Sink) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	reg := registry.MustDefault()
	obs := observability.NewNoop()

	h, err := NewHandler(DefaultConfig(), Dependencies{
		Router:     router.New(config.RouterThresholds{}),
		Aggregator: orchestrator.New(fetchers, orchestrator.Options{Timeout: time.Second}, sink, obs, log),
		Resolver:   geo.NewResolver(reg, nil, geo.Options{Timeout: time.Second}, log),
		Locations:  geo.NewLocationFinder(reg),
		Events:     sink,
		Logger:     log,
		Obs:        obs,
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_CampusQuestion(t *testing.T) {
	rec := events.NewRecorder()
	h := createTestHandler(t, healthyFetchers(), rec)

	out, err := h.Execute(context.Background(), &Input{
		Message:   "Quels sont les campus en Espagne ?",
		RequestID: "req-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "req-1", out.RequestID)
	assert.True(t, out.Decisions["campus"].Call)
	assert.False(t, out.Decisions["news"].Call)
	assert.Len(t, out.Decisions, len(models.AllDomains))
	assert.Contains(t, out.ContextBlock, "[SYSTÈME: DONNÉES CAMPUS LIVE - 2 CAMPUS TROUVÉS]")
	assert.Contains(t, out.ContextBlock, "1. MADRID (Espagne) : Programme Grande École")
	assert.Contains(t, out.ContextBlock, "NIVEAU D'ÉTUDES INCONNU")
	assert.Nil(t, out.Location)
	assert.False(t, out.Degraded)
	assert.Empty(t, out.FailedDomains)

	assert.Equal(t, []string{events.KindRouted, events.KindFetchStarted, events.KindFetchSucceeded, events.KindFolded},
		rec.Kinds("campus"))
	assert.Equal(t, []string{events.KindRouted}, rec.Kinds("news"))
	for _, ev := range rec.Events() {
		assert.Equal(t, "req-1", ev.RequestID)
	}
}

func TestHandler_Execute_GeneratesRequestID(t *testing.T) {
	h := createTestHandler(t, healthyFetchers(), nil)

	out, err := h.Execute(context.Background(), &Input{Message: "merci"})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(out.RequestID)
	assert.NoError(t, parseErr)
	assert.Empty(t, out.FailedDomains)
	assert.NotContains(t, out.ContextBlock, "[SYSTÈME:")
}

func TestHandler_Execute_PartialFailureIsDegraded(t *testing.T) {
	fetchers := healthyFetchers()
	fetchers[models.DomainDegrees] = upstreamDown(models.DomainDegrees)
	h := createTestHandler(t, fetchers, nil)

	out, err := h.Execute(context.Background(), &Input{Message: "Scrape les formations et campus Epitech"})
	require.NoError(t, err)

	assert.True(t, out.Degraded)
	assert.Equal(t, []string{"degrees"}, out.FailedDomains)
	assert.Contains(t, out.ContextBlock, "DONNÉES CAMPUS LIVE")
	assert.NotContains(t, out.ContextBlock, "FORMATIONS EPITECH LIVE")
}

func TestHandler_Execute_AllSourcesFailed(t *testing.T) {
	fetchers := healthyFetchers()
	fetchers[models.DomainDegrees] = upstreamDown(models.DomainDegrees)
	fetchers[models.DomainCampus] = upstreamDown(models.DomainCampus)
	h := createTestHandler(t, fetchers, nil)

	out, err := h.Execute(context.Background(), &Input{Message: "Scrape les formations et campus Epitech"})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAllSourcesFailed, apperrors.CodeOf(err))
	assert.Equal(t, "ALL_SOURCES_FAILED", apperrors.ConvertToBPMNError(apperrors.Normalize(err)).Code)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t, healthyFetchers(), nil)

	_, err := h.Execute(context.Background(), &Input{Message: "   "})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
}

// ==========================
// Follow-up Override Tests
// ==========================

func TestHandler_Execute_LevelAnswerForcesDegrees(t *testing.T) {
	h := createTestHandler(t, healthyFetchers(), nil)

	out, err := h.Execute(context.Background(), &Input{
		Message: "bac+2",
		History: []HistoryTurn{
			{Sender: "user", Text: "Je veux faire de l'info chez Epitech"},
			{Sender: "assistant", Text: "Super ! Quel est ton niveau d'études actuel ?"},
		},
	})
	require.NoError(t, err)

	dec := out.Decisions["degrees"]
	assert.True(t, dec.Call)
	assert.Contains(t, dec.Reasons, ReasonLevelAnswer)
	assert.Equal(t, "bac+2", out.DetectedLevel)
	assert.Contains(t, out.ContextBlock, "FORMATIONS EPITECH LIVE")
	assert.Contains(t, out.ContextBlock, "NIVEAU DÉTECTÉ = BAC+2")
}

func TestHandler_Execute_CityAnswerForcesCampusAndResolves(t *testing.T) {
	rec := events.NewRecorder()
	h := createTestHandler(t, healthyFetchers(), rec)

	out, err := h.Execute(context.Background(), &Input{
		Message: "Lyon",
		History: []HistoryTurn{{Sender: "bot", Text: "Dans quelle ville habites-tu ?"}},
	})
	require.NoError(t, err)

	assert.True(t, out.Decisions["campus"].Call)
	assert.Contains(t, out.Decisions["campus"].Reasons, ReasonCityAnswer)
	require.NotNil(t, out.Location)
	assert.Equal(t, geo.ExtractorDictionary, out.Location.Extractor)
	assert.Equal(t, models.PresenceCoLocated, out.Location.Presence)
	assert.Contains(t, out.ContextBlock, "Epitech est à LYON !")

	var kinds []string
	for _, ev := range rec.Events() {
		if ev.Domain == "" {
			kinds = append(kinds, ev.Kind)
		}
	}
	assert.Contains(t, kinds, events.KindGeoResolved)
	assert.Contains(t, kinds, events.KindRequestDone)
}

func TestHandler_Execute_UnresolvedLocationIsNotAnError(t *testing.T) {
	rec := events.NewRecorder()
	h := createTestHandler(t, healthyFetchers(), rec)

	out, err := h.Execute(context.Background(), &Input{Message: "j'habite à Tombouctou"})
	require.NoError(t, err)
	assert.Nil(t, out.Location)

	var found bool
	for _, ev := range rec.Events() {
		found = found || ev.Kind == events.KindGeoNotFound
	}
	assert.True(t, found)
}

func TestHandler_ContextFlagFromRecentTurns(t *testing.T) {
	h := createTestHandler(t, healthyFetchers(), nil)

	out, err := h.Execute(context.Background(), &Input{
		Message: "et les news, les actu ?",
		History: []HistoryTurn{{Sender: "user", Text: "Parle-moi d'Epitech"}, {Sender: "bot", Text: "Avec plaisir."}},
	})
	require.NoError(t, err)
	assert.True(t, out.Decisions["news"].Call)
	assert.Contains(t, out.ContextBlock, "Aucune actualité disponible pour le moment.")
}

// ==========================
// Configuration Tests
// ==========================

func TestConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MaxHistory = 0
	assert.Error(t, bad.Validate())

	cfg := ConfigFromApp(&config.Config{
		Workers:      map[string]config.WorkerConfig{TaskType: {Enabled: true, MaxJobsActive: 9, Timeout: 1500}},
		Conversation: config.ConversationConfig{MaxHistory: 4},
	})
	assert.Equal(t, 9, cfg.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 4, cfg.MaxHistory)

	_, err := NewHandler(DefaultConfig(), Dependencies{})
	assert.Error(t, err)
}
