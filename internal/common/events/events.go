// Package events publishes structured pipeline events keyed by request id
// and domain. Sinks are fire-and-forget: a failing sink never fails a request.
package events

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"knowledge-workers/internal/common/database"
	"knowledge-workers/internal/common/logger"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event kinds emitted by the pipeline.
const (
	KindRouted         = "routed"
	KindFetchStarted   = "fetch.started"
	KindFetchSucceeded = "fetch.succeeded"
	KindFetchFailed    = "fetch.failed"
	KindFolded         = "folded"
	KindGeoResolved    = "geo.resolved"
	KindGeoNotFound    = "geo.not_found"
	KindRequestDone    = "request.done"
)

type Event struct {
	RequestID string                 `json:"requestId"`
	Domain    string                 `json:"domain,omitempty"`
	Kind      string                 `json:"kind"`
	Level     Level                  `json:"level"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	At        time.Time              `json:"at"`
}

type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// New stamps an event with the current time.
func New(requestID, domain, kind string, level Level, fields map[string]interface{}) Event {
	return Event{
		RequestID: requestID,
		Domain:    domain,
		Kind:      kind,
		Level:     level,
		Fields:    fields,
		At:        time.Now().UTC(),
	}
}

type requestIDKey struct{}

// WithRequestID attaches the request id events emitted under ctx carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NopSink drops everything.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}

// LogSink writes events through the structured logger at their level.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, ev Event) {
	fields := make(map[string]interface{}, len(ev.Fields)+3)
	for k, v := range ev.Fields {
		fields[k] = v
	}
	fields[logger.FieldRequestID] = ev.RequestID
	if ev.Domain != "" {
		fields[logger.FieldDomain] = ev.Domain
	}
	fields["event"] = ev.Kind

	switch ev.Level {
	case LevelDebug:
		s.log.Debug(ev.Kind, fields)
	case LevelWarn:
		s.log.Warn(ev.Kind, fields)
	case LevelError:
		s.log.Error(ev.Kind, fields)
	default:
		s.log.Info(ev.Kind, fields)
	}
}

type streamAppender interface {
	AppendStream(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) (string, error)
}

// RedisStreamSink appends every event to a capped Redis stream for an
// external collector.
type RedisStreamSink struct {
	client streamAppender
	stream string
	maxLen int64
	log    logger.Logger
}

func NewRedisStreamSink(client *database.RedisClient, stream string, maxLen int64, log logger.Logger) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen, log: log}
}

func (s *RedisStreamSink) Emit(ctx context.Context, ev Event) {
	fields, err := json.Marshal(ev.Fields)
	if err != nil {
		fields = []byte("{}")
	}
	values := map[string]interface{}{
		"requestId": ev.RequestID,
		"domain":    ev.Domain,
		"kind":      ev.Kind,
		"level":     string(ev.Level),
		"fields":    string(fields),
		"at":        ev.At.Format(time.RFC3339Nano),
	}
	// The request context may already be cancelled; publishing is best effort
	// and gets its own short deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if _, err := s.client.AppendStream(pubCtx, s.stream, s.maxLen, values); err != nil {
		s.log.Warn("Failed to publish event", map[string]interface{}{
			"error":               err.Error(),
			"event":               ev.Kind,
			logger.FieldRequestID: ev.RequestID,
		})
	}
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// Recorder keeps events in memory; used by tests across packages.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events ordered by domain then kind.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	out := append([]Event(nil), r.events...)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Kinds returns the recorded kinds for domain in emission order.
func (r *Recorder) Kinds(domain string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Domain == domain {
			out = append(out, ev.Kind)
		}
	}
	return out
}
