package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("knowledge-test", WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "fetch", map[string]string{"domain": "campus"})
	require.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))

	obs.RecordJobProcessed(ctx, "success")
	obs.RecordJobDuration(ctx, 120*time.Millisecond, "success")
	obs.RecordDomainDuration(ctx, "campus", 40*time.Millisecond, "error")

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "fetch", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("domain", "campus"))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestNoop_IsSafe(t *testing.T) {
	obs := NewNoop()
	_, span := obs.StartSpan(context.Background(), "noop", nil)
	EndSpan(span, nil)
	obs.RecordJobProcessed(context.Background(), "success")
	obs.Shutdown()

	var nilObs *Observability
	_, span = nilObs.StartSpan(context.Background(), "nil", nil)
	EndSpan(span, nil)
	nilObs.Shutdown()
}
