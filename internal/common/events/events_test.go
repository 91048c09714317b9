package events

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-workers/internal/common/config"
	"knowledge-workers/internal/common/database"
	"knowledge-workers/internal/common/logger"
)

func TestRedisStreamSink_AppendsEvent(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()))

	sink := NewRedisStreamSink(client, "knowledge:events", 100, logger.NewTestLogger(t))
	sink.Emit(context.Background(), New("req-1", "campus", KindFetchSucceeded, LevelInfo,
		map[string]interface{}{"entries": 3}))

	msgs, err := client.Client.XRange(context.Background(), "knowledge:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "req-1", msgs[0].Values["requestId"])
	assert.Equal(t, "campus", msgs[0].Values["domain"])
	assert.Equal(t, KindFetchSucceeded, msgs[0].Values["kind"])
	assert.JSONEq(t, `{"entries":3}`, msgs[0].Values["fields"].(string))
}

func TestRedisStreamSink_CancelledContextStillPublishes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewRedisStreamSink(client, "s", 10, logger.NewNoOpLogger()).
		Emit(ctx, New("req-2", "", KindRequestDone, LevelInfo, nil))

	n, err := client.Client.XLen(context.Background(), "s").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRedisStreamSink_FailureDoesNotPanic(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	mr.Close()

	sink := NewRedisStreamSink(client, "s", 10, logger.NewTestLogger(t))
	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), New("req-3", "news", KindFetchFailed, LevelWarn, nil))
	})
	assert.Error(t, client.Ping(context.Background()))
}

func TestMultiAndRecorder(t *testing.T) {
	rec := NewRecorder()
	sink := Multi{NopSink{}, NewLogSink(logger.NewTestLogger(t)), rec}

	sink.Emit(context.Background(), New("r", "news", KindFetchStarted, LevelDebug, nil))
	sink.Emit(context.Background(), New("r", "campus", KindFetchFailed, LevelError, nil))
	sink.Emit(context.Background(), New("r", "news", KindFetchSucceeded, LevelInfo, nil))

	assert.Equal(t, []string{KindFetchStarted, KindFetchSucceeded}, rec.Kinds("news"))
	all := rec.Events()
	require.Len(t, all, 3)
	assert.Equal(t, "campus", all[0].Domain)
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}
