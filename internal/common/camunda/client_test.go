package camunda

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"knowledge-workers/internal/common/config"
	apperrors "knowledge-workers/internal/common/errors"
)

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(errors.New("permission denied")))
}

func TestMapZeebeError(t *testing.T) {
	c := &Client{config: &ClientConfig{GatewayAddress: "zeebe:26500"}}

	err := c.mapZeebeError(errors.New("context deadline exceeded"), "topology")
	assert.Equal(t, apperrors.ErrCodeUpstreamTimeout, apperrors.CodeOf(err))

	err = c.mapZeebeError(errors.New("connection refused"), "topology")
	assert.Equal(t, apperrors.ErrCodeUpstreamUnavailable, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "zeebe")
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(config.CamundaConfig{BrokerAddress: "localhost:26500", Insecure: true})
	assert.Equal(t, "localhost:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 10*time.Second, cfg.ConnectionTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)
}
