// internal/workers/knowledge/ground-context/config.go
package groundcontext

import (
	"fmt"
	"time"

	"knowledge-workers/internal/common/config"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxHistory    int           `mapstructure:"max_history"`
	// ContextTurns is how many recent user turns may carry the subject
	// mention for a follow-up question.
	ContextTurns int `mapstructure:"context_turns"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		MaxHistory:    10,
		ContextTurns:  2,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxHistory <= 0 {
		return fmt.Errorf("max_history must be positive")
	}
	if c.ContextTurns < 0 {
		return fmt.Errorf("context_turns must not be negative")
	}
	return nil
}

// ConfigFromApp overlays the worker and conversation sections of the
// application config on the defaults.
func ConfigFromApp(app *config.Config) *Config {
	cfg := DefaultConfig()
	if app == nil {
		return cfg
	}
	if wc, ok := app.Workers[TaskType]; ok {
		cfg.Enabled = wc.Enabled
		if wc.MaxJobsActive > 0 {
			cfg.MaxJobsActive = wc.MaxJobsActive
		}
		if wc.Timeout > 0 {
			cfg.Timeout = time.Duration(wc.Timeout) * time.Millisecond
		}
	}
	if app.Conversation.MaxHistory > 0 {
		cfg.MaxHistory = app.Conversation.MaxHistory
	}
	return cfg
}
