// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultUserAgent   = "EpitechKnowledgeBot/1.0 (+https://www.epitech.eu)"
	DefaultBaseURL     = "https://www.epitech.eu"
	DefaultContactURL  = "https://www.epitech.eu/contact/"
	DefaultPedagogyURL = "https://www.epitech.eu/ecole-informatique-apres-bac/pedagogie/"
	DefaultValuesURL   = "https://www.epitech.eu/ecole-informatique-apres-bac/engagements/"
	DefaultNewsURL     = "https://www.epitech.eu/fr/actualites-technologiques-informatiques/"

	DefaultGeocoderURL  = "https://api-adresse.data.gouv.fr/search/"
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
)

// Load reads configs/config.yaml (if any), merges config.<APP_ENVIRONMENT>.yaml,
// applies environment overrides and defaults, then validates.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func bindEnv(v *viper.Viper) {
	// SOURCES_USER_AGENT overrides sources.user_agent, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"camunda.broker_address",
		"logging.level",
		"logging.format",
		"sources.user_agent",
		"events.sink",
		"events.redis.address",
		"events.redis.password",
		"metrics.address",
		"registry.path",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking from the working directory
// up to the module root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "knowledge-workers"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 45000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	s := &cfg.Sources
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
	if s.Timeout == 0 {
		s.Timeout = 30000
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = 5 << 20
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.ContactURL == "" {
		s.ContactURL = DefaultContactURL
	}
	if s.PedagogyURL == "" {
		s.PedagogyURL = DefaultPedagogyURL
	}
	if s.ValuesURL == "" {
		s.ValuesURL = DefaultValuesURL
	}
	if s.NewsURL == "" {
		s.NewsURL = DefaultNewsURL
	}
	if s.DegreesConcurrency == 0 {
		s.DegreesConcurrency = 8
	}
	if s.CampusConcurrency == 0 {
		s.CampusConcurrency = 4
	}

	g := &cfg.Geocoding
	if g.PrimaryURL == "" {
		g.PrimaryURL = DefaultGeocoderURL
	}
	if g.FallbackURL == "" {
		g.FallbackURL = DefaultNominatimURL
	}
	if g.Timeout == 0 {
		g.Timeout = 10000
	}
	if g.NationalSlackKm == 0 {
		g.NationalSlackKm = 200
	}
	if g.CoLocatedKm == 0 {
		g.CoLocatedKm = 10
	}

	applyThresholdDefaults(&cfg.Router.Thresholds)

	if cfg.News.MaxItems == 0 {
		cfg.News.MaxItems = 3
	}
	if cfg.Conversation.MaxHistory == 0 {
		cfg.Conversation.MaxHistory = 10
	}

	if cfg.Events.Sink == "" {
		cfg.Events.Sink = "log"
	}
	if cfg.Events.Redis.Stream == "" {
		cfg.Events.Redis.Stream = "knowledge:events"
	}
	if cfg.Events.Redis.MaxLen == 0 {
		cfg.Events.Redis.MaxLen = 10000
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}
}

// DefaultThresholds returns the router thresholds used when none are configured.
func DefaultThresholds() RouterThresholds {
	var t RouterThresholds
	applyThresholdDefaults(&t)
	return t
}

func applyThresholdDefaults(t *RouterThresholds) {
	if t.Campus == 0 {
		t.Campus = 2.0
	}
	if t.CampusExplicit == 0 {
		t.CampusExplicit = 1.5
	}
	if t.Degrees == 0 {
		t.Degrees = 1.5
	}
	if t.DegreesExplicit == 0 {
		t.DegreesExplicit = 1.5
	}
	if t.News == 0 {
		t.News = 2.5
	}
	if t.NewsExplicit == 0 {
		t.NewsExplicit = 2.0
	}
	if t.Pedagogy == 0 {
		t.Pedagogy = 1.5
	}
	if t.Values == 0 {
		t.Values = 1.5
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Sources.DegreesConcurrency < 0 || cfg.Sources.CampusConcurrency < 0 {
		return fmt.Errorf("sources concurrency must be positive")
	}
	if cfg.Geocoding.NationalSlackKm < 0 || cfg.Geocoding.CoLocatedKm < 0 {
		return fmt.Errorf("geocoding distances must be positive")
	}

	switch cfg.Events.Sink {
	case "log", "nop":
	case "redis":
		if cfg.Events.Redis.Address == "" {
			return fmt.Errorf("events.redis.address is required when events.sink is redis")
		}
	default:
		return fmt.Errorf("events.sink %q is not one of log, redis, nop", cfg.Events.Sink)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       45000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
