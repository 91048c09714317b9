// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Sources      SourcesConfig           `mapstructure:"sources"`
	Geocoding    GeocodingConfig         `mapstructure:"geocoding"`
	Router       RouterConfig            `mapstructure:"router"`
	News         NewsConfig              `mapstructure:"news"`
	Conversation ConversationConfig      `mapstructure:"conversation"`
	Events       EventsConfig            `mapstructure:"events"`
	Metrics      MetricsConfig           `mapstructure:"metrics"`
	Registry     RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Insecure       bool   `mapstructure:"insecure"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// --- Knowledge sources ---

// SourcesConfig describes the pages the fetchers scrape and how politely.
type SourcesConfig struct {
	UserAgent    string `mapstructure:"user_agent"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds, per domain fetch
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`

	BaseURL     string `mapstructure:"base_url"`
	ContactURL  string `mapstructure:"contact_url"`
	PedagogyURL string `mapstructure:"pedagogy_url"`
	ValuesURL   string `mapstructure:"values_url"`
	NewsURL     string `mapstructure:"news_url"`

	DegreesConcurrency int  `mapstructure:"degrees_concurrency"`
	CampusConcurrency  int  `mapstructure:"campus_concurrency"`
	CampusCrawl        bool `mapstructure:"campus_crawl"`
}

type GeocodingConfig struct {
	PrimaryURL      string  `mapstructure:"primary_url"`
	FallbackURL     string  `mapstructure:"fallback_url"`
	Timeout         int     `mapstructure:"timeout"` // milliseconds, whole resolution
	NationalSlackKm float64 `mapstructure:"national_slack_km"`
	CoLocatedKm     float64 `mapstructure:"co_located_km"`
}

// RouterConfig holds the call thresholds of the intent router.
type RouterConfig struct {
	Thresholds RouterThresholds `mapstructure:"thresholds"`
}

type RouterThresholds struct {
	Campus          float64 `mapstructure:"campus"`
	CampusExplicit  float64 `mapstructure:"campus_explicit"`
	Degrees         float64 `mapstructure:"degrees"`
	DegreesExplicit float64 `mapstructure:"degrees_explicit"`
	News            float64 `mapstructure:"news"`
	NewsExplicit    float64 `mapstructure:"news_explicit"`
	Pedagogy        float64 `mapstructure:"pedagogy"`
	Values          float64 `mapstructure:"values"`
}

type NewsConfig struct {
	MaxItems int `mapstructure:"max_items"`
}

type ConversationConfig struct {
	MaxHistory int `mapstructure:"max_history"`
}

// --- Observability ---

// EventsConfig selects where pipeline events are published.
type EventsConfig struct {
	Sink  string      `mapstructure:"sink"` // log, redis or nop
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// RegistryConfig points at an alternative facility registry file; empty uses the embedded one.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
