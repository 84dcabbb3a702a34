// Package config loads the service configuration from environment variables,
// applying defaults, normalization and validation. It covers the HTTP server,
// logging, storage backend selection, triage tuning, the knowledge base,
// event publishing, rate limiting and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StorageConfig selects and addresses the durable backend.
type StorageConfig struct {
	Backend       string // STORAGE_BACKEND: sqlite|redis|memory
	DBPath        string // DB_PATH (sqlite)
	RedisAddr     string // REDIS_ADDR
	RedisPassword string // REDIS_PASSWORD
	RedisDB       int    // REDIS_DB
	Timeout       time.Duration
}

// TriageConfig tunes the pipeline and the conversation store.
type TriageConfig struct {
	IntentThreshold     float64
	SentimentThreshold  float64
	MaxConversations    int
	ProfileCacheSize    int
	ContextExpiry       time.Duration
	ContextRetention    time.Duration
	MaxHistory          int
	SentimentHistoryCap int
	RequestTimeout      time.Duration
	MaxInputRunes       int
	ResponseMode        string // random|deterministic
	ResponseSeed        uint64 // 0 seeds from the clock
}

// KnowledgeConfig points at the optional markdown FAQ.
type KnowledgeConfig struct {
	Path      string  // KNOWLEDGE_PATH; empty disables
	Threshold float64 // KNOWLEDGE_THRESHOLD in [0,1]
}

// NATSConfig controls event publishing.
type NATSConfig struct {
	Enabled bool
	URL     string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool
	APIBasePath string

	Storage   StorageConfig
	Triage    TriageConfig
	Knowledge KnowledgeConfig
	NATS      NATSConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 40*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		Storage: StorageConfig{
			Backend:       strings.ToLower(strings.TrimSpace(getenv("STORAGE_BACKEND", BackendSQLite))),
			DBPath:        getenv("DB_PATH", "triage.db"),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			Timeout:       getdur("STORAGE_TIMEOUT", 30*time.Second),
		},

		Triage: TriageConfig{
			IntentThreshold:     getfloat("INTENT_THRESHOLD", 0.85),
			SentimentThreshold:  getfloat("SENTIMENT_THRESHOLD", 0.80),
			MaxConversations:    getint("MAX_MEMORY_CONVERSATIONS", 1000),
			ProfileCacheSize:    getint("PROFILE_CACHE_SIZE", 1000),
			ContextExpiry:       getdur("CONTEXT_EXPIRY", 72*time.Hour),
			ContextRetention:    getdur("CONTEXT_RETENTION", 30*24*time.Hour),
			MaxHistory:          getint("MAX_HISTORY_LENGTH", 50),
			SentimentHistoryCap: getint("SENTIMENT_HISTORY_CAP", 20),
			RequestTimeout:      getdur("REQUEST_TIMEOUT", 30*time.Second),
			MaxInputRunes:       getint("MAX_INPUT_RUNES", 4000),
			ResponseMode:        strings.ToLower(strings.TrimSpace(getenv("RESPONSE_MODE", "random"))),
			ResponseSeed:        getuint("RESPONSE_SEED", 0),
		},

		Knowledge: KnowledgeConfig{
			Path:      getenv("KNOWLEDGE_PATH", ""),
			Threshold: getfloat("KNOWLEDGE_THRESHOLD", 0.32),
		},

		NATS: NATSConfig{
			Enabled: getbool("NATS_ENABLED", false),
			URL:     getenv("NATS_URL", "nats://localhost:4222"),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "iris-triage"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if err := cfg.Storage.validate(); err != nil {
		return cfg, err
	}
	if err := cfg.Triage.validate(); err != nil {
		return cfg, err
	}
	if cfg.Knowledge.Threshold < 0 || cfg.Knowledge.Threshold > 1 {
		return cfg, errors.New("KNOWLEDGE_THRESHOLD must be between 0 and 1")
	}
	if cfg.NATS.Enabled && strings.TrimSpace(cfg.NATS.URL) == "" {
		return cfg, errors.New("NATS_URL must not be empty when NATS_ENABLED")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case BackendSQLite:
		if strings.TrimSpace(s.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case BackendRedis:
		if strings.TrimSpace(s.RedisAddr) == "" {
			return errors.New("REDIS_ADDR must not be empty")
		}
		if s.RedisDB < 0 {
			return errors.New("REDIS_DB must be >= 0")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: %s, %s, %s", BackendSQLite, BackendRedis, BackendMemory)
	}
	if s.Timeout <= 0 {
		return errors.New("STORAGE_TIMEOUT must be > 0")
	}
	return nil
}

func (t TriageConfig) validate() error {
	if t.IntentThreshold < 0 || t.IntentThreshold > 1 {
		return errors.New("INTENT_THRESHOLD must be between 0 and 1")
	}
	if t.SentimentThreshold < 0 || t.SentimentThreshold > 1 {
		return errors.New("SENTIMENT_THRESHOLD must be between 0 and 1")
	}
	if t.MaxConversations < 1 || t.ProfileCacheSize < 1 {
		return errors.New("MAX_MEMORY_CONVERSATIONS and PROFILE_CACHE_SIZE must be >= 1")
	}
	if t.ContextExpiry <= 0 {
		return errors.New("CONTEXT_EXPIRY must be > 0")
	}
	if t.ContextRetention < t.ContextExpiry {
		return errors.New("CONTEXT_RETENTION must be >= CONTEXT_EXPIRY")
	}
	if t.MaxHistory < 1 || t.SentimentHistoryCap < 1 {
		return errors.New("MAX_HISTORY_LENGTH and SENTIMENT_HISTORY_CAP must be >= 1")
	}
	if t.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be > 0")
	}
	if t.MaxInputRunes < 1 {
		return errors.New("MAX_INPUT_RUNES must be >= 1")
	}
	switch t.ResponseMode {
	case "random", "deterministic":
	default:
		return errors.New("RESPONSE_MODE must be random or deterministic")
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getuint(k string, def uint64) uint64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
