package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Catalog sources.
const (
	CatalogMock     = "mock"
	CatalogBayut    = "bayut"
	CatalogPostgres = "postgres"
)

// Conversation providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	PostgreSQL PostgreSQLConfig
	Storage    StorageConfig
	Catalog    CatalogConfig
	Chat       ChatConfig
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
	Comparison ComparisonConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// StorageConfig selects where the user collections are persisted.
type StorageConfig struct {
	Backend       string // badger, postgres or memory
	BadgerPath    string
	SyncWrites    bool
	FavoritesKey  string
	ComparisonKey string
	TranscriptKey string
}

// CatalogConfig selects and tunes the listing catalog source.
type CatalogConfig struct {
	Source          string // mock, bayut or postgres
	RapidAPIKey     string
	RapidAPIHost    string
	BaseURL         string // defaults to https://<RapidAPIHost>
	LocationIDs     string
	Purpose         string
	HitsPerPage     int
	Timeout         int // seconds
	RefreshInterval int // minutes, 0 disables periodic refresh
	MockSize        int
	MockSeed        int
	FallbackToMock  bool
	SeedEmpty       bool // fill an empty properties table with the generated catalog
}

// ChatConfig tunes the assistant.
type ChatConfig struct {
	Provider     string // gemini or openai
	ContextTurns int
	MaxResults   int
	RateLimit    int // messages per minute per client IP, 0 disables
	RateBurst    int
}

// GeminiConfig holds Gemini generateContent API configuration
type GeminiConfig struct {
	APIKey          string
	APIBase         string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         int
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int
	Timeout         int
	Enabled         bool
}

// ComparisonConfig holds the comparison set capacity.
type ComparisonConfig struct {
	Max int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // text or json
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "estateflow"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", StorageBadger)),
			BadgerPath:    getEnv("BADGER_PATH", "./data/estateflow"),
			SyncWrites:    getEnvAsBool("BADGER_SYNC_WRITES", true),
			FavoritesKey:  getEnv("STORAGE_FAVORITES_KEY", "estateflow_favorites"),
			ComparisonKey: getEnv("STORAGE_COMPARISON_KEY", "estateflow_comparison"),
			TranscriptKey: getEnv("STORAGE_TRANSCRIPT_KEY", "estateflow_chat_history"),
		},
		Catalog: CatalogConfig{
			Source:          strings.ToLower(getEnv("CATALOG_SOURCE", CatalogMock)),
			RapidAPIKey:     getEnv("RAPIDAPI_KEY", ""),
			RapidAPIHost:    getEnv("RAPIDAPI_HOST", "bayut.p.rapidapi.com"),
			BaseURL:         getEnv("BAYUT_BASE_URL", ""),
			LocationIDs:     getEnv("BAYUT_LOCATION_IDS", "5002"),
			Purpose:         getEnv("BAYUT_PURPOSE", "for-sale"),
			HitsPerPage:     getEnvAsInt("BAYUT_HITS_PER_PAGE", 25),
			Timeout:         getEnvAsInt("CATALOG_TIMEOUT", 15),
			RefreshInterval: getEnvAsInt("CATALOG_REFRESH_MINUTES", 0),
			MockSize:        getEnvAsInt("CATALOG_MOCK_SIZE", 120),
			MockSeed:        getEnvAsInt("CATALOG_MOCK_SEED", 42),
			FallbackToMock:  getEnvAsBool("CATALOG_FALLBACK_TO_MOCK", true),
			SeedEmpty:       getEnvAsBool("CATALOG_SEED_EMPTY", true),
		},
		Chat: ChatConfig{
			Provider:     strings.ToLower(getEnv("CHAT_PROVIDER", ProviderGemini)),
			ContextTurns: getEnvAsInt("CHAT_CONTEXT_TURNS", 4),
			MaxResults:   getEnvAsInt("CHAT_MAX_RESULTS", 6),
			RateLimit:    getEnvAsInt("CHAT_RATE_LIMIT", 20),
			RateBurst:    getEnvAsInt("CHAT_RATE_BURST", 5),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			APIBase:         getEnv("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1beta"),
			Model:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Temperature:     getEnvAsFloat("GEMINI_TEMPERATURE", 0.7),
			MaxOutputTokens: getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 800),
			Timeout:         getEnvAsInt("GEMINI_TIMEOUT", 30),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.7),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 800),
			Timeout:         getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
		Comparison: ComparisonConfig{
			Max: getEnvAsInt("COMPARISON_MAX", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with. Missing API keys
// are not errors: the assistant reports them per turn instead.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case StorageBadger:
		if c.Storage.BadgerPath == "" {
			errs = append(errs, errors.New("BADGER_PATH is required for the badger backend"))
		}
	case StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	switch c.Catalog.Source {
	case CatalogMock, CatalogBayut, CatalogPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_SOURCE %q", c.Catalog.Source))
	}

	switch c.Chat.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown CHAT_PROVIDER %q", c.Chat.Provider))
	}

	if c.Comparison.Max < 1 {
		errs = append(errs, fmt.Errorf("COMPARISON_MAX must be at least 1, got %d", c.Comparison.Max))
	}
	if c.Chat.ContextTurns < 0 {
		errs = append(errs, fmt.Errorf("CHAT_CONTEXT_TURNS must not be negative, got %d", c.Chat.ContextTurns))
	}
	if c.Chat.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("CHAT_RATE_LIMIT must not be negative, got %d", c.Chat.RateLimit))
	}
	if c.Chat.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("CHAT_MAX_RESULTS must be at least 1, got %d", c.Chat.MaxResults))
	}

	keys := map[string]bool{}
	for _, k := range []string{c.Storage.FavoritesKey, c.Storage.ComparisonKey, c.Storage.TranscriptKey} {
		if keys[k] {
			errs = append(errs, fmt.Errorf("storage key %q is used by more than one collection", k))
		}
		keys[k] = true
	}

	return errors.Join(errs...)
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// UsesPostgres reports whether any component needs a database connection.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Backend == StoragePostgres || c.Catalog.Source == CatalogPostgres
}

// Seconds converts a timeout setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer setting, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid float setting, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		slog.Warn("invalid boolean setting, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}
