package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageBadger, cfg.Storage.Backend)
	assert.Equal(t, "estateflow_favorites", cfg.Storage.FavoritesKey)
	assert.Equal(t, "estateflow_comparison", cfg.Storage.ComparisonKey)
	assert.Equal(t, "estateflow_chat_history", cfg.Storage.TranscriptKey)
	assert.Equal(t, CatalogMock, cfg.Catalog.Source)
	assert.Equal(t, 120, cfg.Catalog.MockSize)
	assert.Empty(t, cfg.Catalog.BaseURL)
	assert.True(t, cfg.Catalog.SeedEmpty)
	assert.Equal(t, ProviderGemini, cfg.Chat.Provider)
	assert.Equal(t, 4, cfg.Chat.ContextTurns)
	assert.Equal(t, 6, cfg.Chat.MaxResults)
	assert.Equal(t, 20, cfg.Chat.RateLimit)
	assert.Equal(t, 5, cfg.Chat.RateBurst)
	assert.Equal(t, 3, cfg.Comparison.Max)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 800, cfg.Gemini.MaxOutputTokens)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("COMPARISON_MAX", "5")
	t.Setenv("CHAT_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BADGER_SYNC_WRITES", "false")
	t.Setenv("GEMINI_TEMPERATURE", "0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, 5, cfg.Comparison.Max)
	assert.Equal(t, ProviderOpenAI, cfg.Chat.Provider)
	assert.True(t, cfg.OpenAI.Enabled)
	assert.False(t, cfg.Storage.SyncWrites)
	assert.InDelta(t, 0.2, cfg.Gemini.Temperature, 1e-9)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("BADGER_SYNC_WRITES", "maybe")
	t.Setenv("GEMINI_TEMPERATURE", "warm")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Storage.SyncWrites)
	assert.InDelta(t, 0.7, cfg.Gemini.Temperature, 1e-9)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage: StorageConfig{
				Backend:       StorageBadger,
				BadgerPath:    "/tmp/x",
				FavoritesKey:  "f",
				ComparisonKey: "c",
				TranscriptKey: "t",
			},
			Catalog:    CatalogConfig{Source: CatalogMock},
			Chat:       ChatConfig{Provider: ProviderGemini, ContextTurns: 4, MaxResults: 6},
			Comparison: ComparisonConfig{Max: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "redis" }, wantErr: "STORAGE_BACKEND"},
		{name: "badger without path", mutate: func(c *Config) { c.Storage.BadgerPath = "" }, wantErr: "BADGER_PATH"},
		{name: "unknown catalog", mutate: func(c *Config) { c.Catalog.Source = "csv" }, wantErr: "CATALOG_SOURCE"},
		{name: "unknown provider", mutate: func(c *Config) { c.Chat.Provider = "claude" }, wantErr: "CHAT_PROVIDER"},
		{name: "zero comparison max", mutate: func(c *Config) { c.Comparison.Max = 0 }, wantErr: "COMPARISON_MAX"},
		{name: "negative context", mutate: func(c *Config) { c.Chat.ContextTurns = -1 }, wantErr: "CHAT_CONTEXT_TURNS"},
		{name: "zero results", mutate: func(c *Config) { c.Chat.MaxResults = 0 }, wantErr: "CHAT_MAX_RESULTS"},
		{name: "shared key", mutate: func(c *Config) { c.Storage.TranscriptKey = "f" }, wantErr: "more than one collection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "estateflow", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=estateflow sslmode=disable", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.GetPostgreSQLDSN())
}

func TestUsesPostgresAndSeconds(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: StorageMemory}, Catalog: CatalogConfig{Source: CatalogMock}}
	assert.False(t, cfg.UsesPostgres())
	cfg.Catalog.Source = CatalogPostgres
	assert.True(t, cfg.UsesPostgres())

	assert.Equal(t, 30*time.Second, Seconds(30))
}
