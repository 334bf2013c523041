package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "courtside.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sports-info", cfg.Qdrant.Namespace)
	assert.Equal(t, 1024, cfg.Embed.Dimensions)
	assert.Equal(t, 15*time.Second, cfg.ESPN.Timeout)
	assert.Len(t, cfg.Feeds(), 4)
	assert.Equal(t, ".events[]?", cfg.Files.Paths["nba-score.json"])
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
qdrant:
  addr: qdrant:6334
  collection: cards
espn:
  timeout: 3s
sources:
  - {sport: basketball, league: nba, kind: scoreboard}
embed:
  provider: ollama
  dimensions: 1024
`)
	t.Setenv("COURTSIDE_QDRANT__COLLECTION", "cards_v2")
	t.Setenv("COURTSIDE_LEDGER__BACKEND", "redis")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qdrant:6334", cfg.Qdrant.Addr)
	assert.Equal(t, "cards_v2", cfg.Qdrant.Collection, "env overrides file")
	assert.Equal(t, "sports-info", cfg.Qdrant.Namespace, "defaults survive")
	assert.Equal(t, 3*time.Second, cfg.ESPN.Timeout)
	assert.Equal(t, "redis", cfg.Ledger.Backend)
	assert.Equal(t, "ollama", cfg.EmbedConfig().Provider)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "nba", cfg.Feeds()[0].League)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "api:\n  addr: \":9999\"\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.API.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrLoadConfig)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"provider":  func(c *Config) { c.Embed.Provider = "cohere" },
		"dims":      func(c *Config) { c.Embed.Dimensions = 0 },
		"ledger":    func(c *Config) { c.Ledger.Backend = "etcd" },
		"namespace": func(c *Config) { c.Qdrant.Namespace = "" },
		"source":    func(c *Config) { c.Sources = []Source{{Sport: "basketball"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := New()
			mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, New().Validate())
}
