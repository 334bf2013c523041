// Package config defines the courtside configuration and how it is loaded.
package config

import (
	"time"

	"github.com/WessleyAI/courtside/engine/espn"
	"github.com/WessleyAI/courtside/pkg/embed"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
	LedgerNone   = "none"
)

type Config struct {
	Log      Log      `koanf:"log"`
	ESPN     ESPN     `koanf:"espn"`
	Sources  []Source `koanf:"sources"`
	Files    Files    `koanf:"files"`
	Qdrant   Qdrant   `koanf:"qdrant"`
	Embed    Embed    `koanf:"embed"`
	NATS     NATS     `koanf:"nats"`
	Neo4j    Neo4j    `koanf:"neo4j"`
	Ledger   Ledger   `koanf:"ledger"`
	Metrics  Metrics  `koanf:"metrics"`
	API      API      `koanf:"api"`
	Analyst  Analyst  `koanf:"analyst"`
	Schedule string   `koanf:"schedule"`
}

type Log struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
}

type ESPN struct {
	BaseURL    string        `koanf:"base_url"`
	Timeout    time.Duration `koanf:"timeout"`
	RatePerSec float64       `koanf:"rate_per_sec"`
	Retries    int           `koanf:"retries"`
	RetryWait  time.Duration `koanf:"retry_wait"`
}

// Source is one live feed: sport/league/kind as in the upstream URL.
type Source struct {
	Sport  string `koanf:"sport"`
	League string `koanf:"league"`
	Kind   string `koanf:"kind"`
}

// Files lists cached feed files under DataDir and the record extraction
// path for each; an empty path is derived from the file name.
type Files struct {
	DataDir string            `koanf:"data_dir"`
	Paths   map[string]string `koanf:"paths"`
}

type Qdrant struct {
	Addr       string `koanf:"addr"`
	Collection string `koanf:"collection"`
	Namespace  string `koanf:"namespace"`
}

type Embed struct {
	Provider   string `koanf:"provider"`
	Model      string `koanf:"model"`
	BaseURL    string `koanf:"base_url"`
	APIKey     string `koanf:"api_key"`
	Dimensions int    `koanf:"dimensions"`
}

// NATS is disabled when URL is empty.
type NATS struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// Neo4j is disabled when URL is empty.
type Neo4j struct {
	URL  string `koanf:"url"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
}

type Ledger struct {
	Backend   string        `koanf:"backend"`
	RedisAddr string        `koanf:"redis_addr"`
	TTL       time.Duration `koanf:"ttl"`
}

type Metrics struct {
	Addr string `koanf:"addr"`
}

type API struct {
	Addr       string `koanf:"addr"`
	CORSOrigin string `koanf:"cors_origin"`
}

type Analyst struct {
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
	TopK     int    `koanf:"top_k"`
	MaxTurns int    `koanf:"max_turns"`
}

// New returns the defaults.
func New() *Config {
	sources := make([]Source, len(espn.DefaultFeeds))
	for i, f := range espn.DefaultFeeds {
		sources[i] = Source{Sport: f.Sport, League: f.League, Kind: f.Kind}
	}
	return &Config{
		Log: Log{Level: "info", Encoding: "json"},
		ESPN: ESPN{
			BaseURL:    espn.DefaultBaseURL,
			Timeout:    15 * time.Second,
			RatePerSec: 2,
			Retries:    3,
			RetryWait:  500 * time.Millisecond,
		},
		Sources: sources,
		Files: Files{
			DataDir: "data",
			Paths: map[string]string{
				"nfl-news.json":  espn.ArticlesPath,
				"nba-news.json":  espn.ArticlesPath,
				"nfl-score.json": espn.EventsPath,
				"nba-score.json": espn.EventsPath,
			},
		},
		Qdrant:  Qdrant{Addr: "localhost:6334", Collection: "sports_cards", Namespace: "sports-info"},
		// An empty model lets each provider pick its own default.
		Embed:   Embed{Provider: embed.ProviderOpenAI, Dimensions: 1024},
		NATS:    NATS{Subject: "sports.cards.upserted"},
		Neo4j:   Neo4j{User: "neo4j"},
		Ledger:  Ledger{Backend: LedgerMemory, RedisAddr: "localhost:6379"},
		Metrics: Metrics{Addr: ""},
		API:     API{Addr: ":8080", CORSOrigin: "*"},
		Analyst: Analyst{Model: "gpt-4o", TopK: 4, MaxTurns: 5},
	}
}

// Feeds converts the configured sources into feed descriptors.
func (c *Config) Feeds() []espn.Feed {
	out := make([]espn.Feed, len(c.Sources))
	for i, s := range c.Sources {
		out[i] = espn.Feed{Sport: s.Sport, League: s.League, Kind: s.Kind}
	}
	return out
}

// EmbedConfig returns the embedding backend settings.
func (c *Config) EmbedConfig() embed.Config {
	return embed.Config{
		Provider:   c.Embed.Provider,
		Model:      c.Embed.Model,
		BaseURL:    c.Embed.BaseURL,
		APIKey:     c.Embed.APIKey,
		Dimensions: c.Embed.Dimensions,
	}
}

// ClientConfig returns the ESPN client settings.
func (c *Config) ClientConfig() espn.ClientConfig {
	return espn.ClientConfig{
		BaseURL:    c.ESPN.BaseURL,
		Timeout:    c.ESPN.Timeout,
		RatePerSec: c.ESPN.RatePerSec,
		Retries:    c.ESPN.Retries,
		RetryWait:  c.ESPN.RetryWait,
	}
}
