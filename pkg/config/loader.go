package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/WessleyAI/courtside/pkg/embed"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: COURTSIDE_QDRANT__ADDR sets qdrant.addr.
const EnvPrefix = "COURTSIDE_"

// EnvConfigPath names the variable holding the YAML config path.
const EnvConfigPath = EnvPrefix + "CONFIG"

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. the YAML file at path, or at $COURTSIDE_CONFIG when path is empty
//  3. COURTSIDE_ environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := New()
	// Lists and maps given in a file or env replace the defaults instead of
	// merging into them.
	if k.Exists("sources") {
		cfg.Sources = nil
	}
	if k.Exists("files.paths") {
		cfg.Files.Paths = nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	switch c.Embed.Provider {
	case embed.ProviderOpenAI, embed.ProviderOllama:
	default:
		return fmt.Errorf("%w: embed.provider %q", ErrInvalidConfig, c.Embed.Provider)
	}
	if c.Embed.Dimensions <= 0 {
		return fmt.Errorf("%w: embed.dimensions must be positive", ErrInvalidConfig)
	}
	switch c.Ledger.Backend {
	case LedgerMemory, LedgerRedis, LedgerNone:
	default:
		return fmt.Errorf("%w: ledger.backend %q", ErrInvalidConfig, c.Ledger.Backend)
	}
	if c.Qdrant.Addr == "" || c.Qdrant.Collection == "" || c.Qdrant.Namespace == "" {
		return fmt.Errorf("%w: qdrant addr, collection and namespace are required", ErrInvalidConfig)
	}
	for i, s := range c.Sources {
		if s.Sport == "" || s.League == "" || s.Kind == "" {
			return fmt.Errorf("%w: sources[%d] needs sport, league and kind", ErrInvalidConfig, i)
		}
	}
	return nil
}
