// Package config loads run configuration for the CLI: an optional YAML file
// merged with MIGRATORY_-prefixed environment variables. Flags layered on
// top by the command layer win over both.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables; "__" separates nested
// keys, so MIGRATORY_LOG__LEVEL sets log.level.
const envPrefix = "MIGRATORY_"

// LogCfg controls the structured logger.
type LogCfg struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RepoCfg identifies the repository a run targets. Path points at a local
// checkout; Slug overrides the lock identity when set.
type RepoCfg struct {
	Slug string `koanf:"slug"`
	Path string `koanf:"path"`
	Ref  string `koanf:"ref"`
}

// FetchCfg tunes the filesystem fetcher.
type FetchCfg struct {
	MaxFileSize int64    `koanf:"max_file_size"`
	Exclude     []string `koanf:"exclude"`
}

// LockCfg overrides the repository lock TTL when positive.
type LockCfg struct {
	TTL time.Duration `koanf:"ttl"`
}

// Config is the full run configuration.
type Config struct {
	Log                LogCfg   `koanf:"log"`
	Repo               RepoCfg  `koanf:"repo"`
	Plan               string   `koanf:"plan"`
	Tasks              []string `koanf:"tasks"`
	PreserveFormatting bool     `koanf:"preserve_formatting"`
	TargetFramework    string   `koanf:"target_framework"`
	Fetch              FetchCfg `koanf:"fetch"`
	Lock               LockCfg  `koanf:"lock"`
}

// Load merges the YAML file at path (if present) with environment variables
// and fills defaults. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	_ = k.Load(env.Provider(envPrefix, "__", nil), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
