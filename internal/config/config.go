// Package config loads process bootstrap settings and exposes the
// DB-backed SystemConfig snapshot the component packages read their
// tunables from (§6's deadlines.*, thresholds.*, limits.* keys).
// Grounded on the teacher's pkg/config.New (env-var loader with
// defaults), extended with viper so the same keys can come from a config
// file or flags, and on infrastructure/config/watcher.go's fsnotify use
// for hot-reloading that file without a process restart.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ProcessConfig holds the settings needed before any Store connection
// exists: where to listen, how to reach Postgres, and the Embedder/
// Completer provider credentials. Everything else (retry counts,
// confidence thresholds, deadlines) lives in SystemConfig, since those
// are tunable without redeploying.
type ProcessConfig struct {
	Addr             string `mapstructure:"addr"`
	DatabaseURL      string `mapstructure:"database_url"`
	Environment      string `mapstructure:"environment"`
	EmbeddingBaseURL string `mapstructure:"embedding_base_url"`
	EmbeddingAPIKey  string `mapstructure:"embedding_api_key"`
	EmbeddingModel   string `mapstructure:"embedding_model"`
	EmbeddingDim     int    `mapstructure:"embedding_dim"`
	CompletionAPIKey string `mapstructure:"completion_api_key"`
	CompletionModel  string `mapstructure:"completion_model"`
}

// Load reads ProcessConfig from environment variables (MEMORYCORE_ prefix)
// and, if present, configPath. An empty configPath skips the file layer
// entirely; env vars always take precedence over it.
func Load(configPath string) (*ProcessConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("memorycore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "postgres://localhost:5432/memorycore?sslmode=disable")
	v.SetDefault("environment", "development")
	v.SetDefault("embedding_base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dim", 1536)
	v.SetDefault("completion_model", "gpt-4o-mini")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	var cfg ProcessConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// WatchFile re-runs onChange with a freshly loaded ProcessConfig whenever
// configPath is written. Callers that don't need hot reload (most of
// cmd/server's dependency graph is built once at startup) can ignore the
// returned watcher's Close.
func WatchFile(configPath string, onChange func(*ProcessConfig)) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := w.Add(configPath); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", configPath, err)
	}
	go func() {
		for event := range w.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(configPath)
			if err != nil {
				continue
			}
			onChange(cfg)
		}
	}()
	return w, nil
}
