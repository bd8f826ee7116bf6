package config

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"memorycore/internal/store"
)

// Recognized SystemConfig keys. Component packages' DefaultConfig()
// functions hold the actual default values; this list only names what a
// SystemConfig row is allowed to override.
const (
	KeyResolverFuzzyThreshold    = "resolver.fuzzy_threshold"
	KeyResolverAutoAcceptMargin  = "resolver.auto_accept_margin"
	KeyConflictConfidenceDelta   = "conflict.confidence_delta"
	KeyLifecycleDecayHalfLifeDay = "lifecycle.decay_half_life_days"
	KeyRetrievalTopK             = "retrieval.top_k"
	KeyOrchestratorTurnDeadline  = "orchestrator.turn_deadline_ms"
)

// SystemConfig is a periodically refreshed cache over store.ConfigStore;
// Float64/Int/Duration return the values of the latest Refresh. cmd/server
// reads the resolver fuzzy threshold and the turn deadline from it once at
// startup and hands plain config values to the components, so a later
// Refresh does not change them: an edited row takes effect on restart.
//
// Grounded on the teacher's DynamicConfigManager (infrastructure/config/
// dynamic.go): a static fallback plus a refreshable overlay, minus its
// file-watcher path, since this core's SystemConfig lives in Postgres
// rather than a local file.
type SystemConfig struct {
	store store.ConfigStore

	mu       sync.RWMutex
	values   map[string]any
	logger   *zap.Logger
}

// NewSystemConfig builds a SystemConfig and performs one synchronous
// initial load so the first caller doesn't race an empty cache.
func NewSystemConfig(ctx context.Context, s store.ConfigStore, logger *zap.Logger) *SystemConfig {
	sc := &SystemConfig{store: s, values: make(map[string]any), logger: logger}
	sc.refresh(ctx)
	return sc
}

// Refresh re-reads every recognized key from the Store. Call this on a
// ticker from cmd/server; SystemConfig does not start its own goroutine
// so tests can call it synchronously.
func (sc *SystemConfig) Refresh(ctx context.Context) {
	sc.refresh(ctx)
}

func (sc *SystemConfig) refresh(ctx context.Context) {
	keys := []string{
		KeyResolverFuzzyThreshold, KeyResolverAutoAcceptMargin, KeyConflictConfidenceDelta,
		KeyLifecycleDecayHalfLifeDay, KeyRetrievalTopK, KeyOrchestratorTurnDeadline,
	}
	fresh := make(map[string]any, len(keys))
	for _, k := range keys {
		entry, found, err := sc.store.GetConfig(ctx, k)
		if err != nil {
			if sc.logger != nil {
				sc.logger.Warn("system config refresh: key unavailable", zap.String("key", k), zap.Error(err))
			}
			continue
		}
		if found {
			fresh[k] = entry.Value
		}
	}
	sc.mu.Lock()
	for k, v := range fresh {
		sc.values[k] = v
	}
	sc.mu.Unlock()
}

// Float64 returns key's cached value, or fallback if unset or the wrong type.
func (sc *SystemConfig) Float64(key string, fallback float64) float64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if v, ok := sc.values[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return fallback
}

// Int returns key's cached value, or fallback if unset or the wrong type.
func (sc *SystemConfig) Int(key string, fallback int) int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if v, ok := sc.values[key]; ok {
		if f, ok := v.(float64); ok { // JSONB numbers decode as float64
			return int(f)
		}
	}
	return fallback
}

// Duration returns key's cached millisecond value as a time.Duration, or
// fallback if unset or the wrong type.
func (sc *SystemConfig) Duration(key string, fallback time.Duration) time.Duration {
	ms := sc.Int(key, -1)
	if ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
