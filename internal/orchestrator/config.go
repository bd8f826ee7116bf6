package orchestrator

import "time"

// Config holds the Turn Orchestrator's own tunables (§5, §6's deadlines.*
// keys). The per-component configs (resolver.Config, conflict.Config,
// lifecycle.Config, retrieval.Config, domainaugment.Config) are supplied
// separately to New — each carries its own package's defaults, and the
// orchestrator does not duplicate them.
type Config struct {
	TurnDeadline  time.Duration // default 30s
	EmbedDeadline time.Duration // default 3s
	LLMDeadline   time.Duration // default 15s
	StoreDeadline time.Duration // default 2s

	RetryCount    int           // default 2
	RetryBase     time.Duration // default 200ms
	RetryCap      time.Duration // default 2s

	RecentChatEventLimit int // default 5, used to build ReplyContext.last_5_chat_events
	AliasSelectionConfidence float64 // default 0.95, step 4's disambiguation-selection alias confidence
}

// DefaultConfig returns the defaults §5/§6 name.
func DefaultConfig() Config {
	return Config{
		TurnDeadline:             30 * time.Second,
		EmbedDeadline:            3 * time.Second,
		LLMDeadline:              15 * time.Second,
		StoreDeadline:            2 * time.Second,
		RetryCount:               2,
		RetryBase:                200 * time.Millisecond,
		RetryCap:                 2 * time.Second,
		RecentChatEventLimit:     5,
		AliasSelectionConfidence: 0.95,
	}
}
