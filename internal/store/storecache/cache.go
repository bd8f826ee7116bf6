// Package storecache wraps a store.Store with a Redis-backed LRU cache for
// the two lookups the Turn Orchestrator hits on every mention (entity by
// id, alias by text). Invalidation is documented and explicit, per the
// Design Notes' replacement for "global mutable state for caches": every
// write path that can change a cached key invalidates that key in the
// same call, there is no background sweep.
package storecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

// TTL bounds how long a cache entry can outlive a missed invalidation; it
// is a backstop, not the primary invalidation mechanism.
const defaultTTL = 10 * time.Minute

// Store decorates a store.Store, caching entity-by-id and alias-by-text
// reads. It embeds the inner store so every other Store method passes
// through unmodified.
type Store struct {
	store.Store
	rdb    *redis.Client
	ttl    time.Duration
}

// New wraps inner with a Redis-backed cache.
func New(inner store.Store, rdb *redis.Client) *Store {
	return &Store{Store: inner, rdb: rdb, ttl: defaultTTL}
}

func entityKey(id string) string { return fmt.Sprintf("memcore:entity:%s", id) }
func aliasKey(text, userID string) string {
	if userID == "" {
		return fmt.Sprintf("memcore:alias:global:%s", text)
	}
	return fmt.Sprintf("memcore:alias:%s:%s", userID, text)
}

func (s *Store) GetEntityByID(ctx context.Context, id string) (domain.CanonicalEntity, bool, error) {
	key := entityKey(id)
	if cached, ok := s.getEntity(ctx, key); ok {
		return cached, true, nil
	}
	e, found, err := s.Store.GetEntityByID(ctx, id)
	if err != nil || !found {
		return e, found, err
	}
	s.setEntity(ctx, key, e)
	return e, true, nil
}

func (s *Store) CreateEntity(ctx context.Context, e domain.CanonicalEntity) (domain.CanonicalEntity, error) {
	created, err := s.Store.CreateEntity(ctx, e)
	if err != nil {
		return created, err
	}
	// Invalidate on write of the same key: a concurrent creator may have
	// populated a stale miss-cache entry for this id/name combination.
	s.rdb.Del(ctx, entityKey(created.ID))
	return created, nil
}

func (s *Store) UpdateEntityProperties(ctx context.Context, id string, patch map[string]any) error {
	if err := s.Store.UpdateEntityProperties(ctx, id, patch); err != nil {
		return err
	}
	s.rdb.Del(ctx, entityKey(id))
	return nil
}

func (s *Store) GetAliasesByText(ctx context.Context, text string, userID string) ([]domain.EntityAlias, error) {
	key := aliasKey(text, userID)
	if cached, ok := s.getAliases(ctx, key); ok {
		return cached, nil
	}
	aliases, err := s.Store.GetAliasesByText(ctx, text, userID)
	if err != nil {
		return nil, err
	}
	s.setAliases(ctx, key, aliases)
	return aliases, nil
}

func (s *Store) UpsertAlias(ctx context.Context, a domain.EntityAlias) (domain.EntityAlias, error) {
	updated, err := s.Store.UpsertAlias(ctx, a)
	if err != nil {
		return updated, err
	}
	userID := ""
	if updated.UserID != nil {
		userID = *updated.UserID
	}
	s.rdb.Del(ctx, aliasKey(updated.AliasText, userID))
	if userID != "" {
		s.rdb.Del(ctx, aliasKey(updated.AliasText, ""))
	}
	return updated, nil
}

func (s *Store) getEntity(ctx context.Context, key string) (domain.CanonicalEntity, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return domain.CanonicalEntity{}, false
	}
	var e domain.CanonicalEntity
	if json.Unmarshal(raw, &e) != nil {
		return domain.CanonicalEntity{}, false
	}
	return e, true
}

func (s *Store) setEntity(ctx context.Context, key string, e domain.CanonicalEntity) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, key, raw, s.ttl)
}

func (s *Store) getAliases(ctx context.Context, key string) ([]domain.EntityAlias, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var aliases []domain.EntityAlias
	if json.Unmarshal(raw, &aliases) != nil {
		return nil, false
	}
	return aliases, true
}

func (s *Store) setAliases(ctx context.Context, key string, aliases []domain.EntityAlias) {
	raw, err := json.Marshal(aliases)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, key, raw, s.ttl)
}
