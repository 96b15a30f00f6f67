// internal/agent/prefs/store.go

// Package prefs loads family-scoped preference defaults and merges them
// with message-extracted constraints. Preference loads are optional
// enrichment: failures are logged and recovered, never surfaced.
package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"household-agent/internal/common/logger"
)

// Store loads domain-scoped stored preferences for a family.
type Store interface {
	GetBulk(ctx context.Context, familyID, domain string) (map[string]interface{}, error)
}

// PostgresStore reads preferences from the family_preferences table with a
// Redis read-through cache in front. The cache client is optional.
type PostgresStore struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	log      logger.Logger
}

func NewPostgresStore(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

const getBulkQuery = `
	SELECT pref_key, pref_value
	FROM family_preferences
	WHERE family_id = $1 AND domain = $2`

func (s *PostgresStore) GetBulk(ctx context.Context, familyID, domain string) (map[string]interface{}, error) {
	cacheKey := fmt.Sprintf("prefs:%s:%s", familyID, domain)

	if cached := s.readCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, getBulkQuery, familyID, domain)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]interface{})
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan preference row: %w", err)
		}
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// A malformed value row is skipped, not fatal.
			s.log.Warn("skipping malformed preference value", map[string]interface{}{
				"family_id": familyID,
				"domain":    domain,
				"key":       key,
			})
			continue
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preference rows: %w", err)
	}

	s.writeCache(ctx, cacheKey, prefs)
	return prefs, nil
}

func (s *PostgresStore) readCache(ctx context.Context, key string) map[string]interface{} {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("preference cache read failed", map[string]interface{}{"key": key})
		}
		return nil
	}
	var prefs map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil
	}
	return prefs
}

func (s *PostgresStore) writeCache(ctx context.Context, key string, prefs map[string]interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn("preference cache write failed", map[string]interface{}{"key": key})
	}
}
