// internal/agent/pending/redis.go
package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"household-agent/internal/agent/core"
	"household-agent/internal/common/logger"
)

const pendingKeyPrefix = "pending:"

// consumeScript atomically validates ownership and deletes the record.
// Returning the payload and deleting in one script keeps two concurrent
// consumers from both succeeding. Wrong-owner lookups leave the record in
// place so the rightful owner can still confirm.
var consumeScript = redis.NewScript(`
local user = redis.call('HGET', KEYS[1], 'user')
if not user then
  return false
end
local family = redis.call('HGET', KEYS[1], 'family')
if user ~= ARGV[1] or family ~= ARGV[2] then
  return 'wrong_owner'
end
local data = redis.call('HGET', KEYS[1], 'data')
redis.call('DEL', KEYS[1])
return data
`)

// RedisStore backs the pending action lifecycle with Redis so confirmations
// survive a process restart and can be shared across instances. Expiry is
// delegated to Redis key TTLs, so an expired token is indistinguishable
// from one that never existed.
type RedisStore struct {
	client     *redis.Client
	clock      core.Clock
	defaultTTL time.Duration
	log        logger.Logger
}

func NewRedisStore(client *redis.Client, clock core.Clock, defaultTTL time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{
		client:     client,
		clock:      clock,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

func (s *RedisStore) Create(ctx context.Context, params CreateParams) (*Action, error) {
	ttl := params.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	action := &Action{
		Token:          NewToken(),
		UserID:         params.UserID,
		FamilyID:       params.FamilyID,
		RequestID:      params.RequestID,
		ConversationID: params.ConversationID,
		ToolCall:       params.ToolCall,
		Description:    params.Description,
		IsDestructive:  params.IsDestructive,
		CreatedAt:      s.clock.Now(),
		TTL:            ttl,
	}

	data, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("marshal pending action: %w", err)
	}

	key := pendingKeyPrefix + action.Token
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "user", action.UserID, "family", action.FamilyID, "data", data)
	pipe.PExpire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store pending action: %w", err)
	}

	s.log.Debug("pending action created", map[string]interface{}{
		"token":       action.Token,
		"tool":        action.ToolCall.ToolName,
		"destructive": action.IsDestructive,
	})
	return action, nil
}

func (s *RedisStore) Get(ctx context.Context, token, callerUserID, callerFamilyID string) (*Action, Reason, error) {
	fields, err := s.client.HGetAll(ctx, pendingKeyPrefix+token).Result()
	if err != nil {
		return nil, ReasonNone, fmt.Errorf("lookup pending action: %w", err)
	}
	if len(fields) == 0 {
		return nil, ReasonNotFound, nil
	}
	if fields["user"] != callerUserID || fields["family"] != callerFamilyID {
		return nil, ReasonWrongOwner, nil
	}

	var action Action
	if err := json.Unmarshal([]byte(fields["data"]), &action); err != nil {
		return nil, ReasonNone, fmt.Errorf("decode pending action: %w", err)
	}
	return &action, ReasonNone, nil
}

func (s *RedisStore) Consume(ctx context.Context, token, callerUserID, callerFamilyID string) (*Action, Reason, error) {
	result, err := consumeScript.Run(ctx, s.client, []string{pendingKeyPrefix + token}, callerUserID, callerFamilyID).Result()
	if err == redis.Nil {
		s.log.Info("pending consume rejected", map[string]interface{}{
			"reason": string(ReasonNotFound),
		})
		return nil, ReasonNotFound, nil
	}
	if err != nil {
		return nil, ReasonNone, fmt.Errorf("consume pending action: %w", err)
	}

	raw, ok := result.(string)
	if !ok {
		return nil, ReasonNone, fmt.Errorf("consume pending action: unexpected script result %T", result)
	}
	if raw == "wrong_owner" {
		s.log.Info("pending consume rejected", map[string]interface{}{
			"reason": string(ReasonWrongOwner),
		})
		return nil, ReasonWrongOwner, nil
	}

	var action Action
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return nil, ReasonNone, fmt.Errorf("decode pending action: %w", err)
	}
	return &action, ReasonNone, nil
}
