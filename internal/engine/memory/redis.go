// Package memory provides the session-memory stores backing the engine: a
// Redis store for shared deployments and a process-local cache store for
// single-node setups and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	errx "github.com/bayai-chat/server/internal/core/error"
	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/redis/go-redis/v9"

	"github.com/bayai-chat/server/internal/engine/model"
)

// RedisSessionStore persists session turns in a Redis list and the rolling
// summary in a companion hash. Every write touches the TTL so active
// sessions stay alive and idle ones expire together.
type RedisSessionStore struct {
	rdb         redis.Cmdable
	ttl         time.Duration
	maxMessages int64
}

func NewRedisSessionStore(rdb redis.Cmdable, cfg model.ConversationConfig) *RedisSessionStore {
	return &RedisSessionStore{
		rdb:         rdb,
		ttl:         cfg.TTLDuration(),
		maxMessages: int64(cfg.WindowTurns) * 2,
	}
}

func (r *RedisSessionStore) turnsKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:messages", sessionID)
}

func (r *RedisSessionStore) summaryKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:summary", sessionID)
}

func (r *RedisSessionStore) AppendTurns(ctx context.Context, sessionID string, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := r.turnsKey(sessionID)

	rows := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal turn")
			return fmt.Errorf("marshal turn: %w", err)
		}
		rows = append(rows, b)
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, rows...)
	if r.maxMessages > 0 {
		pipe.LTrim(ctx, key, -r.maxMessages, -1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, r.summaryKey(sessionID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append turns to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) History(ctx context.Context, sessionID string) ([]model.Turn, error) {
	key := r.turnsKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisSessionStore) TurnCount(ctx context.Context, sessionID string) (int, error) {
	key := r.turnsKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get session message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

func (r *RedisSessionStore) Summary(ctx context.Context, sessionID string) (string, int, error) {
	key := r.summaryKey(sessionID)
	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session summary from redis")
		return "", 0, errx.WrapRedis(err)
	}
	if len(fields) == 0 {
		return "", 0, nil
	}
	covered, _ := strconv.Atoi(fields["covered"])
	return fields["text"], covered, nil
}

func (r *RedisSessionStore) SetSummary(ctx context.Context, sessionID string, text string, covered int) error {
	key := r.summaryKey(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, "text", text, "covered", covered)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store session summary in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.turnsKey(sessionID), r.summaryKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to delete session state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionStore = (*RedisSessionStore)(nil)
