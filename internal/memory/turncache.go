package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
	logx "github.com/inboundiq/server/pkg/logger"
)

// TurnCache is the short-term conversational memory: the last few turns per
// lead, kept hot with a sliding TTL so an idle conversation ages out.
type TurnCache interface {
	Append(ctx context.Context, leadKey string, t model.Turn) error
	Recent(ctx context.Context, leadKey string, n int) ([]model.Turn, error)
	Clear(ctx context.Context, leadKey string) error
}

type RedisTurnCache struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	maxTurns int
}

func NewRedisTurnCache(rdb redis.Cmdable, ttl time.Duration, maxTurns int) *RedisTurnCache {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &RedisTurnCache{rdb: rdb, ttl: ttl, maxTurns: maxTurns}
}

func (c *RedisTurnCache) turnsKey(leadKey string) string {
	return fmt.Sprintf("lead:%s:turns", leadKey)
}

func (c *RedisTurnCache) Append(ctx context.Context, leadKey string, t model.Turn) error {
	b, err := json.Marshal(t)
	if err != nil {
		logx.Error().Err(err).Str("leadKey", leadKey).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := c.turnsKey(leadKey)

	// append turn and cap list length
	if err := c.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	if err := c.rdb.LTrim(ctx, key, int64(-c.maxTurns), -1).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to trim turn list")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if c.ttl > 0 {
		if ok, err := c.rdb.Expire(ctx, key, c.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", c.ttl).Msg("failed to set TTL on turn key")
		}
	}
	return nil
}

func (c *RedisTurnCache) Recent(ctx context.Context, leadKey string, n int) ([]model.Turn, error) {
	key := c.turnsKey(leadKey)

	rows, err := c.rdb.LRange(ctx, key, int64(-n), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load turns from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("leadKey", leadKey).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (c *RedisTurnCache) Clear(ctx context.Context, leadKey string) error {
	key := c.turnsKey(leadKey)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete turns from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ TurnCache = (*RedisTurnCache)(nil)
