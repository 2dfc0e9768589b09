package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore keeps a global sorted set plus one sorted set per player name.
// Members are "<tiebreak>|<json entry>"; the tiebreak shrinks with every
// append so ZREVRANGE lists equal scores in insertion order.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func OpenRedis(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return NewRedisStore(rdb, cfg.Prefix), nil
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "leaderboard"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) allKey() string { return s.prefix + ":all" }
func (s *RedisStore) seqKey() string { return s.prefix + ":seq" }
func (s *RedisStore) nameKey(name string) string { return s.prefix + ":name:" + name }

func (s *RedisStore) Append(ctx context.Context, e Entry) error {
	seq, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("next score seq: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	member := fmt.Sprintf("%020d|%s", math.MaxInt64-seq, data)
	z := &redis.Z{Score: float64(e.Score), Member: member}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.allKey(), z)
		pipe.ZAdd(ctx, s.nameKey(e.Name), z)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store score: %w", err)
	}
	return nil
}

func (s *RedisStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	return s.rangeOf(ctx, s.allKey(), limit)
}

func (s *RedisStore) TopForName(ctx context.Context, name string, limit int) ([]Entry, error) {
	return s.rangeOf(ctx, s.nameKey(name), limit)
}

func (s *RedisStore) rangeOf(ctx context.Context, key string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	members, err := s.rdb.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	out := make([]Entry, 0, len(members))
	for _, m := range members {
		_, raw, ok := strings.Cut(m, "|")
		if !ok {
			return nil, fmt.Errorf("read %s: malformed member", key)
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
