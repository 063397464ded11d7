package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

// LoginAttemptStore keeps one sorted set per throttling key. The score is the
// attempt time in unix milliseconds, so range queries map directly onto
// ZCOUNT/ZRANGEBYSCORE; the member is the nanosecond timestamp to keep
// near-simultaneous attempts distinct.
type LoginAttemptStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLoginAttemptStore constructs a store. Keys are namespaced under prefix
// and each set expires after ttl of inactivity so abandoned clients do not
// accumulate.
func NewLoginAttemptStore(client *redis.Client, prefix string, ttl time.Duration) *LoginAttemptStore {
	return &LoginAttemptStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *LoginAttemptStore) Record(ctx context.Context, key string, at time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.key(key), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: strconv.FormatInt(at.UnixNano(), 10),
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(key), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

func (s *LoginAttemptStore) Prune(ctx context.Context, key string, before time.Time) error {
	cutoff := "(" + strconv.FormatInt(before.UnixMilli(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.key(key), "-inf", cutoff).Err(); err != nil {
		return fmt.Errorf("prune login attempts: %w", err)
	}
	return nil
}

func (s *LoginAttemptStore) CountSince(ctx context.Context, key string, since time.Time) (int, error) {
	from := strconv.FormatInt(since.UnixMilli(), 10)
	count, err := s.client.ZCount(ctx, s.key(key), from, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count login attempts: %w", err)
	}
	return int(count), nil
}

func (s *LoginAttemptStore) OldestSince(ctx context.Context, key string, since time.Time) (time.Time, bool, error) {
	entries, err := s.client.ZRangeByScoreWithScores(ctx, s.key(key), &redis.ZRangeBy{
		Min:   strconv.FormatInt(since.UnixMilli(), 10),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read oldest login attempt: %w", err)
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(int64(entries[0].Score)), true, nil
}

func (s *LoginAttemptStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

var _ port.LoginAttemptStore = (*LoginAttemptStore)(nil)
