package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/infra"
)

// UnavailableError marks a failure to reach the store at all, as
// opposed to a procedure that ran and reported a domain result code.
// It is the only kind of failure callers may retry.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %v: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Store is the minimal capability contract the waiting room needs from
// redis: hash read/write, expiring sorted sets, set-if-absent leases
// and server-side atomic procedures.
type Store struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func ProvideStore(client *redis.Client, loggerFactory *infra.LoggerFactory) *Store {
	return &Store{
		client: client,
		logger: loggerFactory.Create("Store").Sugar(),
	}
}

func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	val, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, &UnavailableError{Op: "hgetall", Err: err}
	}
	return val, nil
}

// HashGetAllScan reads a whole hash into dest through its redis struct
// tags. Returns false without touching dest when the hash is absent.
func (s *Store) HashGetAllScan(ctx context.Context, key string, dest interface{}) (bool, error) {
	cmd := s.client.HGetAll(ctx, key)
	if err := cmd.Err(); err != nil {
		return false, &UnavailableError{Op: "hgetall", Err: err}
	}
	if len(cmd.Val()) == 0 {
		return false, nil
	}
	if err := cmd.Scan(dest); err != nil {
		return false, &UnavailableError{Op: "hgetall scan", Err: err}
	}
	return true, nil
}

func (s *Store) HashSet(ctx context.Context, key string, fields map[string]interface{}) error {
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return &UnavailableError{Op: "hset", Err: err}
	}
	return nil
}

func (s *Store) HashIncrBy(ctx context.Context, key, field string, incr int64) (int64, error) {
	val, err := s.client.HIncrBy(ctx, key, field, incr).Result()
	if err != nil {
		return 0, &UnavailableError{Op: "hincrby", Err: err}
	}
	return val, nil
}

func (s *Store) SortedSetAdd(ctx context.Context, key, member string, score float64) error {
	if err := s.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err(); err != nil {
		return &UnavailableError{Op: "zadd", Err: err}
	}
	return nil
}

// SortedSetScore returns (score, true) when member is present.
func (s *Store) SortedSetScore(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &UnavailableError{Op: "zscore", Err: err}
	}
	return score, true, nil
}

func (s *Store) SortedSetRemove(ctx context.Context, key string, members ...interface{}) error {
	if err := s.client.ZRem(ctx, key, members...).Err(); err != nil {
		return &UnavailableError{Op: "zrem", Err: err}
	}
	return nil
}

// SortedSetRemoveRangeByScore prunes every member whose score is in
// [0, max], the lazy-expiry primitive of the sweep.
func (s *Store) SortedSetRemoveRangeByScore(ctx context.Context, key string, max int64) (int64, error) {
	removed, err := s.client.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%v", max)).Result()
	if err != nil {
		return 0, &UnavailableError{Op: "zremrangebyscore", Err: err}
	}
	return removed, nil
}

func (s *Store) SortedSetCard(ctx context.Context, key string) (int64, error) {
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, &UnavailableError{Op: "zcard", Err: err}
	}
	return count, nil
}

func (s *Store) SetAdd(ctx context.Context, key, member string) error {
	if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
		return &UnavailableError{Op: "sadd", Err: err}
	}
	return nil
}

func (s *Store) SetRemove(ctx context.Context, key, member string) error {
	if err := s.client.SRem(ctx, key, member).Err(); err != nil {
		return &UnavailableError{Op: "srem", Err: err}
	}
	return nil
}

func (s *Store) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, &UnavailableError{Op: "smembers", Err: err}
	}
	return members, nil
}

// SetIfAbsentTTL acquires a lease. There is no explicit release; the
// TTL frees it even when the holder crashes.
func (s *Store) SetIfAbsentTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, &UnavailableError{Op: "setnx", Err: err}
	}
	return acquired, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return &UnavailableError{Op: "del", Err: err}
	}
	return nil
}

// RunScript executes one of the atomic procedures server side. Other
// callers never observe partial application of its steps.
func (s *Store) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	result, err := script.Run(ctx, s.client, keys, args...).Result()
	if err != nil {
		return nil, &UnavailableError{Op: "script", Err: err}
	}
	return result, nil
}
