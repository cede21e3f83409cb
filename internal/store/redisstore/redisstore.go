package redisstore

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/learnloop/engage-api/internal/store"
	"github.com/learnloop/engage-api/pkg/metrics"
)

// Store implements store.Store against Redis. Single-key operations map
// one to one onto Redis commands, which provides the atomicity the core
// relies on.
type Store struct {
	client  *redis.Client
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func New(config Config, logger *zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, logger: logger, metrics: m}, nil
}

// Client exposes the underlying connection for components that need raw
// access (the pub/sub broker shares it).
func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(op, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := s.client.Incr(ctx, key).Result()
	s.observe("incr", start, err)
	return n, err
}

func (s *Store) Decr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := s.client.Decr(ctx, key).Result()
	s.observe("decr", start, err)
	return n, err
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		s.observe("get", start, nil)
		return "", nil
	}
	s.observe("get", start, err)
	return v, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.client.Set(ctx, key, value, 0).Err()
	s.observe("set", start, err)
	return err
}

func (s *Store) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	start := time.Now()
	err := s.client.HSet(ctx, key, fields).Err()
	s.observe("hset", start, err)
	return err
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, error) {
	start := time.Now()
	v, err := s.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		s.observe("hget", start, nil)
		return "", nil
	}
	s.observe("hget", start, err)
	return v, err
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	m, err := s.client.HGetAll(ctx, key).Result()
	s.observe("hgetall", start, err)
	return m, err
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	start := time.Now()
	err := s.client.HDel(ctx, key, fields...).Err()
	s.observe("hdel", start, err)
	return err
}

func (s *Store) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	start := time.Now()
	n, err := s.client.HIncrBy(ctx, key, field, delta).Result()
	s.observe("hincrby", start, err)
	return n, err
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	start := time.Now()
	err := s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
	s.observe("zadd", start, err)
	return err
}

func (s *Store) ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	start := time.Now()
	n, err := s.client.ZIncrBy(ctx, key, delta, member).Result()
	s.observe("zincrby", start, err)
	return n, err
}

func (s *Store) ZRange(ctx context.Context, key string, startIdx, stop int64, rev bool) ([]string, error) {
	start := time.Now()
	var vals []string
	var err error
	if rev {
		vals, err = s.client.ZRevRange(ctx, key, startIdx, stop).Result()
	} else {
		vals, err = s.client.ZRange(ctx, key, startIdx, stop).Result()
	}
	s.observe("zrange", start, err)
	return vals, err
}

func (s *Store) ZRangeWithScores(ctx context.Context, key string, startIdx, stop int64, rev bool) ([]store.Member, error) {
	start := time.Now()
	var zs []redis.Z
	var err error
	if rev {
		zs, err = s.client.ZRevRangeWithScores(ctx, key, startIdx, stop).Result()
	} else {
		zs, err = s.client.ZRangeWithScores(ctx, key, startIdx, stop).Result()
	}
	s.observe("zrange_with_scores", start, err)
	if err != nil {
		return nil, err
	}
	members := make([]store.Member, 0, len(zs))
	for _, z := range zs {
		val, ok := z.Member.(string)
		if !ok {
			continue
		}
		members = append(members, store.Member{Value: val, Score: z.Score})
	}
	return members, nil
}

func (s *Store) ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	start := time.Now()
	vals, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
	s.observe("zrangebyscore", start, err)
	return vals, err
}

func (s *Store) ZRemRangeByRank(ctx context.Context, key string, startIdx, stop int64) error {
	start := time.Now()
	err := s.client.ZRemRangeByRank(ctx, key, startIdx, stop).Err()
	s.observe("zremrangebyrank", start, err)
	return err
}

func (s *Store) ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	start := time.Now()
	n, err := s.client.ZRemRangeByScore(ctx, key, formatScore(min), formatScore(max)).Result()
	s.observe("zremrangebyscore", start, err)
	return n, err
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := s.client.ZCard(ctx, key).Result()
	s.observe("zcard", start, err)
	return n, err
}

// Keys iterates with SCAN rather than KEYS so the popularity rebuild does
// not block the server on large keyspaces.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	err := iter.Err()
	s.observe("scan", start, err)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func formatScore(f float64) string {
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsInf(f, 1) {
		return "+inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
