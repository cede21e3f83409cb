package store

import "context"

// Member is a sorted-set member with its score.
type Member struct {
	Value string
	Score float64
}

// Store is the narrow key-value/sorted-set capability the engagement core
// runs against. Implementations must keep single-key operations atomic
// (increments, sorted-set add/remove); the core never relies on multi-key
// transactions. The null-object implementation returns the neutral value
// for every call, which is the degrade-to-empty contract callers depend on
// when the backing connection is absent.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	HSet(ctx context.Context, key string, fields map[string]interface{}) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)
	ZRange(ctx context.Context, key string, start, stop int64, rev bool) ([]string, error)
	ZRangeWithScores(ctx context.Context, key string, start, stop int64, rev bool) ([]Member, error)
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)

	// Keys matches keys against a glob pattern. Used only by the
	// popularity rebuild, which is a deliberate full scan.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
