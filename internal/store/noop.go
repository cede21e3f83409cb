package store

import "context"

// Noop is the null-object Store selected when no Redis URL is configured.
// Every operation succeeds with the neutral value, so product flows keep
// working (recommendations fall back to empty, counters read zero) without
// conditionals at call sites.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Incr(context.Context, string) (int64, error)  { return 0, nil }
func (*Noop) Decr(context.Context, string) (int64, error)  { return 0, nil }
func (*Noop) Get(context.Context, string) (string, error)  { return "", nil }
func (*Noop) Set(context.Context, string, string) error    { return nil }

func (*Noop) HSet(context.Context, string, map[string]interface{}) error { return nil }
func (*Noop) HGet(context.Context, string, string) (string, error)      { return "", nil }
func (*Noop) HGetAll(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*Noop) HDel(context.Context, string, ...string) error { return nil }
func (*Noop) HIncrBy(context.Context, string, string, int64) (int64, error) {
	return 0, nil
}

func (*Noop) ZAdd(context.Context, string, float64, string) error { return nil }
func (*Noop) ZIncrBy(context.Context, string, float64, string) (float64, error) {
	return 0, nil
}
func (*Noop) ZRange(context.Context, string, int64, int64, bool) ([]string, error) {
	return nil, nil
}
func (*Noop) ZRangeWithScores(context.Context, string, int64, int64, bool) ([]Member, error) {
	return nil, nil
}
func (*Noop) ZRangeByScore(context.Context, string, float64, float64) ([]string, error) {
	return nil, nil
}
func (*Noop) ZRemRangeByRank(context.Context, string, int64, int64) error { return nil }
func (*Noop) ZRemRangeByScore(context.Context, string, float64, float64) (int64, error) {
	return 0, nil
}
func (*Noop) ZCard(context.Context, string) (int64, error)       { return 0, nil }
func (*Noop) Keys(context.Context, string) ([]string, error)     { return nil, nil }
