package store

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"sync"
)

// Memory is a process-local Store. It backs the test suites and is handy
// for poking at the API without a Redis instance; it makes no attempt at
// persistence.
type Memory struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	zsets   map[string]map[string]float64
}

func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
	}
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	return m.incrBy(key, 1)
}

func (m *Memory) Decr(_ context.Context, key string) (int64, error) {
	return m.incrBy(key, -1)
}

func (m *Memory) incrBy(key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := int64(0)
	if raw, ok := m.strings[key]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer", key)
		}
		current = n
	}
	current += delta
	m.strings[key] = strconv.FormatInt(current, 10)
	return current, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strings[key], nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

func (m *Memory) HSet(_ context.Context, key string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for field, value := range fields {
		h[field] = fmt.Sprintf("%v", value)
	}
	return nil
}

func (m *Memory) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hashes[key][field], nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for field, value := range m.hashes[key] {
		out[field] = value
	}
	return out, nil
}

func (m *Memory) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, field := range fields {
		delete(m.hashes[key], field)
	}
	return nil
}

func (m *Memory) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	current := int64(0)
	if raw, ok := h[field]; ok && raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %s at %s is not an integer", field, key)
		}
		current = n
	}
	current += delta
	h[field] = strconv.FormatInt(current, 10)
	return current, nil
}

func (m *Memory) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64)
		m.zsets[key] = z
	}
	z[member] = score
	return nil
}

func (m *Memory) ZIncrBy(_ context.Context, key string, delta float64, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64)
		m.zsets[key] = z
	}
	z[member] += delta
	return z[member], nil
}

func (m *Memory) ZRange(ctx context.Context, key string, start, stop int64, rev bool) ([]string, error) {
	members, err := m.ZRangeWithScores(ctx, key, start, stop, rev)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(members))
	for i, member := range members {
		out[i] = member.Value
	}
	return out, nil
}

func (m *Memory) ZRangeWithScores(_ context.Context, key string, start, stop int64, rev bool) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := m.sorted(key)
	if rev {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	lo, hi, ok := sliceBounds(start, stop, int64(len(sorted)))
	if !ok {
		return nil, nil
	}
	return sorted[lo : hi+1], nil
}

func (m *Memory) ZRangeByScore(_ context.Context, key string, min, max float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, member := range m.sorted(key) {
		if member.Score >= min && member.Score <= max {
			out = append(out, member.Value)
		}
	}
	return out, nil
}

func (m *Memory) ZRemRangeByRank(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := m.sorted(key)
	lo, hi, ok := sliceBounds(start, stop, int64(len(sorted)))
	if !ok {
		return nil
	}
	for _, member := range sorted[lo : hi+1] {
		delete(m.zsets[key], member.Value)
	}
	return nil
}

func (m *Memory) ZRemRangeByScore(_ context.Context, key string, min, max float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(0)
	for member, score := range m.zsets[key] {
		if score >= min && score <= max {
			delete(m.zsets[key], member)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) ZCard(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.zsets[key])), nil
}

func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for key := range m.strings {
		if ok, _ := path.Match(pattern, key); ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

// sorted returns members ordered by score ascending, then member
// ascending, matching the backing store's ordering. Callers hold mu.
func (m *Memory) sorted(key string) []Member {
	z := m.zsets[key]
	out := make([]Member, 0, len(z))
	for member, score := range z {
		out = append(out, Member{Value: member, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// sliceBounds resolves start/stop rank indices, which may be negative,
// into slice bounds over a set of size n.
func sliceBounds(start, stop, n int64) (int64, int64, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}
