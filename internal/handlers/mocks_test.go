package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/pvplabs/predictor-api/internal/predictor"
)

// mockQueue implements ExportQueue, recording enqueued rows.
type mockQueue struct {
	mu   sync.Mutex
	rows []predictor.TrainingRow
	full bool
}

func (q *mockQueue) Enqueue(row predictor.TrainingRow) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.rows = append(q.rows, row)
	return true
}

func (q *mockQueue) QueueDepth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.rows)
}

func (q *mockQueue) Rows() []predictor.TrainingRow {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]predictor.TrainingRow, len(q.rows))
	copy(out, q.rows)
	return out
}

// mockPgRow implements pgx.Row.
type mockPgRow struct {
	clientID string
	err      error
}

func (r *mockPgRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if id, ok := dest[0].(*string); ok {
			*id = r.clientID
		}
	}
	return nil
}

// mockPg implements PgPool, authorizing a single token hash.
type mockPg struct {
	tokenHash string
}

func (m *mockPg) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if len(args) == 1 && args[0] == m.tokenHash {
		return &mockPgRow{clientID: "client-1"}
	}
	return &mockPgRow{err: pgx.ErrNoRows}
}

func (m *mockPg) Ping(ctx context.Context) error { return nil }

// memoryRedis is an in-memory store.RedisClient covering the commands
// the stores issue.
type memoryRedis struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
	}
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return ""
	}
}

func (m *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (m *memoryRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = asString(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.strings[key]; ok {
			delete(m.strings, key)
			removed++
		}
		if _, ok := m.lists[key]; ok {
			delete(m.lists, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (m *memoryRedis) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	var added int64
	for _, member := range members {
		s := asString(member)
		if _, exists := set[s]; !exists {
			set[s] = struct{}{}
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (m *memoryRedis) SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, member := range members {
		s := asString(member)
		if _, exists := m.sets[key][s]; exists {
			delete(m.sets[key], s)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (m *memoryRedis) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return redis.NewStringSliceResult(members, nil)
}

func (m *memoryRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append(m.lists[key], asString(v))
	}
	return redis.NewIntResult(int64(len(m.lists[key])), nil)
}

func (m *memoryRedis) normalize(n int64, length int) int {
	if n < 0 {
		n += int64(length)
	}
	if n < 0 {
		n = 0
	}
	if n >= int64(length) {
		n = int64(length) - 1
	}
	return int(n)
}

func (m *memoryRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if len(list) == 0 {
		return redis.NewStatusResult("OK", nil)
	}
	lo := m.normalize(start, len(list))
	hi := m.normalize(stop, len(list))
	if lo > hi {
		m.lists[key] = nil
	} else {
		m.lists[key] = list[lo : hi+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	if len(list) == 0 {
		return redis.NewStringSliceResult(nil, nil)
	}
	lo := m.normalize(start, len(list))
	hi := m.normalize(stop, len(list))
	if lo > hi {
		return redis.NewStringSliceResult(nil, nil)
	}
	out := make([]string, hi+1-lo)
	copy(out, list[lo:hi+1])
	return redis.NewStringSliceResult(out, nil)
}
