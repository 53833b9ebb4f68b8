package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockCmdable is an in-memory stand-in for the redis commands the Client uses.
type MockCmdable struct {
	mu     sync.Mutex
	Data   map[string]string
	TTLs   map[string]time.Duration
	SetErr error
	GetErr error
}

func NewMockCmdable() *MockCmdable {
	return &MockCmdable{
		Data: make(map[string]string),
		TTLs: make(map[string]time.Duration),
	}
}

// NewWithCmdable builds a Client over an arbitrary command surface.
func NewWithCmdable(store *MockCmdable) *Client {
	return &Client{store: store}
}

func (m *MockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *MockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return redis.NewStatusResult("", m.SetErr)
	}
	switch v := value.(type) {
	case []byte:
		m.Data[key] = string(v)
	default:
		m.Data[key] = fmt.Sprint(v)
	}
	m.TTLs[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *MockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return redis.NewStringResult("", m.GetErr)
	}
	v, ok := m.Data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *MockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.Data, key)
		delete(m.TTLs, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *MockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	if m.SetErr != nil {
		m.mu.Unlock()
		return redis.NewBoolResult(false, m.SetErr)
	}
	_, exists := m.Data[key]
	m.mu.Unlock()
	if exists {
		return redis.NewBoolResult(false, nil)
	}
	m.Set(ctx, key, value, expiration)
	return redis.NewBoolResult(true, nil)
}

func (m *MockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return redis.NewIntResult(0, m.SetErr)
	}
	n, _ := strconv.ParseInt(m.Data[key], 10, 64)
	n++
	m.Data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (m *MockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Data[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	m.TTLs[key] = expiration
	return redis.NewBoolResult(true, nil)
}
