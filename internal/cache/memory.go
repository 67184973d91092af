package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Memory is an in-process Cache used when redis is not configured and in
// tests. Values are stored JSON-encoded so callers never share memory.
type Memory struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	subs   map[string]map[chan string]struct{}
	now    func() time.Time
}

type memoryEntry struct {
	data    []byte
	count   int64
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]memoryEntry),
		subs:   make(map[string]map[chan string]struct{}),
		now:    time.Now,
	}
}

func (m *Memory) get(key string) (memoryEntry, bool) {
	e, ok := m.values[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.values, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *Memory) GetJSON(_ context.Context, key string, out any) error {
	m.mu.Lock()
	e, ok := m.get(key)
	m.mu.Unlock()
	if !ok || e.data == nil {
		return ErrMiss
	}
	return json.Unmarshal(e.data, out)
}

func (m *Memory) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.values[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Publish(_ context.Context, channel, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs[channel] {
		select {
		case ch <- message:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, channel string) (<-chan string, func() error) {
	ch := make(chan string, 16)

	m.mu.Lock()
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[chan string]struct{})
	}
	m.subs[channel][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	unsubscribe := func() error {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[channel], ch)
			if len(m.subs[channel]) == 0 {
				delete(m.subs, channel)
			}
			close(ch)
			m.mu.Unlock()
		})
		return nil
	}

	stop := context.AfterFunc(ctx, func() { _ = unsubscribe() })
	return ch, func() error {
		stop()
		return unsubscribe()
	}
}

func (m *Memory) IncrementRateLimit(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.get(key)
	if !ok {
		e = memoryEntry{expires: m.now().Add(window)}
	}
	e.count++
	m.values[key] = e
	return e.count, nil
}
