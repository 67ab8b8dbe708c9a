package storage

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"
)

// Memory is an in-process backend. One Memory may be shared by several
// sessions in the same process; its contents end with the process.
type Memory struct {
	items *cache.Cache

	mu       sync.Mutex
	closed   bool
	watchers map[uint64]func(Change)
	nextID   uint64
}

// NewMemory returns an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{
		items:    cache.New(cache.NoExpiration, 0),
		watchers: make(map[uint64]func(Change)),
	}
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if m.isClosed() {
		return "", false, ErrClosed
	}
	value, ok := m.items.Get(key)
	if !ok {
		return "", false, nil
	}
	text, ok := value.(string)
	if !ok {
		return "", false, nil
	}
	return text, true, nil
}

// Set implements Backend.
func (m *Memory) Set(_ context.Context, key, value string) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.items.Set(key, value, cache.NoExpiration)
	return nil
}

// Delete implements Backend.
func (m *Memory) Delete(_ context.Context, key string) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.items.Delete(key)
	return nil
}

// Close flushes the contents. Later calls return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.items.Flush()
	m.watchers = make(map[uint64]func(Change))
	return nil
}

// Announce delivers change to every watcher on its own goroutine, so a
// watcher never runs inside the writer's call.
func (m *Memory) Announce(_ context.Context, change Change) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	fns := make([]func(Change), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		go fn(change)
	}
	return nil
}

// Watch implements Signaler.
func (m *Memory) Watch(_ context.Context, fn func(Change)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}, ErrClosed
	}
	m.nextID++
	id := m.nextID
	m.watchers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}, nil
}

func (m *Memory) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
