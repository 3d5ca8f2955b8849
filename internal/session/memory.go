package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in a map. It backs the "memory" storage option and
// the tests; failures can be injected per operation.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]any
	sets   []map[string]any

	GetErr   error
	SetErr   error
	ClearErr error
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]any)}
}

func (b *MemoryBackend) Get(_ context.Context, keys []string) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.GetErr != nil {
		return nil, b.GetErr
	}
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, ok := b.values[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, values map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SetErr != nil {
		return b.SetErr
	}
	written := make(map[string]any, len(values))
	for k, v := range values {
		b.values[k] = v
		written[k] = v
	}
	b.sets = append(b.sets, written)
	return nil
}

func (b *MemoryBackend) Clear(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ClearErr != nil {
		return b.ClearErr
	}
	b.values = make(map[string]any)
	return nil
}

// Put stores a raw value, bypassing Set bookkeeping.
func (b *MemoryBackend) Put(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// Snapshot returns a copy of every stored value.
func (b *MemoryBackend) Snapshot() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Writes returns the payload of every successful Set, oldest first.
func (b *MemoryBackend) Writes() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.sets...)
}

// SetFailure replaces the injected Set error under the backend lock.
func (b *MemoryBackend) SetFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SetErr = err
}
