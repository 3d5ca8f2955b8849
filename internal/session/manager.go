package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/flowdecoder/internal/clock"
)

// DefaultDebounce is the quiet period before a debounced write reaches the backend.
const DefaultDebounce = 300 * time.Millisecond

// debouncedWriteTimeout bounds a debounced write, which has no caller context.
const debouncedWriteTimeout = 5 * time.Second

// Backend is the durable key/value store behind a Manager. Values are strings
// or bools. Every call may fail independently.
type Backend interface {
	Get(ctx context.Context, keys []string) (map[string]any, error)
	Set(ctx context.Context, values map[string]any) error
	Clear(ctx context.Context) error
}

// Options configure a Manager.
type Options struct {
	Clock         clock.Clock
	Debounce      time.Duration
	StatusDisplay time.Duration
	Logger        *slog.Logger
}

// Manager is the single source of truth for State. Memory is updated
// synchronously; the backend is written afterwards, optimistically and without
// rollback. Overlapping writes are not serialized, so the backend may see them
// complete in either order.
type Manager struct {
	backend  Backend
	clock    clock.Clock
	debounce time.Duration
	logger   *slog.Logger
	status   *indicator

	mu      sync.Mutex
	state   State
	loaded  bool
	pending *pendingWrite
}

type pendingWrite struct {
	timer   clock.Timer
	partial Partial
}

// NewManager returns a Manager holding the empty default state.
func NewManager(backend Backend, opts Options) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("session manager requires a backend")
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:  backend,
		clock:    c,
		debounce: debounce,
		logger:   logger.With("component", "session"),
		status:   newIndicator(c, opts.StatusDisplay),
	}, nil
}

// OnStatus registers fn to receive every status transition.
func (m *Manager) OnStatus(fn func(Status)) {
	m.status.subscribe(fn)
}

// Status returns the current storage indicator state.
func (m *Manager) Status() Status {
	return m.status.get()
}

// Load reads the persisted fields and merges them over the defaults. On a
// backend failure the defaults stay in effect and a *LoadError is returned.
func (m *Manager) Load(ctx context.Context) (State, error) {
	values, err := m.backend.Get(ctx, Keys())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = true
	if err != nil {
		m.logger.Error("load failed", "error", err)
		return m.state, &LoadError{Err: err}
	}
	m.state, _ = normalize(m.state.Apply(partialFromValues(values)), Partial{})
	return m.state, nil
}

// Loaded reports whether Load has completed, successfully or not.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Get returns a copy of the in-memory state. It never touches the backend.
func (m *Manager) Get() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Update merges p into memory immediately and then writes it to the backend.
// A pending debounced partial is folded into the same write, with p taking
// precedence, so it cannot land afterwards and overwrite newer values.
func (m *Manager) Update(ctx context.Context, p Partial) error {
	m.mu.Lock()
	var write Partial
	m.state, write = normalize(m.state.Apply(p), p)
	if m.pending != nil {
		m.pending.timer.Stop()
		write = m.pending.partial.Merge(write)
		m.pending = nil
	}
	m.mu.Unlock()

	return m.write(ctx, write)
}

// UpdateDebounced merges p into memory immediately and schedules the backend
// write. A later call within the debounce window replaces the scheduled
// partial entirely; pending partials are never merged with each other.
func (m *Manager) UpdateDebounced(p Partial) {
	m.mu.Lock()
	var write Partial
	m.state, write = normalize(m.state.Apply(p), p)
	if write.IsZero() {
		m.mu.Unlock()
		return
	}

	if m.pending != nil {
		m.pending.timer.Stop()
	}
	pw := &pendingWrite{partial: write}
	pw.timer = m.clock.AfterFunc(m.debounce, func() { m.firePending(pw) })
	m.pending = pw
	m.mu.Unlock()

	m.status.set(StatusSaving)
}

// Flush writes a pending debounced partial right away. It is a no-op when
// nothing is pending.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	pw := m.pending
	if pw == nil {
		m.mu.Unlock()
		return nil
	}
	pw.timer.Stop()
	m.pending = nil
	m.mu.Unlock()

	return m.write(ctx, pw.partial)
}

// Clear resets memory to the defaults, drops any pending debounced write and
// clears the whole backend namespace.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.state = State{}
	if m.pending != nil {
		m.pending.timer.Stop()
		m.pending = nil
	}
	m.mu.Unlock()

	if err := m.backend.Clear(ctx); err != nil {
		m.logger.Error("clear failed", "error", err)
		return &ClearError{Err: err}
	}
	return nil
}

func (m *Manager) firePending(pw *pendingWrite) {
	m.mu.Lock()
	if m.pending != pw {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), debouncedWriteTimeout)
	defer cancel()
	// The status signal is the only place a debounced failure surfaces.
	_ = m.write(ctx, pw.partial)
}

func (m *Manager) write(ctx context.Context, p Partial) error {
	if p.IsZero() {
		return nil
	}
	m.status.set(StatusSaving)
	if err := m.backend.Set(ctx, p.Values()); err != nil {
		m.logger.Error("save failed", "error", err)
		m.status.set(StatusHidden)
		return &SaveError{Err: err}
	}
	m.status.set(StatusSaved)
	return nil
}
