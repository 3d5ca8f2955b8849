package toast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/flowdecoder/internal/clock"
)

// Defaults for Config.
const (
	DefaultMax       = 5
	DefaultExitDelay = 300 * time.Millisecond
)

// Config configures a Queue.
type Config struct {
	Clock     clock.Clock
	Max       int
	ExitDelay time.Duration
}

// DefaultConfig returns a Config using the real clock.
func DefaultConfig() Config {
	return Config{Clock: clock.Real(), Max: DefaultMax, ExitDelay: DefaultExitDelay}
}

type entry struct {
	toast     Toast
	autoTimer clock.Timer
	exitTimer clock.Timer
}

// Queue holds the live toasts in creation order. It is safe for concurrent
// use; timer callbacks and listeners run without the lock held.
type Queue struct {
	mu        sync.Mutex
	clock     clock.Clock
	max       int
	exitDelay time.Duration
	entries   []*entry
	listeners []func()
}

// New validates cfg and returns an empty queue. Configuration problems are
// reported here so that Show and Dismiss never fail.
func New(cfg Config) (*Queue, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("toast queue requires a clock")
	}
	if cfg.Max < 1 {
		return nil, fmt.Errorf("toast queue max must be at least 1, got %d", cfg.Max)
	}
	if cfg.ExitDelay < 0 {
		return nil, fmt.Errorf("toast exit delay must not be negative, got %s", cfg.ExitDelay)
	}
	return &Queue{clock: cfg.Clock, max: cfg.Max, exitDelay: cfg.ExitDelay}, nil
}

// OnChange registers fn to run after every lifecycle transition.
func (q *Queue) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, fn)
}

// Show queues a toast and returns its id without waiting for it to expire.
// When the queue already holds Max active toasts the oldest one is dismissed.
func (q *Queue) Show(message string, opts ...Option) string {
	t := Toast{
		Message:     message,
		Kind:        KindInfo,
		Duration:    DefaultDuration,
		Dismissible: true,
	}
	for _, opt := range opts {
		opt(&t)
	}
	t.ID = "toast-" + uuid.NewString()
	t.Phase = PhaseCreated

	q.mu.Lock()
	t.CreatedAt = q.clock.Now()
	for q.activeLocked() >= q.max {
		q.beginExitLocked(q.oldestActiveLocked())
	}
	e := &entry{toast: t}
	q.entries = append(q.entries, e)
	e.toast.Phase = PhaseVisible
	if e.toast.AutoDismiss() {
		id := t.ID
		e.autoTimer = q.clock.AfterFunc(e.toast.Duration, func() { q.Dismiss(id) })
	}
	q.mu.Unlock()

	q.notify()
	return t.ID
}

// Success shows a success toast with the default one second duration.
func (q *Queue) Success(message string, opts ...Option) string {
	return q.Show(message, kindOpts(KindSuccess, opts)...)
}

// Info shows an info toast with the default one second duration.
func (q *Queue) Info(message string, opts ...Option) string {
	return q.Show(message, kindOpts(KindInfo, opts)...)
}

// Warning shows a warning toast that lasts 1.5 seconds by default.
func (q *Queue) Warning(message string, opts ...Option) string {
	return q.Show(message, kindOpts(KindWarning, opts)...)
}

// Error shows an error toast that lasts 2 seconds by default.
func (q *Queue) Error(message string, opts ...Option) string {
	return q.Show(message, kindOpts(KindError, opts)...)
}

func kindOpts(k Kind, opts []Option) []Option {
	return append([]Option{WithKind(k), WithDuration(defaultDuration(k))}, opts...)
}

// Dismiss starts the exit phase of a visible toast. Unknown ids and toasts
// already exiting are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	e := q.findLocked(id)
	if e == nil || e.toast.Phase != PhaseVisible {
		q.mu.Unlock()
		return
	}
	q.beginExitLocked(e)
	q.mu.Unlock()

	q.notify()
}

// DismissAll starts the exit phase of every visible toast.
func (q *Queue) DismissAll() {
	q.mu.Lock()
	changed := false
	for _, e := range q.entries {
		if e.toast.Phase == PhaseVisible {
			q.beginExitLocked(e)
			changed = true
		}
	}
	q.mu.Unlock()

	if changed {
		q.notify()
	}
}

// Invoke runs the action at index on toast id and dismisses the toast unless
// the action keeps it open. It reports whether an action ran.
func (q *Queue) Invoke(id string, index int) bool {
	q.mu.Lock()
	e := q.findLocked(id)
	if e == nil || e.toast.Phase != PhaseVisible || index < 0 || index >= len(e.toast.Actions) {
		q.mu.Unlock()
		return false
	}
	action := e.toast.Actions[index]
	q.mu.Unlock()

	if action.Handler != nil {
		action.Handler()
	}
	if !action.KeepOpen {
		q.Dismiss(id)
	}
	return true
}

// Toasts returns copies of every toast not yet removed, oldest first.
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, 0, len(q.entries))
	for _, e := range q.entries {
		t := e.toast
		t.Actions = append([]Action(nil), e.toast.Actions...)
		out = append(out, t)
	}
	return out
}

// Get returns a copy of the toast with id, if it has not been removed.
func (q *Queue) Get(id string) (Toast, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.findLocked(id)
	if e == nil {
		return Toast{}, false
	}
	return e.toast, true
}

// Active returns the number of visible toasts.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.activeLocked()
}

func (q *Queue) activeLocked() int {
	n := 0
	for _, e := range q.entries {
		if e.toast.Phase == PhaseVisible {
			n++
		}
	}
	return n
}

func (q *Queue) oldestActiveLocked() *entry {
	for _, e := range q.entries {
		if e.toast.Phase == PhaseVisible {
			return e
		}
	}
	return nil
}

func (q *Queue) findLocked(id string) *entry {
	for _, e := range q.entries {
		if e.toast.ID == id {
			return e
		}
	}
	return nil
}

func (q *Queue) beginExitLocked(e *entry) {
	if e.autoTimer != nil {
		e.autoTimer.Stop()
		e.autoTimer = nil
	}
	e.toast.Phase = PhaseExiting
	e.exitTimer = q.clock.AfterFunc(q.exitDelay, func() { q.remove(e) })
}

func (q *Queue) remove(e *entry) {
	q.mu.Lock()
	removed := false
	for i, candidate := range q.entries {
		if candidate == e {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			e.toast.Phase = PhaseRemoved
			removed = true
			break
		}
	}
	q.mu.Unlock()

	if removed {
		q.notify()
	}
}

func (q *Queue) notify() {
	q.mu.Lock()
	listeners := append([]func(){}, q.listeners...)
	q.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
