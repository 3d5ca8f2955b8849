// Package toast manages short-lived notifications with bounded FIFO eviction,
// auto-dismiss timers and a timed exit phase.
package toast

import (
	"time"
)

// Kind selects the styling and default duration of a toast.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// Default durations per kind.
const (
	DefaultDuration        = time.Second
	DefaultWarningDuration = 1500 * time.Millisecond
	DefaultErrorDuration   = 2 * time.Second
)

func defaultDuration(k Kind) time.Duration {
	switch k {
	case KindWarning:
		return DefaultWarningDuration
	case KindError:
		return DefaultErrorDuration
	default:
		return DefaultDuration
	}
}

// Phase is a toast's position in its lifecycle:
// created → visible → exiting → removed.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseVisible
	PhaseExiting
	PhaseRemoved
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseVisible:
		return "visible"
	case PhaseExiting:
		return "exiting"
	default:
		return "removed"
	}
}

// Action is a labelled callback attached to a toast.
type Action struct {
	Label    string
	Handler  func()
	KeepOpen bool
}

// Toast is a read-only copy of a queued notification.
type Toast struct {
	ID          string
	Message     string
	Kind        Kind
	Duration    time.Duration
	Persistent  bool
	Dismissible bool
	Actions     []Action
	Phase       Phase
	CreatedAt   time.Time
}

// AutoDismiss reports whether the toast retires itself.
func (t Toast) AutoDismiss() bool {
	return !t.Persistent && t.Duration > 0
}

// Option adjusts a toast before it is shown.
type Option func(*Toast)

// WithKind sets the kind. The duration is not changed.
func WithKind(k Kind) Option {
	return func(t *Toast) { t.Kind = k }
}

// WithDuration overrides the auto-dismiss delay. Zero or negative keeps the
// toast until dismissed.
func WithDuration(d time.Duration) Option {
	return func(t *Toast) { t.Duration = d }
}

// Persistent keeps the toast until it is dismissed explicitly.
func Persistent() Option {
	return func(t *Toast) { t.Persistent = true }
}

// NotDismissible hides the manual dismiss affordance.
func NotDismissible() Option {
	return func(t *Toast) { t.Dismissible = false }
}

// WithAction appends an action button.
func WithAction(label string, handler func(), keepOpen bool) Option {
	return func(t *Toast) {
		t.Actions = append(t.Actions, Action{Label: label, Handler: handler, KeepOpen: keepOpen})
	}
}
