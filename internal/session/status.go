package session

import (
	"sync"
	"time"

	"github.com/five82/flowdecoder/internal/clock"
)

// Status is the storage indicator shown next to the editor.
type Status string

const (
	StatusHidden Status = "hidden"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
)

// DefaultStatusDisplay is how long StatusSaved stays up before reverting to hidden.
const DefaultStatusDisplay = time.Second

// indicator tracks the current Status and reverts StatusSaved after a display
// window. Listeners are called outside the lock.
type indicator struct {
	mu        sync.Mutex
	clock     clock.Clock
	display   time.Duration
	current   Status
	hideTimer clock.Timer
	listeners []func(Status)
}

func newIndicator(c clock.Clock, display time.Duration) *indicator {
	if display <= 0 {
		display = DefaultStatusDisplay
	}
	return &indicator{clock: c, display: display, current: StatusHidden}
}

func (i *indicator) subscribe(fn func(Status)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = append(i.listeners, fn)
}

func (i *indicator) get() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

func (i *indicator) set(s Status) {
	i.mu.Lock()
	if i.hideTimer != nil {
		i.hideTimer.Stop()
		i.hideTimer = nil
	}
	i.current = s
	if s == StatusSaved {
		var timer clock.Timer
		timer = i.clock.AfterFunc(i.display, func() {
			i.mu.Lock()
			if i.hideTimer != timer {
				i.mu.Unlock()
				return
			}
			i.hideTimer = nil
			i.current = StatusHidden
			listeners := append([]func(Status){}, i.listeners...)
			i.mu.Unlock()
			notify(listeners, StatusHidden)
		})
		i.hideTimer = timer
	}
	listeners := append([]func(Status){}, i.listeners...)
	i.mu.Unlock()
	notify(listeners, s)
}

func notify(listeners []func(Status), s Status) {
	for _, fn := range listeners {
		fn(s)
	}
}
