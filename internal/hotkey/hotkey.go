// Package hotkey provides a global pause/resume hotkey using gohook.
// Each press of the key combo flips between paused and resumed.
package hotkey

import (
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether output should be paused or resumed.
type EventType int

const (
	// EventPause signals that measurements should stop reaching the sink.
	EventPause EventType = iota
	// EventResume signals that measurements should reach the sink again.
	EventResume
)

func (t EventType) String() string {
	if t == EventPause {
		return "pause"
	}
	return "resume"
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Listener manages a global hotkey and emits pause/resume events.
type Listener struct {
	keys []string
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	paused bool
}

// NewListener creates a Listener for the given key combo.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "m"]).
func NewListener(keys []string) *Listener {
	return &Listener{
		keys: keys,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(hook.Event) {
		l.press()
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// press flips the pause state and emits the matching event.
func (l *Listener) press() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.paused = !l.paused
	ev := Event{Type: EventResume}
	if l.paused {
		ev.Type = EventPause
	}
	select {
	case l.ch <- ev:
	default: // don't block the hook thread if nobody is reading
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Pauser is the target of hotkey events, typically an *inject.Gate.
type Pauser interface {
	SetPaused(paused bool)
}

// Forward applies events to p until the channel is closed.
func Forward(events <-chan Event, p Pauser) {
	for ev := range events {
		p.SetPaused(ev.Type == EventPause)
		slog.Info("[HOTKEY] toggled", "state", ev.Type)
	}
}
