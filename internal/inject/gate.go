package inject

import (
	"log/slog"
	"sync/atomic"
)

// Gate forwards text to another injector unless paused. It is toggled from
// the global pause hotkey while the session keeps streaming.
type Gate struct {
	next   TextInjector
	paused atomic.Bool
}

var _ TextInjector = (*Gate)(nil)

// NewGate wraps next. Panics if next is nil (programmer error).
func NewGate(next TextInjector) *Gate {
	if next == nil {
		panic("inject: NewGate called with nil injector")
	}
	return &Gate{next: next}
}

// Inject forwards text unless the gate is paused.
func (g *Gate) Inject(text string) error {
	if g.paused.Load() {
		slog.Info("[INJECT] paused, not typing", "value", text)
		return nil
	}
	return g.next.Inject(text)
}

// SetPaused pauses or resumes forwarding.
func (g *Gate) SetPaused(paused bool) {
	g.paused.Store(paused)
}

// Paused reports whether forwarding is paused.
func (g *Gate) Paused() bool {
	return g.paused.Load()
}

// Cue is an audible confirmation played after a value is delivered.
type Cue interface {
	Play() error
}

// CueInjector plays a cue after every successful injection.
type CueInjector struct {
	next TextInjector
	cue  Cue
}

var _ TextInjector = (*CueInjector)(nil)

// NewCueInjector wraps next. Panics if either argument is nil.
func NewCueInjector(next TextInjector, cue Cue) *CueInjector {
	if next == nil || cue == nil {
		panic("inject: NewCueInjector called with nil argument")
	}
	return &CueInjector{next: next, cue: cue}
}

// Inject forwards text and plays the cue on success. Cue failures are
// logged, not returned: the value was already delivered.
func (c *CueInjector) Inject(text string) error {
	if err := c.next.Inject(text); err != nil {
		return err
	}
	if err := c.cue.Play(); err != nil {
		slog.Warn("[INJECT] cue failed", "error", err)
	}
	return nil
}
