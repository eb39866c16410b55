// Package supervisor is the top-level control loop: it resolves which
// device to use, runs a connection session and turns the outcome into a
// process exit status with user-facing remediation text.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chaz8081/glm-wedge/internal/ble"
	"github.com/chaz8081/glm-wedge/internal/identity"
	"github.com/chaz8081/glm-wedge/internal/selector"
	"github.com/chaz8081/glm-wedge/internal/session"
)

// ExitStatus is the process exit code produced by Run.
type ExitStatus int

const (
	ExitOK         ExitStatus = 0 // clean shutdown, including Ctrl+C
	ExitNoDevices  ExitStatus = 1 // discovery failed or found nothing
	ExitConnection ExitStatus = 2 // session closed by a transport failure
	ExitSelection  ExitStatus = 3 // selection aborted (input closed)
	ExitConfig     ExitStatus = 4 // invalid configuration (used by main)
)

// Chooser resolves a device address interactively and persists it.
type Chooser interface {
	Select(ctx context.Context) (string, error)
}

// Compile-time check that the selector satisfies Chooser.
var _ Chooser = (*selector.Selector)(nil)

// Options configures the supervisor.
type Options struct {
	ForceSelect bool // ignore the stored identity and pick again

	// ReconnectAttempts is how many extra sessions are opened after a
	// transport failure. Zero surfaces the first failure.
	ReconnectAttempts int
	// ReconnectMax caps the backoff between sessions, in seconds.
	ReconnectMax int

	Session session.Options
}

// DefaultOptions returns the reference behavior: no automatic reconnect.
func DefaultOptions() Options {
	return Options{
		ReconnectMax: 30,
		Session:      session.DefaultOptions(),
	}
}

// Supervisor wires the identity store, the selector and one session.
type Supervisor struct {
	adapter ble.Adapter
	store   *identity.Store
	chooser Chooser
	sink    session.Sink
	display session.Display
	out     io.Writer
	opts    Options

	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a Supervisor. Prompts and terminal diagnostics go to out.
func New(adapter ble.Adapter, store *identity.Store, chooser Chooser, sink session.Sink, display session.Display, out io.Writer, opts Options) *Supervisor {
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30
	}
	return &Supervisor{
		adapter: adapter,
		store:   store,
		chooser: chooser,
		sink:    sink,
		display: display,
		out:     out,
		opts:    opts,
		sleep:   sleepCtx,
	}
}

// Run resolves the device, streams measurements until the session ends
// and returns the exit status. Cancelling ctx is a clean shutdown.
func (s *Supervisor) Run(ctx context.Context) ExitStatus {
	addr, status, ok := s.resolve(ctx)
	if !ok {
		return status
	}

	fmt.Fprintf(s.out, "\nTargeting: %s\n", addr)

	attempt := 0
	for {
		sess := session.New(s.adapter, addr, s.sink, s.display, s.opts.Session)
		err := sess.Run(ctx)
		if err == nil {
			fmt.Fprintln(s.out, "\nExiting...")
			return ExitOK
		}

		// A link that streamed before dropping starts a fresh retry budget.
		if sess.Streamed() {
			attempt = 0
		}
		if attempt >= s.opts.ReconnectAttempts {
			s.reportConnection(err)
			return ExitConnection
		}

		delay := backoffDelay(attempt, s.opts.ReconnectMax)
		attempt++
		slog.Warn("[SUPERVISOR] session closed, retrying",
			"error", err, "attempt", attempt, "of", s.opts.ReconnectAttempts, "delay", delay)
		if !s.sleep(ctx, delay) {
			fmt.Fprintln(s.out, "\nExiting...")
			return ExitOK
		}
	}
}

// resolve returns the stored address, or runs the chooser when there is
// none (or re-selection was forced).
func (s *Supervisor) resolve(ctx context.Context) (string, ExitStatus, bool) {
	if !s.opts.ForceSelect {
		if addr, ok := s.store.Load(); ok {
			slog.Info("[SUPERVISOR] using saved device", "address", addr, "path", s.store.Path())
			return addr, ExitOK, true
		}
	}

	// Reading the choice blocks on the terminal, which cannot be
	// interrupted; run it aside so Ctrl+C still unwinds immediately.
	type result struct {
		addr string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		addr, err := s.chooser.Select(ctx)
		ch <- result{addr, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(s.out, "\nExiting...")
		return "", ExitOK, false
	case r := <-ch:
		if r.err == nil {
			return r.addr, ExitOK, true
		}
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nExiting...")
			return "", ExitOK, false
		}
		return "", s.reportSelection(r.err), false
	}
}

func (s *Supervisor) reportSelection(err error) ExitStatus {
	switch {
	case errors.Is(err, selector.ErrNoDevices):
		fmt.Fprintln(s.out, "No Bluetooth devices found. Is Bluetooth turned on?")
		return ExitNoDevices
	case errors.Is(err, selector.ErrInputClosed), errors.Is(err, selector.ErrTooManyAttempts):
		fmt.Fprintf(s.out, "No device selected: %v\n", err)
		return ExitSelection
	default:
		fmt.Fprintf(s.out, "Device discovery failed: %v\n", err)
		fmt.Fprintln(s.out, "Tip: Make sure Bluetooth is turned on and this program may use it.")
		return ExitNoDevices
	}
}

func (s *Supervisor) reportConnection(err error) {
	fmt.Fprintf(s.out, "\nConnection Error: %v\n", err)
	fmt.Fprintf(s.out, "Tip: If the address changed, run \"glm-wedge forget\" (or delete %s) and run again.\n", s.store.Path())
}

// backoffDelay returns the reconnection delay for attempt n, capped at maxSeconds.
func backoffDelay(attempt int, maxSeconds int) time.Duration {
	limit := time.Duration(maxSeconds) * time.Second
	// Beyond 2^30 seconds the cap always applies; avoid shift overflow.
	if attempt > 30 {
		return limit
	}
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > limit {
		return limit
	}
	return delay
}

// sleepCtx waits for d, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
