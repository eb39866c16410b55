// Package session owns one BLE connection to a GLM laser meter: it
// connects, subscribes to the measurement characteristic, activates
// auto-sync mode and streams decoded measurements to an output sink until
// the link drops or the context is cancelled.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chaz8081/glm-wedge/internal/ble"
	"github.com/chaz8081/glm-wedge/internal/ble/protocol"
)

// Close reasons. Each is wrapped around the transport's own error.
var (
	ErrTransportConnect   = errors.New("session: connect failed")
	ErrTransportSubscribe = errors.New("session: subscribe failed")
	ErrTransportWrite     = errors.New("session: activation write failed")
	ErrDisconnected       = errors.New("session: device disconnected")
	ErrAlreadyStarted     = errors.New("session: already started")
)

// State is the connection lifecycle stage.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActivating
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActivating:
		return "activating"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Display shows session progress locally. Measurements are also sent to
// the sink; status frames only ever reach the display.
type Display interface {
	Ready(address string)
	Measurement(m protocol.Measurement)
	Status(s protocol.Status)
}

// Sink receives the text of every measurement, in arrival order.
type Sink interface {
	Inject(text string) error
}

// Options configures a Session.
type Options struct {
	QueueSize int // decoded frames buffered between the transport and the sink
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{QueueSize: 64}
}

// event is one decoded frame handed from the transport goroutine to Run.
type event struct {
	notification protocol.Notification
	err          error
}

// Session is single-use: construct, Run once, discard.
type Session struct {
	adapter ble.Adapter
	address string
	sink    Sink
	display Display

	state    atomic.Int32
	streamed atomic.Bool
	events   chan event

	lost     chan struct{}
	lostOnce sync.Once

	mu     sync.Mutex
	reason error
}

// New creates a session for the device at address. Panics if adapter or
// sink is nil (programmer error). A nil display discards local output.
func New(adapter ble.Adapter, address string, sink Sink, display Display, opts Options) *Session {
	if adapter == nil || sink == nil {
		panic("session: New called with nil adapter or sink")
	}
	if display == nil {
		display = nopDisplay{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Session{
		adapter: adapter,
		address: address,
		sink:    sink,
		display: display,
		events:  make(chan event, opts.QueueSize),
		lost:    make(chan struct{}),
	}
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Streamed reports whether the session ever reached StateStreaming.
func (s *Session) Streamed() bool {
	return s.streamed.Load()
}

// Reason returns why the session closed, or nil for a clean close or a
// session that is still running.
func (s *Session) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Run drives the session until the device disconnects, a transport step
// fails, or ctx is cancelled. Cancellation is a clean close and returns
// nil; any other close returns the reason wrapping one of the ErrTransport
// sentinels or ErrDisconnected.
func (s *Session) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return ErrAlreadyStarted
	}

	slog.Info("[SESSION] connecting", "address", s.address)
	if err := s.adapter.Enable(); err != nil {
		return s.fail(ctx, ErrTransportConnect, err)
	}
	conn, err := s.adapter.Connect(ctx, s.address)
	if err != nil {
		return s.fail(ctx, ErrTransportConnect, err)
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			slog.Debug("[SESSION] disconnect", "error", err)
		}
	}()
	conn.OnDisconnect(s.onDisconnect)
	slog.Info("[SESSION] connected", "address", s.address)

	s.setState(StateActivating)
	char, err := conn.DiscoverCharacteristic(ble.AnyService, ble.MeasurementCharUUID)
	if err != nil {
		return s.fail(ctx, ErrTransportSubscribe, err)
	}
	if err := char.Subscribe(s.handleFrame); err != nil {
		return s.fail(ctx, ErrTransportSubscribe, err)
	}
	if err := char.Write(protocol.ActivationCommand()); err != nil {
		return s.fail(ctx, ErrTransportWrite, err)
	}

	s.setState(StateStreaming)
	s.streamed.Store(true)
	slog.Info("[SESSION] auto-sync enabled, streaming", "address", s.address)
	s.display.Ready(s.address)

	return s.stream(ctx)
}

// stream dispatches decoded frames until the context ends or the link drops.
func (s *Session) stream(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return s.close(nil)
		case <-s.lost:
			s.drain()
			return s.close(ErrDisconnected)
		case ev := <-s.events:
			s.dispatch(ev)
		}
	}
}

// handleFrame runs on the transport goroutine. It decodes the frame, which
// copies whatever it keeps, and queues the result without blocking.
func (s *Session) handleFrame(frame []byte) {
	n, err := protocol.Decode(frame)
	select {
	case s.events <- event{notification: n, err: err}:
	default:
		slog.Warn("[SESSION] event queue full, dropping frame", "frame", fmt.Sprintf("%X", frame))
	}
}

// drain dispatches frames that arrived before the disconnect.
func (s *Session) drain() {
	for {
		select {
		case ev := <-s.events:
			s.dispatch(ev)
		default:
			return
		}
	}
}

func (s *Session) dispatch(ev event) {
	if ev.err != nil {
		slog.Warn("[SESSION] parsing error, frame dropped", "error", ev.err)
		return
	}

	switch ev.notification.Kind {
	case protocol.KindMeasurement:
		m := ev.notification.Measurement
		slog.Debug("[SESSION] measurement", "meters", m.Text)
		s.display.Measurement(m)
		if err := s.sink.Inject(m.Text); err != nil {
			slog.Error("[SESSION] output sink failed", "value", m.Text, "error", err)
		}
	default:
		s.display.Status(ev.notification.Status)
	}
}

func (s *Session) onDisconnect() {
	s.lostOnce.Do(func() {
		slog.Warn("[SESSION] device disconnected", "address", s.address)
		close(s.lost)
	})
}

// fail closes the session for a failed transport step. A failure caused by
// cancellation is reported as a clean close.
func (s *Session) fail(ctx context.Context, kind, err error) error {
	if ctx.Err() != nil {
		return s.close(nil)
	}
	return s.close(fmt.Errorf("%w: %w", kind, err))
}

func (s *Session) close(reason error) error {
	s.mu.Lock()
	s.reason = reason
	s.mu.Unlock()
	s.setState(StateClosed)

	if reason != nil {
		slog.Error("[SESSION] closed", "address", s.address, "reason", reason)
	} else {
		slog.Info("[SESSION] closed", "address", s.address)
	}
	return reason
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

type nopDisplay struct{}

func (nopDisplay) Ready(string)                     {}
func (nopDisplay) Measurement(protocol.Measurement) {}
func (nopDisplay) Status(protocol.Status)           {}
