// Package selector discovers nearby BLE peripherals, narrows them to likely
// laser meters and lets the user pick one by index. The chosen address is
// persisted through the identity store.
package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chaz8081/glm-wedge/internal/ble"
	"github.com/chaz8081/glm-wedge/internal/identity"
)

// DefaultNameHint narrows candidates to Bosch GLM meters when any are present.
const DefaultNameHint = "GLM"

var (
	// ErrNoDevices means the scan found nothing to offer.
	ErrNoDevices = errors.New("selector: no Bluetooth devices found")
	// ErrInputClosed means input ended before a valid choice was made.
	ErrInputClosed = errors.New("selector: input closed before a device was selected")
	// ErrTooManyAttempts means MaxAttempts invalid choices were entered.
	ErrTooManyAttempts = errors.New("selector: too many invalid selections")
)

// Options configures discovery and the selection prompt.
type Options struct {
	NameHint    string        // case-insensitive name substring preferred when present
	ScanTimeout time.Duration // bound on the discovery scan
	MaxAttempts int           // invalid inputs tolerated; 0 means unbounded
}

// DefaultOptions returns the reference behavior: "GLM" hint, 5s scan,
// unbounded re-prompting.
func DefaultOptions() Options {
	return Options{
		NameHint:    DefaultNameHint,
		ScanTimeout: ble.DefaultScanTimeout,
	}
}

// Selector runs discovery and the interactive choice.
type Selector struct {
	adapter ble.Adapter
	store   *identity.Store
	in      *bufio.Reader
	out     io.Writer
	opts    Options

	linesOnce sync.Once
	lines     chan inputLine
}

// inputLine is one read from the input, delivered by the reader goroutine.
type inputLine struct {
	text string
	err  error
}

// New creates a Selector reading choices from in and writing prompts to out.
func New(adapter ble.Adapter, store *identity.Store, in io.Reader, out io.Writer, opts Options) *Selector {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = ble.DefaultScanTimeout
	}
	return &Selector{
		adapter: adapter,
		store:   store,
		in:      bufio.NewReader(in),
		out:     out,
		opts:    opts,
		lines:   make(chan inputLine),
	}
}

// Select discovers candidates, prompts for one, saves it and returns its address.
func (s *Selector) Select(ctx context.Context) (string, error) {
	candidates, err := s.Discover(ctx)
	if err != nil {
		return "", err
	}

	dev, err := s.Choose(ctx, candidates)
	if err != nil {
		return "", err
	}

	if err := s.store.Save(dev.Address); err != nil {
		return "", fmt.Errorf("selector: saving selection: %w", err)
	}
	slog.Info("[SELECT] device saved", "name", dev.Name, "address", dev.Address, "path", s.store.Path())
	return dev.Address, nil
}

// Discover runs one bounded scan and returns the ranked candidates.
// It returns ErrNoDevices when nothing was found.
func (s *Selector) Discover(ctx context.Context) ([]ble.Device, error) {
	hint := s.opts.NameHint
	if hint != "" {
		fmt.Fprintf(s.out, "Scanning for Bluetooth devices (looking for %s)...\n", hint)
	} else {
		fmt.Fprintln(s.out, "Scanning for Bluetooth devices...")
	}

	devices, err := ble.ScanForDevices(ctx, s.adapter, s.opts.ScanTimeout)
	if err != nil {
		return nil, fmt.Errorf("selector: discover: %w", err)
	}
	slog.Debug("[SELECT] scan finished", "found", len(devices))

	candidates := Rank(devices, hint)
	if len(candidates) == 0 {
		return nil, ErrNoDevices
	}
	return candidates, nil
}

// Rank narrows devices to those whose name contains hint (case-insensitive)
// when at least one matches; otherwise every device is kept. The result is
// ordered strongest signal first, keeping discovery order for ties.
func Rank(devices []ble.Device, hint string) []ble.Device {
	var matches []ble.Device
	if hint != "" {
		needle := strings.ToUpper(hint)
		for _, d := range devices {
			if strings.Contains(strings.ToUpper(d.Name), needle) {
				matches = append(matches, d)
			}
		}
	}

	result := matches
	if len(result) == 0 {
		result = make([]ble.Device, len(devices))
		copy(result, devices)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RSSI > result[j].RSSI // Strongest first (less negative)
	})
	return result
}

// Choose lists candidates and reads indices until a valid one is entered.
// Cancelling ctx abandons the prompt and returns ctx.Err().
func (s *Selector) Choose(ctx context.Context, candidates []ble.Device) (ble.Device, error) {
	if len(candidates) == 0 {
		return ble.Device{}, ErrNoDevices
	}

	fmt.Fprintln(s.out, "\nAvailable Devices:")
	for i, dev := range candidates {
		fmt.Fprintf(s.out, "[%d] %s - %s\n", i, dev.DisplayName(), dev.Address)
	}

	for attempt := 1; ; attempt++ {
		fmt.Fprint(s.out, "\nSelect the number of your device: ")

		var l inputLine
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ble.Device{}, ctx.Err()
		case read, ok := <-s.readLines():
			if !ok {
				read = inputLine{err: io.EOF}
			}
			l = read
		}

		input, readErr := l.text, l.err
		if input == "" && readErr != nil {
			fmt.Fprintln(s.out)
			if readErr == io.EOF {
				return ble.Device{}, ErrInputClosed
			}
			return ble.Device{}, fmt.Errorf("selector: reading choice: %w", readErr)
		}

		if idx, ok := parseIndex(input, len(candidates)); ok {
			return candidates[idx], nil
		}

		fmt.Fprintln(s.out, "Invalid selection.")
		if s.opts.MaxAttempts > 0 && attempt >= s.opts.MaxAttempts {
			return ble.Device{}, ErrTooManyAttempts
		}
	}
}

// readLines starts the goroutine that reads input lines, once. The channel
// is closed after the first read error. A terminal read cannot be
// interrupted, so a cancelled prompt leaves the goroutine parked until the
// next line or process exit.
func (s *Selector) readLines() <-chan inputLine {
	s.linesOnce.Do(func() {
		go func() {
			defer close(s.lines)
			for {
				text, err := s.in.ReadString('\n')
				s.lines <- inputLine{text: text, err: err}
				if err != nil {
					return
				}
			}
		}()
	})
	return s.lines
}

// parseIndex accepts a decimal integer in [0, n).
func parseIndex(line string, n int) (int, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}
