// Package display renders session progress on the terminal: one line per
// measurement and a single status line that is overwritten in place.
package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/chaz8081/glm-wedge/internal/ble/protocol"
)

// Terminal writes session output to a terminal. Safe for concurrent use.
type Terminal struct {
	out io.Writer

	ready       lipgloss.Style
	hint        lipgloss.Style
	measurement lipgloss.Style
	status      lipgloss.Style

	mu         sync.Mutex
	statusLine bool // the cursor sits at the end of a status line
}

// NewTerminal creates a Terminal writing to out. Colors are only used when
// out is a terminal.
func NewTerminal(out io.Writer) *Terminal {
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		out:         out,
		ready:       r.NewStyle().Foreground(lipgloss.Color("#00FF41")).Bold(true),
		hint:        r.NewStyle().Foreground(lipgloss.Color("#00CC33")),
		measurement: r.NewStyle().Foreground(lipgloss.Color("#00FFAA")).Bold(true),
		status:      r.NewStyle().Foreground(lipgloss.Color("#008F11")),
	}
}

// Ready announces that the device is streaming.
func (t *Terminal) Ready(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endStatusLine()
	fmt.Fprintf(t.out, "Connected to %s\n", address)
	fmt.Fprintf(t.out, "\n%s\n", t.ready.Render("--- READY ---"))
	fmt.Fprintln(t.out, t.hint.Render("Press the measure button on the laser. Ctrl+C to exit."))
}

// Measurement prints one line per reading.
func (t *Terminal) Measurement(m protocol.Measurement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endStatusLine()
	fmt.Fprintf(t.out, "--> Measurement: %s m\n", t.measurement.Render(m.Text))
}

// Status overwrites the current status line with the frame's hex dump.
func (t *Terminal) Status(s protocol.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\r%s   ", t.status.Render("Status: "+s.Hex()))
	t.statusLine = true
}

// Break ends a pending status line so the next output starts on a fresh line.
func (t *Terminal) Break() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endStatusLine()
}

func (t *Terminal) endStatusLine() {
	if t.statusLine {
		fmt.Fprintln(t.out)
		t.statusLine = false
	}
}
