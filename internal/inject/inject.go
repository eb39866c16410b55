// Package inject delivers measurements to the active application using
// robotgo for keystroke simulation or clipboard paste.
package inject

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Inject methods.
const (
	MethodType  = "type"
	MethodPaste = "paste"
	MethodLog   = "log"
)

// TextInjector is the output sink for decoded measurements.
type TextInjector interface {
	Inject(text string) error
}

// Injector handles typing or pasting text into the active application.
type Injector struct {
	method    string // "type", "paste" or "log"
	submitKey string // key tapped after the text, "" for none
}

// Compile-time interface satisfaction check.
var _ TextInjector = (*Injector)(nil)

// NewInjector creates an Injector with the given method. After each value
// submitKey (for example "enter" or "tab") is tapped so spreadsheet-style
// targets advance to the next cell; an empty submitKey disables it.
func NewInjector(method, submitKey string) *Injector {
	return &Injector{method: method, submitKey: submitKey}
}

// Inject sends text to the active application using the configured method.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	var err error
	switch inj.method {
	case MethodLog:
		slog.Info("[INJECT] measurement", "value", text)
		return nil
	case MethodPaste:
		err = inj.paste(text)
	default: // "type"
		err = inj.typeText(text)
	}
	if err != nil {
		return err
	}
	return inj.submit()
}

// typeText simulates individual keystrokes. Preserves clipboard contents.
func (inj *Injector) typeText(text string) error {
	robotgo.Type(text)
	return nil
}

// paste copies text to clipboard and pastes it with the platform shortcut.
func (inj *Injector) paste(text string) error {
	// Save current clipboard
	prev, _ := robotgo.ReadAll()

	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	mod := pasteModifier(runtime.GOOS)
	if err := robotgo.KeyTap("v", mod); err != nil {
		return fmt.Errorf("inject: key tap %s+v: %w", mod, err)
	}

	// Restore previous clipboard (best effort)
	_ = robotgo.WriteAll(prev)

	return nil
}

func (inj *Injector) submit() error {
	if inj.submitKey == "" {
		return nil
	}
	if err := robotgo.KeyTap(inj.submitKey); err != nil {
		return fmt.Errorf("inject: key tap %s: %w", inj.submitKey, err)
	}
	return nil
}

// pasteModifier returns the paste shortcut modifier for goos.
func pasteModifier(goos string) string {
	if goos == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
