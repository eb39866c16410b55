// Command glm-wedge connects to a Bosch GLM laser distance meter over
// Bluetooth LE and types each measurement into the focused application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/glm-wedge/internal/audio"
	"github.com/chaz8081/glm-wedge/internal/ble"
	"github.com/chaz8081/glm-wedge/internal/config"
	"github.com/chaz8081/glm-wedge/internal/display"
	"github.com/chaz8081/glm-wedge/internal/hotkey"
	"github.com/chaz8081/glm-wedge/internal/identity"
	"github.com/chaz8081/glm-wedge/internal/inject"
	"github.com/chaz8081/glm-wedge/internal/selector"
	"github.com/chaz8081/glm-wedge/internal/session"
	"github.com/chaz8081/glm-wedge/internal/supervisor"
)

var (
	flagConfig string
	flagPair   bool
)

// exitCode carries a process exit status out of a cobra command.
type exitCode supervisor.ExitStatus

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "glm-wedge",
		Short: "Type Bosch GLM laser measurements into the focused application",
		Long: `glm-wedge connects to a Bosch GLM laser distance meter over Bluetooth LE,
switches it to auto-sync mode and types every measurement (in meters, three
decimals) into whatever application has keyboard focus.

The first run scans for devices and remembers the one you pick. Use
"glm-wedge forget" or --pair to choose a different meter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: ~/.config/glm-wedge/config.yaml)")
	rootCmd.Flags().BoolVar(&flagPair, "pair", false, "ignore the saved device and pick one again")

	rootCmd.AddCommand(pairCmd(), forgetCmd(), decodeCmd(), initConfigCmd())

	err := rootCmd.Execute()
	var code exitCode
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &code):
		// Exit directly to avoid gohook's C cleanup crash.
		// The OS reclaims the event hook on process exit.
		os.Exit(int(code))
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(supervisor.ExitConfig))
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter := ble.NewTinyGoAdapter()
	store := identity.NewStore(cfg.Device.IdentityPath)
	sel := selector.New(adapter, store, os.Stdin, os.Stdout, selectorOptions(cfg))

	sink, cleanup := buildSink(cfg)
	defer cleanup()

	term := display.NewTerminal(os.Stdout)
	sup := supervisor.New(adapter, store, sel, sink, term, os.Stdout, supervisor.Options{
		ForceSelect:       flagPair,
		ReconnectAttempts: cfg.Reconnect.Attempts,
		ReconnectMax:      cfg.Reconnect.BackoffMax,
		Session:           session.DefaultOptions(),
	})

	status := sup.Run(ctx)
	term.Break()
	if status != supervisor.ExitOK {
		return exitCode(status)
	}
	return nil
}

// setup loads and validates the config and installs the default logger.
// Configuration problems are printed and returned as ExitConfig.
func setup() (*config.Config, error) {
	cfg, err := loadConfig(flagConfig)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return nil, exitCode(supervisor.ExitConfig)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))
	return cfg, nil
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(config.DefaultConfigPath())
}

func selectorOptions(cfg *config.Config) selector.Options {
	return selector.Options{
		NameHint:    cfg.Device.NameHint,
		ScanTimeout: cfg.Device.ScanTimeout,
	}
}

// buildSink assembles the output chain: injector, optional cue, and the
// pause gate driven by the hotkey. The returned func releases resources.
func buildSink(cfg *config.Config) (inject.TextInjector, func()) {
	var sink inject.TextInjector = inject.NewInjector(cfg.Inject.Method, cfg.Inject.SubmitKey)
	cleanup := func() {}

	if cfg.Cue.Enabled {
		cue, err := audio.NewCue(cfg.Cue.WAVPath)
		if err != nil {
			slog.Warn("[AUDIO] cue disabled", "error", err)
		} else {
			sink = inject.NewCueInjector(sink, cue)
			cleanup = func() { cue.Close() }
		}
	}

	gate := inject.NewGate(sink)
	if len(cfg.Hotkey.Keys) > 0 {
		listener := hotkey.NewListener(cfg.Hotkey.Keys)
		go listener.Start()
		go hotkey.Forward(listener.Events(), gate)
		slog.Info("[HOTKEY] pause hotkey ready", "keys", strings.Join(cfg.Hotkey.Keys, "+"))
	}
	return gate, cleanup
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	hk := "off"
	if len(cfg.Hotkey.Keys) > 0 {
		hk = strings.Join(cfg.Hotkey.Keys, "+")
	}
	submit := cfg.Inject.SubmitKey
	if submit == "" {
		submit = "none"
	}

	fmt.Println("=== glm-wedge ===")
	fmt.Printf("  Device:  %s\n", cfg.Device.IdentityPath)
	fmt.Printf("  Inject:  %s (then %s)\n", cfg.Inject.Method, submit)
	fmt.Printf("  Pause:   %s\n", hk)
	fmt.Printf("  Cue:     %t\n", cfg.Cue.Enabled)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("=================")
}
