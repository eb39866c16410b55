package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/glm-wedge/internal/ble"
	"github.com/chaz8081/glm-wedge/internal/ble/protocol"
	"github.com/chaz8081/glm-wedge/internal/config"
	"github.com/chaz8081/glm-wedge/internal/identity"
	"github.com/chaz8081/glm-wedge/internal/selector"
	"github.com/chaz8081/glm-wedge/internal/supervisor"
)

func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair",
		Short: "Scan for a meter, pick it and save it as the default device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := identity.NewStore(cfg.Device.IdentityPath)
			sel := selector.New(ble.NewTinyGoAdapter(), store, os.Stdin, os.Stdout, selectorOptions(cfg))
			addr, err := sel.Select(ctx)
			switch {
			case err == nil:
				fmt.Printf("Saved %s to %s\n", addr, store.Path())
				return nil
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, selector.ErrNoDevices):
				fmt.Println("No Bluetooth devices found. Is Bluetooth turned on?")
				return exitCode(supervisor.ExitNoDevices)
			case errors.Is(err, selector.ErrInputClosed):
				fmt.Println("No device selected.")
				return exitCode(supervisor.ExitSelection)
			default:
				fmt.Printf("Device discovery failed: %v\n", err)
				return exitCode(supervisor.ExitNoDevices)
			}
		},
	}
}

func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Delete the saved device so the next run scans again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			store := identity.NewStore(cfg.Device.IdentityPath)
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Printf("Forgot saved device (%s)\n", store.Path())
			return nil
		},
	}
}

// exitDecodeFailed is the decode command's status when any frame was not
// valid hex or held an unusable measurement.
const exitDecodeFailed exitCode = 5

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode captured notification frames offline",
		Example: `  glm-wedge decode C05510060000000000803F000000
  glm-wedge decode "C0 55 01 00"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, arg := range args {
				line, err := describeFrame(arg)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", arg, err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if failed {
				return exitDecodeFailed
			}
			return nil
		},
	}
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Printf("Config already exists at %s\n", config.DefaultConfigPath())
				return nil
			}
			fmt.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}
}

// describeFrame decodes one hex frame into the line the session would
// display for it. Spaces, colons and dashes between bytes are ignored.
func describeFrame(arg string) (string, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(arg)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	frame, err := hex.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("invalid hex: %w", err)
	}

	n, err := protocol.Decode(frame)
	if err != nil {
		return "", err
	}
	if n.Kind == protocol.KindMeasurement {
		return fmt.Sprintf("Measurement: %s m", n.Measurement.Text), nil
	}
	return fmt.Sprintf("Status: %s", n.Status.Hex()), nil
}
