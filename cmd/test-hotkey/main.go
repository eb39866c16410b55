// Command test-hotkey is a manual test for the global pause hotkey.
// Run it, then press the combo to see pause/resume events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--keys ctrl,shift,m]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/glm-wedge/internal/hotkey"
)

func main() {
	combo := flag.String("keys", "ctrl,shift,m", "comma-separated key combo")
	flag.Parse()

	keys := strings.Split(*combo, ",")
	fmt.Printf("Listening for %s...\n", strings.Join(keys, "+"))
	fmt.Println("Press Ctrl+C to exit.")

	listener := hotkey.NewListener(keys)

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read events
	go func() {
		for ev := range listener.Events() {
			switch ev.Type {
			case hotkey.EventPause:
				fmt.Println("||  PAUSE  (measurements not typed)")
			case hotkey.EventResume:
				fmt.Println(">>> RESUME (typing measurements)")
			}
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
