// Command test-inject is a manual test for measurement injection.
// It waits 3 seconds, then delivers a sample reading the way the live
// session would. Focus a text editor or spreadsheet cell first.
//
// Usage:
//
//	go run ./cmd/test-inject [--method type|paste|log] [--submit enter] [--cue]
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/chaz8081/glm-wedge/internal/audio"
	"github.com/chaz8081/glm-wedge/internal/ble/protocol"
	"github.com/chaz8081/glm-wedge/internal/inject"
)

func main() {
	method := flag.String("method", "type", "inject method: type, paste or log")
	submit := flag.String("submit", "enter", "key tapped after the value (\"\" for none)")
	withCue := flag.Bool("cue", false, "play the audible cue after injecting")
	meters := flag.Float64("meters", 1.234, "sample reading in meters")
	flag.Parse()

	n, err := protocol.Decode(protocol.EncodeMeasurementFrame(float32(*meters), 16))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	text := n.Measurement.Text

	var inj inject.TextInjector = inject.NewInjector(*method, *submit)
	if *withCue {
		cue, err := audio.NewCue("")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer cue.Close()
		inj = inject.NewCueInjector(inj, cue)
	}

	fmt.Printf("Will inject %q using %q method in 3 seconds...\n", text, *method)
	fmt.Println("Focus a text editor now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	if err := inj.Inject(text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("\nDone!")
}
