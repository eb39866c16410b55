package audio

import (
	"fmt"
	"time"
)

const (
	beepFreq       = 1760 // A6
	beepDuration   = 80 * time.Millisecond
	beepSampleRate = 44100
)

// Cue plays a short clip through a Player. It satisfies inject.Cue.
type Cue struct {
	player *Player
	clip   Clip
}

// NewCue loads wavPath, or synthesizes a beep when wavPath is empty.
// Call Close() when done.
func NewCue(wavPath string) (*Cue, error) {
	clip := Tone(beepFreq, beepDuration, beepSampleRate)
	if wavPath != "" {
		var err error
		if clip, err = LoadWAV(wavPath); err != nil {
			return nil, fmt.Errorf("loading cue: %w", err)
		}
	}

	player, err := NewPlayer()
	if err != nil {
		return nil, err
	}
	return &Cue{player: player, clip: clip}, nil
}

// Play plays the cue once.
func (c *Cue) Play() error {
	return c.player.Play(c.clip)
}

// Close releases the audio device.
func (c *Cue) Close() error {
	return c.player.Close()
}
