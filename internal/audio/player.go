package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// tailPadding is silence appended to every clip so the device drains
// the last real samples before it is torn down.
const tailPadding = 50 * time.Millisecond

// Clip is mono float32 audio in [-1, 1] at SampleRate.
type Clip struct {
	Samples    []float32
	SampleRate uint32
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Player plays clips on the default output device.
type Player struct {
	ctx *malgo.AllocatedContext

	mu sync.Mutex // serializes Play
}

// NewPlayer creates a new audio player. Call Close() when done.
func NewPlayer() (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	return &Player{ctx: ctx}, nil
}

// Play opens a playback device for clip and blocks until it has played.
func (p *Player) Play(clip Clip) error {
	if len(clip.Samples) == 0 || clip.SampleRate == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pad := int(tailPadding * time.Duration(clip.SampleRate) / time.Second)
	data := float32ToBytes(append(append([]float32(nil), clip.Samples...), make([]float32, pad)...))

	done := make(chan struct{})
	var once sync.Once
	pos := 0

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceCfg.Playback.Format = malgo.FormatF32
	deviceCfg.Playback.Channels = 1
	deviceCfg.SampleRate = clip.SampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, _ uint32) {
			n := copy(pOutput, data[pos:])
			pos += n
			clear(pOutput[n:])
			if pos >= len(data) {
				once.Do(func() { close(done) })
			}
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		return fmt.Errorf("initializing playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("starting playback device: %w", err)
	}

	select {
	case <-done:
	case <-time.After(clip.Duration() + time.Second):
		return fmt.Errorf("playback did not finish")
	}
	return nil
}

// Close releases all audio resources.
func (p *Player) Close() error {
	if p.ctx != nil {
		if err := p.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}

// float32ToBytes converts samples to little-endian float32 bytes.
func float32ToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
