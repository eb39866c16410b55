package audio

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Tone synthesizes a sine beep with short linear fades at both ends.
func Tone(freqHz float64, d time.Duration, sampleRate uint32) Clip {
	n := int(d * time.Duration(sampleRate) / time.Second)
	fade := int(sampleRate) / 200 // 5ms
	if fade*2 > n {
		fade = n / 2
	}

	const amplitude = 0.3
	samples := make([]float32, n)
	for i := range samples {
		gain := amplitude
		switch {
		case i < fade:
			gain *= float64(i) / float64(fade)
		case i >= n-fade:
			gain *= float64(n-1-i) / float64(fade)
		}
		samples[i] = float32(gain * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)))
	}
	return Clip{Samples: samples, SampleRate: sampleRate}
}

// LoadWAV decodes a PCM WAV file into a mono clip. Multi-channel audio is
// mixed down by averaging.
func LoadWAV(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Clip{}, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decoding wav: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return Clip{}, fmt.Errorf("unsupported wav bit depth %d", bitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range samples {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = float32(sum / float64(channels) / scale)
	}

	return Clip{Samples: samples, SampleRate: dec.SampleRate}, nil
}
