package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestTone(t *testing.T) {
	clip := Tone(1000, 100*time.Millisecond, 8000)

	if clip.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", clip.SampleRate)
	}
	if len(clip.Samples) != 800 {
		t.Fatalf("len(Samples) = %d, want 800", len(clip.Samples))
	}
	if clip.Duration() != 100*time.Millisecond {
		t.Errorf("Duration() = %v, want 100ms", clip.Duration())
	}
	if clip.Samples[0] != 0 || clip.Samples[len(clip.Samples)-1] != 0 {
		t.Errorf("tone should fade to silence at both ends, got %v .. %v", clip.Samples[0], clip.Samples[len(clip.Samples)-1])
	}

	var peak float64
	for _, s := range clip.Samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak > 0.3+1e-6 || peak < 0.2 {
		t.Errorf("peak amplitude = %v, want about 0.3", peak)
	}
}

func TestToneTooShortForFades(t *testing.T) {
	clip := Tone(440, time.Millisecond, 1000)
	if len(clip.Samples) != 1 {
		t.Fatalf("len(Samples) = %d, want 1", len(clip.Samples))
	}
}

func writeWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cue.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestLoadWAVMixesDownToMono(t *testing.T) {
	path := writeWAV(t, 8000, 2, []int{16384, 0, -32768, -32768, 8192, 8192})

	clip, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV() error = %v", err)
	}
	if clip.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", clip.SampleRate)
	}
	want := []float32{0.25, -1.0, 0.25}
	if len(clip.Samples) != len(want) {
		t.Fatalf("Samples = %v, want %v", clip.Samples, want)
	}
	for i := range want {
		if clip.Samples[i] != want[i] {
			t.Errorf("Samples[%d] = %v, want %v", i, clip.Samples[i], want[i])
		}
	}
}

func TestLoadWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWAV(path); err == nil {
		t.Error("LoadWAV() should fail for a non-WAV file")
	}
	if _, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("LoadWAV() should fail for a missing file")
	}
}

func TestFloat32ToBytes(t *testing.T) {
	got := float32ToBytes([]float32{1.0, -2.0})
	want := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0xC0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#02x, want %#02x", i, got[i], want[i])
		}
	}
}

func TestPlayEmptyClipIsNoop(t *testing.T) {
	var p Player
	if err := p.Play(Clip{}); err != nil {
		t.Errorf("Play(empty) error = %v", err)
	}
}
