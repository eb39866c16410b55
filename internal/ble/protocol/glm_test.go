package protocol

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestActivationCommand(t *testing.T) {
	want := []byte{0xC0, 0x55, 0x02, 0x01, 0x00, 0x1A}
	got := ActivationCommand()
	if !bytes.Equal(got, want) {
		t.Fatalf("ActivationCommand() = %X, want %X", got, want)
	}

	// Mutating one result must not leak into the next.
	got[0] = 0x00
	if again := ActivationCommand(); !bytes.Equal(again, want) {
		t.Errorf("ActivationCommand() after mutation = %X, want %X", again, want)
	}
}

func TestDecodeShortFramesAreStatus(t *testing.T) {
	for n := 0; n <= 11; n++ {
		frame := make([]byte, n)
		copy(frame, measurementPrefix)
		got, err := Decode(frame)
		if err != nil {
			t.Fatalf("Decode(len=%d) error = %v", n, err)
		}
		if got.Kind != KindStatus {
			t.Errorf("Decode(len=%d).Kind = %v, want status", n, got.Kind)
		}
	}
}

func TestDecodeWrongPrefixIsStatus(t *testing.T) {
	frame := []byte{0xC0, 0x55, 0x10, 0x07, 0, 0, 0, 0x00, 0x00, 0x80, 0x3F, 0x00, 0x00}
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Kind != KindStatus {
		t.Fatalf("Kind = %v, want status", got.Kind)
	}
	if got.Status.Hex() != "C05510070000000000803F0000" {
		t.Errorf("Hex() = %q", got.Status.Hex())
	}
}

func TestDecodeStatusDoesNotAlias(t *testing.T) {
	frame := []byte{0xAB, 0xcd}
	got, _ := Decode(frame)
	frame[0] = 0x00
	if got.Status.Hex() != "ABCD" {
		t.Errorf("Hex() = %q, want ABCD (status must copy the frame)", got.Status.Hex())
	}
}

func TestDecodeMeasurement(t *testing.T) {
	tests := []struct {
		meters float32
		want   string
	}{
		{1.234, "1.234"},
		{-0.005, "-0.005"},
		{0, "0.000"},
		{12.5, "12.500"},
		{0.0005, "0.001"}, // float32(0.0005) is slightly above the tie
		{0.125, "0.125"},
		{2.0625, "2.062"}, // exact tie rounds to even
		{2.1875, "2.188"}, // exact tie rounds to even
		{-3.3, "-3.300"},
		{123.456, "123.456"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			frame := EncodeMeasurementFrame(tt.meters, 16)
			got, err := Decode(frame)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Kind != KindMeasurement {
				t.Fatalf("Kind = %v, want measurement", got.Kind)
			}
			if got.Measurement.Meters != tt.meters {
				t.Errorf("Meters = %v, want %v", got.Measurement.Meters, tt.meters)
			}
			if got.Measurement.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Measurement.Text, tt.want)
			}
		})
	}
}

func TestDecodeMeasurementAlwaysThreeDecimals(t *testing.T) {
	values := []float32{0, 1, -1, 0.1, 99.99951, 1e-7, -1e-7, 1234567, float32(math.MaxFloat32)}
	for _, v := range values {
		got, err := Decode(EncodeMeasurementFrame(v, 12))
		if err != nil {
			t.Fatalf("Decode(%v) error = %v", v, err)
		}
		text := got.Measurement.Text
		dot := strings.IndexByte(text, '.')
		if dot < 0 || len(text)-dot-1 != 3 {
			t.Errorf("Decode(%v).Text = %q, want exactly 3 decimals", v, text)
		}
		if strings.HasPrefix(text, "+") {
			t.Errorf("Decode(%v).Text = %q, must not have leading +", v, text)
		}
	}
}

func TestDecodeMinimumMeasurementLength(t *testing.T) {
	// Twelve bytes is the shortest measurement frame.
	frame := []byte{0xC0, 0x55, 0x10, 0x06, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3F, 0x00}
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Kind != KindMeasurement || got.Measurement.Text != "1.000" {
		t.Errorf("Decode() = %+v, want measurement 1.000", got)
	}
}

func TestDecodeNonFiniteIsDecodeError(t *testing.T) {
	for _, v := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		frame := EncodeMeasurementFrame(v, 12)
		_, err := Decode(frame)
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("Decode(%v) error = %v, want *DecodeError", v, err)
		}
		if !bytes.Equal(decErr.Raw, frame) {
			t.Errorf("DecodeError.Raw = %X, want %X", decErr.Raw, frame)
		}
	}
}

func TestIsMeasurementFrame(t *testing.T) {
	long := EncodeMeasurementFrame(1, 20)
	if !IsMeasurementFrame(long) {
		t.Error("IsMeasurementFrame(valid 20-byte frame) = false")
	}
	if IsMeasurementFrame(long[:11]) {
		t.Error("IsMeasurementFrame(11 bytes) = true, want false")
	}
	if IsMeasurementFrame(nil) {
		t.Error("IsMeasurementFrame(nil) = true")
	}
}

func TestKindString(t *testing.T) {
	if KindMeasurement.String() != "measurement" || KindStatus.String() != "status" {
		t.Errorf("Kind strings = %q, %q", KindMeasurement, KindStatus)
	}
}
