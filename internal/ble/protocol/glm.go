// Package protocol implements the Bosch GLM notification protocol: the
// auto-sync activation command and decoding of measurement frames.
package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// minMeasurementLen is the shortest frame that can carry a reading.
	// Shorter frames are always status notifications.
	minMeasurementLen = 12

	// valueOffset is where the little-endian float32 distance starts.
	valueOffset = 7
)

var (
	activationCommand = [...]byte{0xC0, 0x55, 0x02, 0x01, 0x00, 0x1A}
	measurementPrefix = []byte{0xC0, 0x55, 0x10, 0x06}
)

// Kind tags a decoded notification.
type Kind int

const (
	// KindStatus is any frame that is not a measurement.
	KindStatus Kind = iota
	// KindMeasurement is a frame carrying a distance reading.
	KindMeasurement
)

func (k Kind) String() string {
	switch k {
	case KindMeasurement:
		return "measurement"
	default:
		return "status"
	}
}

// Measurement is a decoded distance reading.
type Measurement struct {
	Meters float32
	// Text is Meters rendered with exactly three decimals, the form sent
	// to the output sink.
	Text string
}

// Status is an uninterpreted notification frame.
type Status struct {
	Raw []byte
}

// Hex renders the raw status bytes as uppercase hexadecimal.
func (s Status) Hex() string {
	return strings.ToUpper(hex.EncodeToString(s.Raw))
}

// Notification is the result of decoding one frame. Exactly one of
// Measurement or Status is meaningful, selected by Kind.
type Notification struct {
	Kind        Kind
	Measurement Measurement
	Status      Status
}

// DecodeError reports a measurement-shaped frame whose value is not a
// usable number.
type DecodeError struct {
	Raw    []byte
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode measurement %X: %s", e.Raw, e.Reason)
}

// ActivationCommand returns the command that puts the device into
// auto-sync mode. Each call returns a fresh slice.
func ActivationCommand() []byte {
	cmd := make([]byte, len(activationCommand))
	copy(cmd, activationCommand[:])
	return cmd
}

// IsMeasurementFrame reports whether frame has the measurement shape:
// longer than 11 bytes and starting with C0 55 10 06.
func IsMeasurementFrame(frame []byte) bool {
	return len(frame) >= minMeasurementLen && bytes.HasPrefix(frame, measurementPrefix)
}

// Decode classifies a notification frame. Measurement frames yield a
// KindMeasurement notification; every other frame yields KindStatus with
// a copy of the raw bytes. A measurement frame carrying NaN or an
// infinity returns a *DecodeError.
//
// The returned notification never aliases frame.
func Decode(frame []byte) (Notification, error) {
	if !IsMeasurementFrame(frame) {
		return Notification{Kind: KindStatus, Status: Status{Raw: clone(frame)}}, nil
	}

	bits := binary.LittleEndian.Uint32(frame[valueOffset : valueOffset+4])
	meters := math.Float32frombits(bits)
	// A NaN or infinite reading is rejected rather than typed as "NaN" or
	// "+Inf"; the meter has no such distance and the sink expects a number.
	if v := float64(meters); math.IsNaN(v) || math.IsInf(v, 0) {
		return Notification{}, &DecodeError{Raw: clone(frame), Reason: fmt.Sprintf("value is %v", v)}
	}

	return Notification{
		Kind: KindMeasurement,
		Measurement: Measurement{
			Meters: meters,
			Text:   FormatMeters(meters),
		},
	}, nil
}

// FormatMeters renders a distance with exactly three decimals. Rounding
// is exact on the binary value with ties to even.
func FormatMeters(meters float32) string {
	return strconv.FormatFloat(float64(meters), 'f', 3, 64)
}

// EncodeMeasurementFrame builds a measurement frame carrying meters. The
// device fills bytes 4..6 and the trailer with values this package does
// not interpret; they are left zero. Used by tests and the decode tool.
func EncodeMeasurementFrame(meters float32, length int) []byte {
	if length < minMeasurementLen {
		length = minMeasurementLen
	}
	frame := make([]byte, length)
	copy(frame, measurementPrefix)
	binary.LittleEndian.PutUint32(frame[valueOffset:valueOffset+4], math.Float32bits(meters))
	return frame
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
