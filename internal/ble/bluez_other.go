//go:build !linux

package ble

import "errors"

// ErrBluetoothUnavailable is returned when the host has no usable
// Bluetooth service or adapter.
var ErrBluetoothUnavailable = errors.New("ble: bluetooth unavailable")

// Preflight is a no-op outside Linux; the platform stack reports its own
// state when the adapter is enabled.
func Preflight() error {
	return nil
}
