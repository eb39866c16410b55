//go:build linux

package ble

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBusName  = "org.bluez"
	bluezAdapter  = "/org/bluez/hci0"
	adapterIface  = "org.bluez.Adapter1"
	propertiesGet = "org.freedesktop.DBus.Properties.Get"
	listNamesCall = "org.freedesktop.DBus.ListNames"
	poweredProp   = "Powered"
)

// ErrBluetoothUnavailable is returned when the host has no usable
// Bluetooth service or adapter.
var ErrBluetoothUnavailable = errors.New("ble: bluetooth unavailable")

// Preflight checks that BlueZ is running on the system bus and that the
// default adapter is powered, so failures carry an actionable message
// instead of an opaque D-Bus error from deep inside a scan.
func Preflight() error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("%w: connect to system bus: %v", ErrBluetoothUnavailable, err)
	}
	// The system bus connection is shared with tinygo/bluetooth; do not close it.

	var names []string
	if err := conn.BusObject().Call(listNamesCall, 0).Store(&names); err != nil {
		return fmt.Errorf("%w: list bus names: %v", ErrBluetoothUnavailable, err)
	}
	if !hasName(names, bluezBusName) {
		return fmt.Errorf("%w: org.bluez not found on system bus (is bluetooth.service running?)", ErrBluetoothUnavailable)
	}

	var powered dbus.Variant
	obj := conn.Object(bluezBusName, dbus.ObjectPath(bluezAdapter))
	if err := obj.Call(propertiesGet, 0, adapterIface, poweredProp).Store(&powered); err != nil {
		return fmt.Errorf("%w: read %s powered state: %v (is a Bluetooth adapter present?)", ErrBluetoothUnavailable, bluezAdapter, err)
	}
	if on, ok := powered.Value().(bool); ok && !on {
		return fmt.Errorf("%w: adapter %s is powered off (is Bluetooth turned on?)", ErrBluetoothUnavailable, bluezAdapter)
	}
	return nil
}

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
