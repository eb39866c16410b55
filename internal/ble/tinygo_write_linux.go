//go:build linux

package ble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	gattCharIface     = "org.bluez.GattCharacteristic1"
	writeValueCall    = gattCharIface + ".WriteValue"
	getManagedObjects = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

// managedObjects is the reply shape of ObjectManager.GetManagedObjects.
type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Write sends a GATT write request through BlueZ so the peripheral must
// acknowledge it. tinygo/bluetooth on Linux only writes without response.
func (c *tinyGoCharacteristic) Write(data []byte) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("ble: connect to system bus: %w", err)
	}
	// Shared with tinygo/bluetooth; do not close.

	var objects managedObjects
	if err := conn.Object(bluezBusName, "/").Call(getManagedObjects, 0).Store(&objects); err != nil {
		return fmt.Errorf("ble: list bluez objects: %w", err)
	}
	path, err := findCharacteristicPath(objects, devicePath(bluezAdapter, c.address), c.uuid)
	if err != nil {
		return err
	}

	call := conn.Object(bluezBusName, path).Call(writeValueCall, 0, data, writeRequestOptions())
	if call.Err != nil {
		return fmt.Errorf("ble: write request to %s: %w", c.uuid, call.Err)
	}
	return nil
}

// writeRequestOptions selects BlueZ's acknowledged write (ATT Write Request).
func writeRequestOptions() map[string]dbus.Variant {
	return map[string]dbus.Variant{"type": dbus.MakeVariant("request")}
}

// devicePath returns the BlueZ object path of the device at address.
func devicePath(adapterPath, address string) dbus.ObjectPath {
	return dbus.ObjectPath(adapterPath + "/dev_" + strings.ReplaceAll(strings.ToUpper(address), ":", "_"))
}

// findCharacteristicPath returns the characteristic object under device
// whose UUID matches. When a UUID appears in several services the lowest
// path wins.
func findCharacteristicPath(objects managedObjects, device dbus.ObjectPath, uuid string) (dbus.ObjectPath, error) {
	prefix := string(device) + "/"
	var found []dbus.ObjectPath
	for path, ifaces := range objects {
		if !strings.HasPrefix(string(path), prefix) {
			continue
		}
		props, ok := ifaces[gattCharIface]
		if !ok {
			continue
		}
		if v, ok := props["UUID"].Value().(string); ok && strings.EqualFold(v, uuid) {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return "", fmt.Errorf("ble: characteristic %s not found under %s", uuid, device)
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found[0], nil
}
