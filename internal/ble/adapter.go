// Package ble provides the Bluetooth Low Energy transport used to talk to a
// Bosch GLM laser meter: scanning, connecting, notification subscription
// and acknowledged characteristic writes.
package ble

import "context"

// GLM BLE UUIDs. The measurement characteristic carries both the
// activation write and the notification stream.
const (
	MeasurementCharUUID = "02a6c0d1-0451-4000-b000-fb3210111989"

	// AnyService matches a characteristic in any service.
	AnyService = ""
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data and waits for the peripheral's write response.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	// The callback runs on the transport's goroutine and must not block.
	// The buffer is only valid for the duration of the call.
	Subscribe(callback func(data []byte)) error
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// DisplayName returns the device name or "[unnamed]" if empty.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "[unnamed]"
	}
	return d.Name
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a
	// service, or within any service when serviceUUID is AnyService.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals, optionally restricted to those
	// advertising serviceUUID. Returns discovered devices once ctx is done.
	Scan(ctx context.Context, serviceUUID string) ([]Device, error)
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
