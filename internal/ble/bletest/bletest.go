// Package bletest provides in-memory fakes of the ble transport interfaces
// for tests in other packages.
package bletest

import (
	"context"
	"fmt"
	"sync"

	"github.com/chaz8081/glm-wedge/internal/ble"
)

// Characteristic records writes and lets tests push notifications.
type Characteristic struct {
	mu       sync.Mutex
	writes   [][]byte
	callback func([]byte)

	// WriteErr and SubscribeErr are returned by Write and Subscribe when set.
	WriteErr     error
	SubscribeErr error
	// OnWrite, when set, is called after a successful write.
	OnWrite func(data []byte)
}

func (c *Characteristic) Write(data []byte) error {
	c.mu.Lock()
	if c.WriteErr != nil {
		c.mu.Unlock()
		return c.WriteErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	hook := c.OnWrite
	c.mu.Unlock()

	if hook != nil {
		hook(cp)
	}
	return nil
}

func (c *Characteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SubscribeErr != nil {
		return c.SubscribeErr
	}
	c.callback = cb
	return nil
}

// Writes returns a copy of every payload written so far.
func (c *Characteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// Subscribed reports whether a notification callback is registered.
func (c *Characteristic) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callback != nil
}

// Notify delivers data to the subscriber, reusing the buffer afterwards
// the way real transports do.
func (c *Characteristic) Notify(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb == nil {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	cb(buf)
	for i := range buf {
		buf[i] = 0xEE
	}
}

// Connection simulates a BLE connection exposing one characteristic.
type Connection struct {
	mu           sync.Mutex
	disconnectCb func()
	disconnected bool

	Char *Characteristic
	// DiscoverErr is returned by DiscoverCharacteristic when set.
	DiscoverErr error
}

// NewConnection returns a connection with an empty characteristic.
func NewConnection() *Connection {
	return &Connection{Char: &Characteristic{}}
}

func (c *Connection) DiscoverCharacteristic(serviceUUID, charUUID string) (ble.Characteristic, error) {
	if c.DiscoverErr != nil {
		return nil, c.DiscoverErr
	}
	if charUUID != ble.MeasurementCharUUID {
		return nil, fmt.Errorf("bletest: unknown characteristic UUID %q", charUUID)
	}
	return c.Char, nil
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

// Disconnected reports whether Disconnect was called.
func (c *Connection) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

func (c *Connection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// SimulateDisconnect triggers the disconnect callback.
func (c *Connection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Adapter simulates the BLE adapter.
type Adapter struct {
	mu        sync.Mutex
	devices   []ble.Device
	conns     []*Connection
	addresses []string
	scans     int

	EnableErr  error
	ScanErr    error
	ConnectErr error
	// NewConn, when set, builds each connection handed out by Connect.
	NewConn func() *Connection
}

// NewAdapter returns an adapter whose scans report devices.
func NewAdapter(devices []ble.Device) *Adapter {
	return &Adapter{devices: devices}
}

func (a *Adapter) Enable() error { return a.EnableErr }

func (a *Adapter) Scan(_ context.Context, _ string) ([]ble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scans++
	if a.ScanErr != nil {
		return nil, a.ScanErr
	}
	out := make([]ble.Device, len(a.devices))
	copy(out, a.devices)
	return out, nil
}

func (a *Adapter) Connect(ctx context.Context, address string) (ble.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addresses = append(a.addresses, address)
	if a.ConnectErr != nil {
		return nil, a.ConnectErr
	}
	var conn *Connection
	if a.NewConn != nil {
		conn = a.NewConn()
	} else {
		conn = NewConnection()
	}
	a.conns = append(a.conns, conn)
	return conn, nil
}

// LatestConnection returns the most recently created connection, or nil.
func (a *Adapter) LatestConnection() *Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.conns) == 0 {
		return nil
	}
	return a.conns[len(a.conns)-1]
}

// ConnectAddresses returns every address passed to Connect.
func (a *Adapter) ConnectAddresses() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.addresses))
	copy(out, a.addresses)
	return out
}

// Scans returns how many scans were run.
func (a *Adapter) Scans() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scans
}

var (
	_ ble.Adapter        = (*Adapter)(nil)
	_ ble.Connection     = (*Connection)(nil)
	_ ble.Characteristic = (*Characteristic)(nil)
)
