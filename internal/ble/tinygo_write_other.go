//go:build !linux

package ble

import "fmt"

// Write uses a write request so the peripheral acknowledges the command.
func (c *tinyGoCharacteristic) Write(data []byte) error {
	if _, err := c.char.Write(data); err != nil {
		return fmt.Errorf("ble: write request to %s: %w", c.uuid, err)
	}
	return nil
}
