package ble

import (
	"context"
	"fmt"
	"time"
)

// DefaultScanTimeout bounds a discovery pass.
const DefaultScanTimeout = 5 * time.Second

// ScanForDevices runs one bounded scan for any advertising peripheral.
func ScanForDevices(ctx context.Context, adapter Adapter, timeout time.Duration) ([]Device, error) {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	devices, err := adapter.Scan(ctx, AnyService)
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return devices, nil
}
