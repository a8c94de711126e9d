package goble

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/srg/blescale/internal/device"
)

// NormalizeError maps known go-ble error strings to the device sentinels.
// The original error is kept in the message for context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", device.ErrTimeout, err)
	}

	msg := err.Error()
	switch {
	case msg == "central manager has invalid state: have=4 want=5: is Bluetooth turned on?":
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "operation not permitted"), containsIgnoreCase(msg, "permission denied"):
		return fmt.Errorf("%w: %v", device.ErrUnauthorized, err)
	case containsIgnoreCase(msg, "no such device"):
		return fmt.Errorf("%w: %v", device.ErrUnsupported, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", device.ErrAlreadyConnected, err)
	case containsIgnoreCase(msg, "device not connected"), containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", device.ErrNotConnected, err)
	default:
		return err
	}
}

// StateFromError derives the adapter state implied by a device creation error.
func StateFromError(err error) device.AdapterState {
	switch {
	case err == nil:
		return device.StatePoweredOn
	case errors.Is(err, device.ErrBluetoothOff):
		return device.StatePoweredOff
	case errors.Is(err, device.ErrUnauthorized):
		return device.StateUnauthorized
	case errors.Is(err, device.ErrUnsupported):
		return device.StateUnsupported
	default:
		return device.StateUnknown
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
