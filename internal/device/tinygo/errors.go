package tinygo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/srg/blescale/internal/device"
)

func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", device.ErrTimeout, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not ready"), strings.Contains(msg, "powered off"), strings.Contains(msg, "org.bluez.error.notready"):
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	case strings.Contains(msg, "not authorized"), strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %v", device.ErrUnauthorized, err)
	case strings.Contains(msg, "no such adapter"), strings.Contains(msg, "not supported"):
		return fmt.Errorf("%w: %v", device.ErrUnsupported, err)
	case strings.Contains(msg, "already connected"):
		return fmt.Errorf("%w: %v", device.ErrAlreadyConnected, err)
	default:
		return err
	}
}

func stateFromError(err error) device.AdapterState {
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

// isBenignStopError reports StopScan failures that only mean nothing was scanning.
func isBenignStopError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not scanning") || strings.Contains(msg, "no discovery started")
}
