package main

import (
	"errors"
	"fmt"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
)

// Command-level errors
var (
	// ErrDeviceNotFound means the scan ended without seeing the requested device.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNotTerminal is returned by commands that need an interactive terminal.
	ErrNotTerminal = errors.New("not a terminal")
)

// FormatUserError turns err into a one-line message with a hint where the
// cause is a known platform condition.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var hint string
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		hint = "turn Bluetooth on and try again"
	case errors.Is(err, device.ErrUnauthorized):
		hint = "grant Bluetooth access to this program (on Linux run with sudo or setcap cap_net_admin,cap_net_raw+ep)"
	case errors.Is(err, device.ErrUnsupported):
		hint = "no usable Bluetooth adapter found, try --backend tinygo"
	case errors.Is(err, device.ErrTimeout):
		hint = "the device did not answer, make sure it is awake and in range"
	case errors.Is(err, ErrDeviceNotFound):
		hint = "run 'blescale scan' to list nearby devices"
	case errors.Is(err, controller.ErrScanInProgress):
		hint = "wait for the current scan to finish"
	case errors.Is(err, controller.ErrConnectInProgress):
		hint = "wait for the current connection attempt to finish"
	}

	if hint == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s (%s)", err.Error(), hint)
}
