package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
)

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "nil",
			err:      nil,
			contains: []string{""},
		},
		{
			name:     "plain error is unchanged",
			err:      errors.New("boom"),
			contains: []string{"boom"},
		},
		{
			name:     "bluetooth off",
			err:      device.NewDiscoveryError(fmt.Errorf("%w: state 4", device.ErrBluetoothOff)),
			contains: []string{"discovery failed", "turn Bluetooth on"},
		},
		{
			name:     "unauthorized",
			err:      device.ErrUnauthorized,
			contains: []string{"grant Bluetooth access"},
		},
		{
			name:     "connect timeout",
			err:      device.NewConnectionError("AA:BB", device.ErrTimeout),
			contains: []string{"connection to AA:BB failed", "in range"},
		},
		{
			name:     "device not found",
			err:      fmt.Errorf("%w: AA:BB", ErrDeviceNotFound),
			contains: []string{"AA:BB", "blescale scan"},
		},
		{
			name:     "connect in progress",
			err:      controller.ErrConnectInProgress,
			contains: []string{"already in progress", "current connection attempt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FormatUserError(tt.err)
			for _, c := range tt.contains {
				assert.Contains(t, msg, c)
			}
		})
	}
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}
