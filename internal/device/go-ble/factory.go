package goble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ble/ble"

	"github.com/srg/blescale/internal/device"
)

// DeviceFactory creates the platform ble.Device for an adapter name such as
// "hci0" (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func(adapter string) (ble.Device, error) {
	return newPlatformDevice(adapter)
}

// hciIndex parses "hciN" (or a bare "N") into the HCI device index. An empty
// name selects hci0.
func hciIndex(adapter string) (int, error) {
	name := strings.TrimPrefix(strings.TrimSpace(adapter), "hci")
	if name == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid HCI adapter %q", device.ErrUnsupported, adapter)
	}
	return n, nil
}
