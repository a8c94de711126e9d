package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func newPlatformDevice(adapter string) (ble.Device, error) {
	id, err := hciIndex(adapter)
	if err != nil {
		return nil, err
	}
	dev, err := linux.NewDevice(ble.OptDeviceID(id))
	if err != nil {
		return nil, err
	}
	return dev, nil
}
