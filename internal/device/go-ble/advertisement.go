package goble

import (
	"github.com/go-ble/ble"

	"github.com/srg/blescale/internal/device"
)

// BLEAdvertisement wraps ble.Advertisement to implement device.Advertisement
type BLEAdvertisement struct {
	adv ble.Advertisement
}

func NewBLEAdvertisement(adv ble.Advertisement) device.Advertisement {
	return &BLEAdvertisement{adv: adv}
}

func (a *BLEAdvertisement) LocalName() string        { return a.adv.LocalName() }
func (a *BLEAdvertisement) ManufacturerData() []byte { return a.adv.ManufacturerData() }
func (a *BLEAdvertisement) TxPowerLevel() int        { return a.adv.TxPowerLevel() }
func (a *BLEAdvertisement) Connectable() bool        { return a.adv.Connectable() }
func (a *BLEAdvertisement) RSSI() int                { return a.adv.RSSI() }

func (a *BLEAdvertisement) Addr() string {
	if addr := a.adv.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (a *BLEAdvertisement) ServiceData() []struct {
	UUID string
	Data []byte
} {
	sd := a.adv.ServiceData()
	result := make([]struct {
		UUID string
		Data []byte
	}, len(sd))
	for i, d := range sd {
		result[i].UUID = d.UUID.String()
		result[i].Data = d.Data
	}
	return result
}

// Services returns the complete, incomplete and overflow service lists merged.
func (a *BLEAdvertisement) Services() []string {
	var result []string
	for _, u := range a.adv.Services() {
		result = append(result, u.String())
	}
	for _, u := range a.adv.OverflowService() {
		result = append(result, u.String())
	}
	return result
}
