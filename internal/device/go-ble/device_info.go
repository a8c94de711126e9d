package goble

import (
	"sort"
	"strings"

	"github.com/srg/blescale/internal/device"
)

// txPowerUnavailable is reported by go-ble when the advertisement has no TX power field.
const txPowerUnavailable = 127

// DeviceInfo is an immutable snapshot of one advertising peripheral.
type DeviceInfo struct {
	id                 string
	name               string
	address            string
	rssi               int
	txPower            *int
	connectable        bool
	advertisedServices []string
	manufData          []byte
	serviceData        map[string][]byte
}

var _ device.DeviceInfo = (*DeviceInfo)(nil)

// NewDeviceInfo builds a DeviceInfo from an advertisement. The address is
// the identifier; on macOS it is the CoreBluetooth peripheral UUID. The name
// is the advertised local name only, empty when none was sent.
func NewDeviceInfo(adv device.Advertisement) *DeviceInfo {
	d := &DeviceInfo{
		id:          adv.Addr(),
		address:     adv.Addr(),
		name:        strings.TrimSpace(adv.LocalName()),
		rssi:        adv.RSSI(),
		connectable: adv.Connectable(),
		manufData:   adv.ManufacturerData(),
		serviceData: make(map[string][]byte),
	}

	seen := make(map[string]struct{})
	for _, uuid := range adv.Services() {
		n := device.NormalizeUUID(uuid)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		d.advertisedServices = append(d.advertisedServices, n)
	}
	sort.Strings(d.advertisedServices)

	for _, sd := range adv.ServiceData() {
		d.serviceData[device.NormalizeUUID(sd.UUID)] = sd.Data
	}

	if tx := adv.TxPowerLevel(); tx != txPowerUnavailable {
		d.txPower = &tx
	}
	return d
}

func (d *DeviceInfo) ID() string                     { return d.id }
func (d *DeviceInfo) Name() string                   { return d.name }
func (d *DeviceInfo) Address() string                { return d.address }
func (d *DeviceInfo) RSSI() int                      { return d.rssi }
func (d *DeviceInfo) TxPower() *int                  { return d.txPower }
func (d *DeviceInfo) IsConnectable() bool            { return d.connectable }
func (d *DeviceInfo) AdvertisedServices() []string   { return d.advertisedServices }
func (d *DeviceInfo) ManufacturerData() []byte       { return d.manufData }
func (d *DeviceInfo) ServiceData() map[string][]byte { return d.serviceData }
