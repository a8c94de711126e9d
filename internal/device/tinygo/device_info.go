package tinygo

import (
	"sort"
	"strings"

	"github.com/srg/blescale/internal/device"
)

// deviceInfo is a scan result snapshot. tinygo exposes neither TX power nor
// the connectable flag, so TxPower is nil and IsConnectable is true.
type deviceInfo struct {
	rec      scanRecord
	services []string
}

func newDeviceInfo(rec scanRecord) *deviceInfo {
	d := &deviceInfo{rec: rec}
	d.rec.name = strings.TrimSpace(rec.name)
	if len(rec.services) > 0 {
		d.services = device.NormalizeUUIDs(rec.services)
		sort.Strings(d.services)
	}
	return d
}

func (d *deviceInfo) ID() string                     { return d.rec.id }
func (d *deviceInfo) Name() string                   { return d.rec.name }
func (d *deviceInfo) Address() string                { return d.rec.id }
func (d *deviceInfo) RSSI() int                      { return d.rec.rssi }
func (d *deviceInfo) TxPower() *int                  { return nil }
func (d *deviceInfo) IsConnectable() bool            { return true }
func (d *deviceInfo) AdvertisedServices() []string   { return d.services }
func (d *deviceInfo) ManufacturerData() []byte       { return d.rec.manuf }
func (d *deviceInfo) ServiceData() map[string][]byte { return nil }
