package testutils

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/srg/blescale/internal/device"
)

// FakeDevice is a plain device.DeviceInfo value.
type FakeDevice struct {
	id          string
	name        string
	address     string
	rssi        int
	txPower     *int
	connectable bool
	services    []string
	manufData   []byte
	serviceData map[string][]byte
}

var _ device.DeviceInfo = (*FakeDevice)(nil)

func (d *FakeDevice) ID() string                     { return d.id }
func (d *FakeDevice) Name() string                   { return d.name }
func (d *FakeDevice) Address() string                { return d.address }
func (d *FakeDevice) RSSI() int                      { return d.rssi }
func (d *FakeDevice) TxPower() *int                  { return d.txPower }
func (d *FakeDevice) IsConnectable() bool            { return d.connectable }
func (d *FakeDevice) AdvertisedServices() []string   { return d.services }
func (d *FakeDevice) ManufacturerData() []byte       { return d.manufData }
func (d *FakeDevice) ServiceData() map[string][]byte { return d.serviceData }

// DeviceBuilder builds FakeDevice values with a fluent API.
//
//	dev := testutils.NewDeviceBuilder().
//	    WithAddress("AA:BB:CC:DD:EE:FF").
//	    WithName("Scale1").
//	    WithRSSI(-45).
//	    Build()
type DeviceBuilder struct {
	dev FakeDevice
}

// NewDeviceBuilder creates a builder for a connectable device with RSSI -50.
func NewDeviceBuilder() *DeviceBuilder {
	return &DeviceBuilder{dev: FakeDevice{
		rssi:        -50,
		connectable: true,
	}}
}

// WithAddress sets the address; the identifier follows it unless WithID is used.
func (b *DeviceBuilder) WithAddress(addr string) *DeviceBuilder {
	b.dev.address = addr
	return b
}

// WithID sets an identifier different from the address (CoreBluetooth UUIDs).
func (b *DeviceBuilder) WithID(id string) *DeviceBuilder {
	b.dev.id = id
	return b
}

func (b *DeviceBuilder) WithName(name string) *DeviceBuilder {
	b.dev.name = name
	return b
}

func (b *DeviceBuilder) WithRSSI(rssi int) *DeviceBuilder {
	b.dev.rssi = rssi
	return b
}

// WithServices adds advertised service UUIDs; they are normalized and sorted on Build.
func (b *DeviceBuilder) WithServices(uuids ...string) *DeviceBuilder {
	b.dev.services = append(b.dev.services, uuids...)
	return b
}

func (b *DeviceBuilder) WithManufacturerData(data []byte) *DeviceBuilder {
	b.dev.manufData = data
	return b
}

func (b *DeviceBuilder) WithServiceData(uuid string, data []byte) *DeviceBuilder {
	if b.dev.serviceData == nil {
		b.dev.serviceData = make(map[string][]byte)
	}
	b.dev.serviceData[device.NormalizeUUID(uuid)] = data
	return b
}

func (b *DeviceBuilder) WithTxPower(power int) *DeviceBuilder {
	b.dev.txPower = &power
	return b
}

func (b *DeviceBuilder) WithConnectable(c bool) *DeviceBuilder {
	b.dev.connectable = c
	return b
}

// FromJSON fills the builder from a JSON object with the keys
// id, address, name, rssi, services, manufacturerData, txPower, connectable.
// Panics on invalid JSON as this is intended for test data setup.
func (b *DeviceBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *DeviceBuilder {
	var data struct {
		ID               *string  `json:"id"`
		Address          *string  `json:"address"`
		Name             *string  `json:"name"`
		RSSI             *int     `json:"rssi"`
		Services         []string `json:"services"`
		ManufacturerData []byte   `json:"manufacturerData"`
		TxPower          *int     `json:"txPower"`
		Connectable      *bool    `json:"connectable"`
	}
	if err := json.Unmarshal([]byte(fmt.Sprintf(jsonStrFmt, args...)), &data); err != nil {
		panic(fmt.Sprintf("DeviceBuilder.FromJSON: failed to unmarshal: %v", err))
	}

	if data.ID != nil {
		b.WithID(*data.ID)
	}
	if data.Address != nil {
		b.WithAddress(*data.Address)
	}
	if data.Name != nil {
		b.WithName(*data.Name)
	}
	if data.RSSI != nil {
		b.WithRSSI(*data.RSSI)
	}
	if data.Services != nil {
		b.WithServices(data.Services...)
	}
	if data.ManufacturerData != nil {
		b.WithManufacturerData(data.ManufacturerData)
	}
	if data.TxPower != nil {
		b.WithTxPower(*data.TxPower)
	}
	if data.Connectable != nil {
		b.WithConnectable(*data.Connectable)
	}
	return b
}

// Build returns a copy of the configured device.
func (b *DeviceBuilder) Build() *FakeDevice {
	dev := b.dev
	if dev.id == "" {
		dev.id = dev.address
	}
	if dev.services != nil {
		dev.services = device.NormalizeUUIDs(dev.services)
		sort.Strings(dev.services)
	}
	return &dev
}

// NewDevice is a shorthand for a device with an address and optional name.
func NewDevice(address, name string) *FakeDevice {
	return NewDeviceBuilder().WithAddress(address).WithName(name).Build()
}
