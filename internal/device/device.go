package device

import (
	"context"
	"time"
)

// Advertisement is a single BLE advertisement as seen by a backend during discovery.
type Advertisement interface {
	LocalName() string
	ManufacturerData() []byte
	ServiceData() []struct {
		UUID string
		Data []byte
	}

	Services() []string
	TxPowerLevel() int
	Connectable() bool

	RSSI() int
	Addr() string
}

// DeviceInfo describes a discovered device. ID is stable for the lifetime of a
// scan session and is the only key used for deduplication.
//
//nolint:revive // DeviceInfo name is intentional for clarity when used as a device.DeviceInfo
type DeviceInfo interface {
	ID() string
	Name() string
	Address() string
	RSSI() int
	TxPower() *int
	IsConnectable() bool
	AdvertisedServices() []string
	ManufacturerData() []byte
	ServiceData() map[string][]byte
}

// ScanListener receives discovery results. Exactly one of err and dev is non-nil.
type ScanListener func(err error, dev DeviceInfo)

// StateListener receives adapter state changes.
type StateListener func(state AdapterState)

// Subscription is a handle for a registered listener.
type Subscription interface {
	Remove()
}

// ScanOptions configures platform discovery
type ScanOptions struct {
	// AllowDuplicates reports every advertisement instead of the first per device.
	AllowDuplicates bool
}

// ConnectOptions configures a platform connection attempt
type ConnectOptions struct {
	// Timeout bounds the platform dial. Zero leaves it to the backend.
	Timeout time.Duration
}

// Connection is an established link to a peripheral.
type Connection interface {
	ID() string
	Name() string
	Disconnect() error
	// Disconnected is closed when the link goes down for any reason.
	Disconnected() <-chan struct{}
}

// Manager is the platform Bluetooth manager. A single instance owns the
// adapter; callers hold it for their lifetime and release it with Close.
type Manager interface {
	// OnStateChange registers listener for adapter state changes. With
	// emitCurrent the listener is immediately called with the current state.
	OnStateChange(listener StateListener, emitCurrent bool) (Subscription, error)

	// StartDeviceScan starts discovery and returns without waiting for results.
	// serviceUUIDs filters by advertised service; nil means no filter.
	StartDeviceScan(serviceUUIDs []string, opts *ScanOptions, listener ScanListener) error

	// StopDeviceScan stops discovery. It is a no-op when no scan is running.
	StopDeviceScan() error

	// Connect dials dev and blocks until the platform resolves the attempt.
	Connect(ctx context.Context, dev DeviceInfo, opts *ConnectOptions) (Connection, error)

	Close() error
}

// StateSource is an external feed of adapter states a backend can merge into
// its own view, e.g. BlueZ power notifications over D-Bus.
type StateSource interface {
	State() (AdapterState, error)
	Watch(ctx context.Context, fn func(AdapterState)) error
}

// DisplayName returns the device name, falling back to its identifier.
func DisplayName(d DeviceInfo) string {
	if d == nil {
		return ""
	}
	if name := d.Name(); name != "" {
		return name
	}
	return d.ID()
}

// Summary is a serialisable snapshot of a DeviceInfo.
type Summary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Address     string   `json:"address"`
	RSSI        int      `json:"rssi"`
	TxPower     *int     `json:"tx_power,omitempty"`
	Connectable bool     `json:"connectable"`
	Services    []string `json:"services,omitempty"`
}

// Summarize copies the exported view of d into a Summary.
func Summarize(d DeviceInfo) Summary {
	return Summary{
		ID:          d.ID(),
		Name:        d.Name(),
		Address:     d.Address(),
		RSSI:        d.RSSI(),
		TxPower:     d.TxPower(),
		Connectable: d.IsConnectable(),
		Services:    d.AdvertisedServices(),
	}
}
