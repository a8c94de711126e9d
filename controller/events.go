package controller

import (
	"time"

	"github.com/srg/blescale/internal/device"
)

// EventType identifies a controller event.
type EventType int

const (
	EventScanStarted EventType = iota
	EventDeviceDiscovered
	EventScanStopped
	EventAdapterStateChanged
	EventConnected
	EventConnectFailed
)

func (t EventType) String() string {
	switch t {
	case EventScanStarted:
		return "scan_started"
	case EventDeviceDiscovered:
		return "device_discovered"
	case EventScanStopped:
		return "scan_stopped"
	case EventAdapterStateChanged:
		return "adapter_state_changed"
	case EventConnected:
		return "connected"
	case EventConnectFailed:
		return "connect_failed"
	default:
		return "unknown"
	}
}

// Event reports a controller state change to UI consumers.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Device    device.DeviceInfo   // DeviceDiscovered, Connected, ConnectFailed
	State     device.AdapterState // AdapterStateChanged
	Err       error               // ScanStopped after a discovery error, ConnectFailed
}
