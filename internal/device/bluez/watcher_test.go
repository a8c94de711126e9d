package bluez

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/srg/blescale/internal/device"
)

func TestStateFromProperties(t *testing.T) {
	tests := []struct {
		name   string
		props  map[string]dbus.Variant
		want   device.AdapterState
		wantOK bool
	}{
		{"power state on", map[string]dbus.Variant{"PowerState": dbus.MakeVariant("on")}, device.StatePoweredOn, true},
		{"power state off", map[string]dbus.Variant{"PowerState": dbus.MakeVariant("off")}, device.StatePoweredOff, true},
		{"enabling", map[string]dbus.Variant{"PowerState": dbus.MakeVariant("off-enabling")}, device.StateResetting, true},
		{"disabling", map[string]dbus.Variant{"PowerState": dbus.MakeVariant("on-disabling")}, device.StateResetting, true},
		{"rfkill blocked", map[string]dbus.Variant{"PowerState": dbus.MakeVariant("off-blocked")}, device.StateUnauthorized, true},
		{"powered true", map[string]dbus.Variant{"Powered": dbus.MakeVariant(true)}, device.StatePoweredOn, true},
		{"powered false", map[string]dbus.Variant{"Powered": dbus.MakeVariant(false)}, device.StatePoweredOff, true},
		{
			"power state wins",
			map[string]dbus.Variant{"Powered": dbus.MakeVariant(false), "PowerState": dbus.MakeVariant("off-enabling")},
			device.StateResetting, true,
		},
		{"unrelated change", map[string]dbus.Variant{"Discovering": dbus.MakeVariant(true)}, device.StateUnknown, false},
		{"wrong type", map[string]dbus.Variant{"Powered": dbus.MakeVariant("yes")}, device.StateUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StateFromProperties(tt.props)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateFromSignal(t *testing.T) {
	path := AdapterPath("hci0")
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0"), path)

	sig := &dbus.Signal{
		Name: propsSignal,
		Path: path,
		Body: []interface{}{
			adapterIface,
			map[string]dbus.Variant{"Powered": dbus.MakeVariant(false)},
			[]string{},
		},
	}
	st, ok := stateFromSignal(sig, path)
	assert.True(t, ok)
	assert.Equal(t, device.StatePoweredOff, st)

	_, ok = stateFromSignal(sig, AdapterPath("hci1"))
	assert.False(t, ok, "other adapter")

	deviceSig := *sig
	deviceSig.Body = []interface{}{"org.bluez.Device1", map[string]dbus.Variant{"Powered": dbus.MakeVariant(true)}}
	_, ok = stateFromSignal(&deviceSig, path)
	assert.False(t, ok, "device interface is ignored")

	_, ok = stateFromSignal(nil, path)
	assert.False(t, ok)
}
