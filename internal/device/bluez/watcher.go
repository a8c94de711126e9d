// Package bluez observes the BlueZ adapter power state over the system
// D-Bus. It feeds backends that have no power notifications of their own.
package bluez

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/srg/blescale/internal/device"
)

const (
	busName      = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	propsIface   = "org.freedesktop.DBus.Properties"
	propsSignal  = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// Watcher implements device.StateSource for one BlueZ adapter.
type Watcher struct {
	conn   *dbus.Conn
	path   dbus.ObjectPath
	logger *logrus.Logger
}

var _ device.StateSource = (*Watcher)(nil)

// NewWatcher connects to the system bus and checks BlueZ is running.
// adapter is the controller name, e.g. "hci0".
func NewWatcher(adapter string, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if adapter == "" {
		adapter = "hci0"
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	found := false
	for _, n := range names {
		if n == busName {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("%w: org.bluez not found on system bus, is bluetooth.service running?", device.ErrUnsupported)
	}

	return &Watcher{
		conn:   conn,
		path:   AdapterPath(adapter),
		logger: logger,
	}, nil
}

// AdapterPath returns the BlueZ object path of an adapter name.
func AdapterPath(adapter string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + strings.TrimPrefix(adapter, "/org/bluez/"))
}

// State reads the current adapter power state.
func (w *Watcher) State() (device.AdapterState, error) {
	var props map[string]dbus.Variant
	err := w.conn.Object(busName, w.path).Call(propsIface+".GetAll", 0, adapterIface).Store(&props)
	if err != nil {
		return device.StateUnknown, fmt.Errorf("read %s properties: %w", w.path, err)
	}
	st, ok := StateFromProperties(props)
	if !ok {
		return device.StateUnknown, nil
	}
	return st, nil
}

// Watch calls fn for every adapter power change until ctx is done.
func (w *Watcher) Watch(ctx context.Context, fn func(device.AdapterState)) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(w.path),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	}
	if err := w.conn.AddMatchSignal(opts...); err != nil {
		return fmt.Errorf("subscribe to %s: %w", w.path, err)
	}
	defer func() { _ = w.conn.RemoveMatchSignal(opts...) }()

	ch := make(chan *dbus.Signal, 16)
	w.conn.Signal(ch)
	defer w.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-ch:
			if !ok {
				return fmt.Errorf("system bus connection closed")
			}
			st, ok := stateFromSignal(sig, w.path)
			if !ok {
				continue
			}
			w.logger.WithField("state", st).Debug("BlueZ adapter state changed")
			fn(st)
		}
	}
}

func (w *Watcher) Close() error {
	return w.conn.Close()
}

// stateFromSignal extracts the power state from a PropertiesChanged signal.
// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
func stateFromSignal(sig *dbus.Signal, path dbus.ObjectPath) (device.AdapterState, bool) {
	if sig == nil || sig.Name != propsSignal || sig.Path != path || len(sig.Body) < 2 {
		return device.StateUnknown, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != adapterIface {
		return device.StateUnknown, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return device.StateUnknown, false
	}
	return StateFromProperties(changed)
}

// StateFromProperties maps Adapter1 properties to an adapter state. PowerState
// (BlueZ 5.66+) wins over the Powered flag. ok is false when neither is present.
func StateFromProperties(props map[string]dbus.Variant) (state device.AdapterState, ok bool) {
	if v, present := props["PowerState"]; present {
		if s, isStr := v.Value().(string); isStr {
			switch s {
			case "on":
				return device.StatePoweredOn, true
			case "off":
				return device.StatePoweredOff, true
			case "off-enabling", "on-disabling":
				return device.StateResetting, true
			case "off-blocked":
				return device.StateUnauthorized, true
			}
		}
	}
	if v, present := props["Powered"]; present {
		if b, isBool := v.Value().(bool); isBool {
			if b {
				return device.StatePoweredOn, true
			}
			return device.StatePoweredOff, true
		}
	}
	return device.StateUnknown, false
}
