// Package goble implements device.Manager on top of github.com/go-ble/ble
// (CoreBluetooth on macOS, raw HCI on Linux).
package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/groutine"
)

// scanDrainTimeout bounds the wait for a cancelled scan to release the radio.
const scanDrainTimeout = 2 * time.Second

var (
	errScanRunning   = errors.New("scan already running")
	errManagerClosed = errors.New("manager is closed")
)

// Option configures a Manager
type Option func(*Manager)

// WithStateSource merges adapter states from an external source, e.g. the
// BlueZ D-Bus watcher. go-ble itself has no power notifications.
func WithStateSource(src device.StateSource) Option {
	return func(m *Manager) { m.source = src }
}

// WithAdapter selects the HCI adapter ("hci0", "hci1", ...) on Linux.
func WithAdapter(name string) Option {
	return func(m *Manager) { m.adapter = name }
}

// Manager owns one ble.Device for the process lifetime.
type Manager struct {
	logger  *logrus.Logger
	adapter string
	source  device.StateSource
	states  *device.StateBroadcaster

	mu          sync.Mutex
	dev         ble.Device
	opened      bool
	scanCancel  context.CancelFunc
	scanDone    chan struct{}
	scanSeq     uint64
	watchCancel context.CancelFunc
	closed      bool
}

var _ device.Manager = (*Manager)(nil)

func NewManager(logger *logrus.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	m := &Manager{
		logger: logger,
		states: device.NewStateBroadcaster(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// deviceLocked returns the ble.Device, creating it on first use. The adapter
// state is derived from the creation result. m.mu must be held.
func (m *Manager) deviceLocked() (ble.Device, error) {
	if m.closed {
		return nil, errManagerClosed
	}
	if m.dev != nil {
		return m.dev, nil
	}

	dev, err := DeviceFactory(m.adapter)
	err = NormalizeError(err)
	m.opened = true
	state := StateFromError(err)
	if err != nil {
		m.logger.WithError(err).WithField("state", state).Warn("Failed to create BLE device")
		m.states.Publish(state)
		return nil, err
	}
	m.dev = dev
	if m.source == nil {
		m.states.Publish(state)
	}
	return dev, nil
}

func (m *Manager) OnStateChange(listener device.StateListener, emitCurrent bool) (device.Subscription, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errManagerClosed
	}
	if !m.opened {
		// errors only affect the published state here
		_, _ = m.deviceLocked()
	}
	m.startWatchLocked()
	m.mu.Unlock()

	return m.states.Subscribe(listener, emitCurrent), nil
}

// startWatchLocked feeds the external state source into the broadcaster. m.mu must be held.
func (m *Manager) startWatchLocked() {
	if m.source == nil || m.watchCancel != nil {
		return
	}
	if st, err := m.source.State(); err == nil {
		m.states.Publish(st)
	} else {
		m.logger.WithError(err).Debug("Failed to read adapter state")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	groutine.Go(ctx, "goble-state-watch", func(ctx context.Context) {
		err := m.source.Watch(ctx, m.states.Publish)
		if err != nil && ctx.Err() == nil {
			m.logger.WithError(err).Warn("Adapter state watch ended")
		}
	})
}

func (m *Manager) StartDeviceScan(serviceUUIDs []string, opts *device.ScanOptions, listener device.ScanListener) error {
	if listener == nil {
		return fmt.Errorf("scan listener is nil")
	}
	if opts == nil {
		opts = &device.ScanOptions{}
	}

	m.mu.Lock()
	if m.scanCancel != nil {
		m.mu.Unlock()
		return errScanRunning
	}
	prev := m.scanDone
	m.mu.Unlock()

	// the previous scan turns HCI scanning off on its way out
	m.waitScanDone(prev)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scanCancel != nil {
		return errScanRunning
	}
	dev, err := m.deviceLocked()
	if err != nil {
		return err
	}

	wanted := device.NormalizeUUIDs(serviceUUIDs)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.scanSeq++
	seq := m.scanSeq
	m.scanCancel = cancel
	m.scanDone = done

	handler := func(adv ble.Advertisement) {
		info := NewDeviceInfo(NewBLEAdvertisement(adv))
		if !device.ContainsUUID(info.AdvertisedServices(), wanted) {
			return
		}
		listener(nil, info)
	}

	m.logger.WithFields(logrus.Fields{
		"services":         wanted,
		"allow_duplicates": opts.AllowDuplicates,
	}).Debug("Starting go-ble scan")

	groutine.Go(ctx, "goble-scan", func(ctx context.Context) {
		err := dev.Scan(ctx, opts.AllowDuplicates, handler)
		close(done)
		// Scan returns ctx.Err() once cancelled by StopDeviceScan
		stopped := ctx.Err() != nil

		m.mu.Lock()
		if m.scanSeq == seq && m.scanCancel != nil {
			m.scanCancel()
			m.scanCancel = nil
		}
		m.mu.Unlock()

		if err != nil && !stopped {
			listener(NormalizeError(err), nil)
		}
	})
	return nil
}

// waitScanDone blocks until a finished scan goroutine has returned from
// ble.Device.Scan, or scanDrainTimeout passes.
func (m *Manager) waitScanDone(done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(scanDrainTimeout):
		m.logger.Warn("Previous go-ble scan did not stop in time")
	}
}

// StopDeviceScan cancels the running scan. It does not wait for the scan
// goroutine; late advertisements are dropped by the caller.
func (m *Manager) StopDeviceScan() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scanCancel != nil {
		m.scanCancel()
		m.scanCancel = nil
		m.logger.Debug("go-ble scan stopped")
	}
	return nil
}

func (m *Manager) Connect(ctx context.Context, dev device.DeviceInfo, opts *device.ConnectOptions) (device.Connection, error) {
	if dev == nil {
		return nil, fmt.Errorf("device is nil")
	}

	m.mu.Lock()
	bdev, err := m.deviceLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if opts != nil && opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	m.logger.WithField("address", dev.Address()).Debug("Dialing BLE device...")
	client, err := bdev.Dial(ctx, ble.NewAddr(dev.Address()))
	if err != nil {
		return nil, NormalizeError(err)
	}
	return newConnection(client, dev, m.logger), nil
}

// Close stops scanning, ends the state watch and releases the HCI device.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.scanCancel != nil {
		m.scanCancel()
		m.scanCancel = nil
	}
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	dev := m.dev
	m.dev = nil
	scanDone := m.scanDone
	m.mu.Unlock()

	m.waitScanDone(scanDone)

	if dev != nil {
		if err := dev.Stop(); err != nil {
			return fmt.Errorf("failed to stop BLE device: %w", err)
		}
	}
	return nil
}
