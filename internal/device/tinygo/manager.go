// Package tinygo implements device.Manager on top of tinygo.org/x/bluetooth
// (BlueZ over D-Bus on Linux, CoreBluetooth on macOS, WinRT on Windows).
package tinygo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/groutine"
)

var errManagerClosed = errors.New("manager is closed")

// Option configures a Manager
type Option func(*Manager)

// WithStateSource merges adapter power states from an external source.
func WithStateSource(src device.StateSource) Option {
	return func(m *Manager) { m.source = src }
}

// Manager drives the process-wide tinygo default adapter.
type Manager struct {
	radio  radio
	logger *logrus.Logger
	source device.StateSource
	states *device.StateBroadcaster
	conns  *hashmap.Map[string, *Connection]

	mu          sync.Mutex
	enabled     bool
	enableErr   error
	scanning    bool
	scanSeq     uint64
	watchCancel context.CancelFunc
	closed      bool
}

var _ device.Manager = (*Manager)(nil)

// NewManager creates a Manager for bluetooth.DefaultAdapter.
func NewManager(logger *logrus.Logger, opts ...Option) *Manager {
	return newManager(newAdapterRadio(bluetooth.DefaultAdapter), logger, opts...)
}

func newManager(r radio, logger *logrus.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	m := &Manager{
		radio:  r,
		logger: logger,
		states: device.NewStateBroadcaster(),
		conns:  hashmap.New[string, *Connection](),
	}
	for _, opt := range opts {
		opt(m)
	}
	r.OnDisconnect(m.peerDisconnected)
	return m
}

// enableLocked enables the adapter once and records the resulting state. m.mu must be held.
func (m *Manager) enableLocked() error {
	if m.closed {
		return errManagerClosed
	}
	if m.enabled {
		return m.enableErr
	}
	m.enabled = true
	if err := m.radio.Enable(); err != nil {
		m.enableErr = normalizeError(err)
		state := stateFromError(m.enableErr)
		m.logger.WithError(err).WithField("state", state).Warn("Failed to enable BLE adapter")
		m.states.Publish(state)
		return m.enableErr
	}
	if m.source == nil {
		m.states.Publish(device.StatePoweredOn)
	}
	return nil
}

func (m *Manager) OnStateChange(listener device.StateListener, emitCurrent bool) (device.Subscription, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errManagerClosed
	}
	_ = m.enableLocked()
	m.startWatchLocked()
	m.mu.Unlock()

	return m.states.Subscribe(listener, emitCurrent), nil
}

func (m *Manager) startWatchLocked() {
	if m.source == nil || m.watchCancel != nil {
		return
	}
	if st, err := m.source.State(); err == nil {
		m.states.Publish(st)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	groutine.Go(ctx, "tinygo-state-watch", func(ctx context.Context) {
		if err := m.source.Watch(ctx, m.states.Publish); err != nil && ctx.Err() == nil {
			m.logger.WithError(err).Warn("Adapter state watch ended")
		}
	})
}

func (m *Manager) StartDeviceScan(serviceUUIDs []string, opts *device.ScanOptions, listener device.ScanListener) error {
	if listener == nil {
		return fmt.Errorf("scan listener is nil")
	}
	allowDup := opts != nil && opts.AllowDuplicates
	var wanted []string
	if len(serviceUUIDs) > 0 {
		var err error
		if wanted, err = device.ValidateUUID(serviceUUIDs...); err != nil {
			return fmt.Errorf("invalid service filter: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enableLocked(); err != nil {
		return err
	}
	if m.scanning {
		return fmt.Errorf("scan already running")
	}
	m.scanning = true
	m.scanSeq++
	seq := m.scanSeq

	// tinygo reports every advertisement; duplicates are filtered here
	reported := hashmap.New[string, struct{}]()

	groutine.Go(context.Background(), "tinygo-scan", func(ctx context.Context) {
		if !m.scanActive(seq) {
			return
		}
		err := m.radio.Scan(wanted, func(rec scanRecord) {
			if !m.scanActive(seq) {
				// stopped before the platform scan was running
				_ = m.radio.StopScan()
				return
			}
			info := newDeviceInfo(rec)
			if !device.ContainsUUID(info.AdvertisedServices(), wanted) {
				return
			}
			if !allowDup {
				if _, dup := reported.Get(info.ID()); dup {
					return
				}
				reported.Set(info.ID(), struct{}{})
			}
			listener(nil, info)
		})

		m.mu.Lock()
		active := m.scanning && m.scanSeq == seq
		if active {
			m.scanning = false
		}
		m.mu.Unlock()

		// Scan returns nil after StopScan; an error while still active is a failure
		if err != nil && active {
			listener(normalizeError(err), nil)
		}
	})
	return nil
}

func (m *Manager) scanActive(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning && m.scanSeq == seq
}

func (m *Manager) StopDeviceScan() error {
	m.mu.Lock()
	if !m.scanning {
		m.mu.Unlock()
		return nil
	}
	m.scanning = false
	m.mu.Unlock()

	if err := m.radio.StopScan(); err != nil && !isBenignStopError(err) {
		return normalizeError(err)
	}
	return nil
}

// Connect dials dev. tinygo has no cancellable connect, so an attempt that
// outlives ctx is abandoned and disconnected once it completes.
func (m *Manager) Connect(ctx context.Context, dev device.DeviceInfo, opts *device.ConnectOptions) (device.Connection, error) {
	if dev == nil {
		return nil, fmt.Errorf("device is nil")
	}
	m.mu.Lock()
	err := m.enableLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if opts != nil && opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		p   peer
		err error
	}
	done := make(chan result, 1)
	id := dev.ID()
	groutine.Go(context.Background(), "tinygo-connect", func(context.Context) {
		p, err := m.radio.Connect(id)
		done <- result{p, err}
	})

	select {
	case r := <-done:
		if r.err != nil {
			return nil, normalizeError(r.err)
		}
		conn := newConnection(r.p, dev, m)
		m.conns.Set(id, conn)
		return conn, nil
	case <-ctx.Done():
		groutine.Go(context.Background(), "tinygo-connect-cleanup", func(context.Context) {
			if r := <-done; r.err == nil {
				_ = r.p.Disconnect()
			}
		})
		return nil, normalizeError(ctx.Err())
	}
}

func (m *Manager) peerDisconnected(id string) {
	for _, key := range []string{id, strings.ToLower(id), strings.ToUpper(id)} {
		if conn, ok := m.conns.Get(key); ok {
			m.logger.WithField("address", id).Warn("Peripheral disconnected")
			conn.markDisconnected()
			return
		}
	}
}

func (m *Manager) forget(id string) {
	m.conns.Del(id)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	scanning := m.scanning
	m.scanning = false
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.mu.Unlock()

	if scanning {
		if err := m.radio.StopScan(); err != nil && !isBenignStopError(err) {
			return normalizeError(err)
		}
	}
	return nil
}
