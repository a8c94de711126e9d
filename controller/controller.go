// Package controller implements the scan-and-connect controller: it owns the
// platform manager handle, runs time-boxed discovery sessions, keeps the
// deduplicated device list and connects to the device the user picks.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/ringchan"
)

const (
	// DefaultScanTimeout is the discovery session deadline.
	DefaultScanTimeout = 5 * time.Second

	// DefaultEventBuffer is the capacity of the event ring channel.
	DefaultEventBuffer = 64
)

var (
	// ErrScanInProgress is returned by StartScan while a session is active.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrConnectInProgress is returned by ConnectToDevice while another
	// attempt has not resolved yet.
	ErrConnectInProgress = errors.New("connection attempt already in progress")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("controller is closed")
)

// Options configures a Controller
type Options struct {
	ScanTimeout     time.Duration
	ServiceUUIDs    []string
	AllowDuplicates bool
	ConnectTimeout  time.Duration
	EventBuffer     int
	Labels          Labels
}

// DefaultOptions returns default controller options
func DefaultOptions() Options {
	return Options{
		ScanTimeout: DefaultScanTimeout,
		EventBuffer: DefaultEventBuffer,
		Labels:      EnglishLabels,
	}
}

// Controller drives one discovery session at a time against a device.Manager.
// All platform callbacks are serialised under mu.
type Controller struct {
	manager  device.Manager
	notifier Notifier
	logger   *logrus.Logger
	opts     Options

	mu         sync.Mutex
	devices    *orderedmap.OrderedMap[string, device.DeviceInfo]
	scanning   bool
	session    uint64
	timer      *time.Timer
	done       chan struct{}
	state      device.AdapterState
	sub        device.Subscription
	conn       device.Connection
	connecting bool
	lastErr    error
	closed     bool

	events *ringchan.RingChannel[Event]
}

// New creates a controller bound to manager. Call Open before use and Close
// on teardown.
func New(manager device.Manager, notifier Notifier, logger *logrus.Logger, opts Options) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.Labels == (Labels{}) {
		opts.Labels = EnglishLabels
	}

	done := make(chan struct{})
	close(done)

	return &Controller{
		manager:  manager,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		devices:  orderedmap.New[string, device.DeviceInfo](),
		done:     done,
		events:   ringchan.New[Event](opts.EventBuffer),
	}
}

// Open subscribes to adapter state changes, replaying the current state.
func (c *Controller) Open() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.sub != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	sub, err := c.manager.OnStateChange(c.onStateChange, true)
	if err != nil {
		return fmt.Errorf("failed to subscribe to adapter state: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		sub.Remove()
		return ErrClosed
	}
	c.sub = sub
	return nil
}

// Close releases the adapter subscription, stops an active scan and drops
// the current connection. The event channel is closed afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	conn := c.conn
	c.conn = nil
	scanning, sess := c.scanning, c.session
	c.mu.Unlock()

	if sub != nil {
		sub.Remove()
	}
	if scanning {
		c.endSession(sess, nil)
	}

	var err error
	if conn != nil {
		if derr := conn.Disconnect(); derr != nil {
			err = fmt.Errorf("disconnect %s: %w", conn.ID(), derr)
		}
	}

	c.mu.Lock()
	pending := c.events.Len()
	stats := c.events.Metrics()
	c.events.Close()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"written":     stats.Written,
		"overwritten": stats.Overwritten,
		"pending":     pending,
	}).Debug("Controller closed")
	return err
}

// StartScan clears the device list and starts a discovery session that ends
// after the scan timeout or on the first discovery error.
func (c *Controller) StartScan() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.scanning {
		c.mu.Unlock()
		c.logger.Debug("Scan already in progress, ignoring start request")
		return ErrScanInProgress
	}

	c.devices = orderedmap.New[string, device.DeviceInfo]()
	c.scanning = true
	c.lastErr = nil
	c.session++
	sess := c.session
	c.done = make(chan struct{})
	c.timer = time.AfterFunc(c.opts.ScanTimeout, func() {
		c.logger.WithField("session", sess).Debug("Scan deadline reached")
		c.endSession(sess, nil)
	})
	c.emitLocked(Event{Type: EventScanStarted})
	state := c.state
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"session":       sess,
		"timeout":       c.opts.ScanTimeout,
		"adapter_state": state,
	}).Info("Starting BLE scan...")

	listener := func(err error, dev device.DeviceInfo) {
		c.onScanResult(sess, err, dev)
	}
	scanOpts := &device.ScanOptions{AllowDuplicates: c.opts.AllowDuplicates}
	if err := c.manager.StartDeviceScan(c.opts.ServiceUUIDs, scanOpts, listener); err != nil {
		derr := device.NewDiscoveryError(err)
		c.logger.WithError(derr).Error("Failed to start scan")
		c.endSession(sess, derr)
		return derr
	}
	return nil
}

// onScanResult handles one discovery callback for session sess.
func (c *Controller) onScanResult(sess uint64, err error, dev device.DeviceInfo) {
	if err != nil {
		derr := device.NewDiscoveryError(err)
		c.logger.WithError(derr).Error("Scan failed")
		c.endSession(sess, derr)
		return
	}
	if dev == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.scanning || c.session != sess {
		return
	}

	id := dev.ID()
	if _, exists := c.devices.Get(id); exists {
		return
	}
	c.devices.Set(id, dev)
	c.emitLocked(Event{Type: EventDeviceDiscovered, Device: dev})

	c.logger.WithFields(logrus.Fields{
		"device":  dev.Name(),
		"address": dev.Address(),
		"rssi":    dev.RSSI(),
	}).Info("Discovered new device")
}

// endSession terminates session sess if it is still the active one and
// issues an explicit platform stop.
func (c *Controller) endSession(sess uint64, cause error) {
	c.mu.Lock()
	if !c.scanning || c.session != sess {
		c.mu.Unlock()
		return
	}
	c.scanning = false
	c.lastErr = cause
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	close(c.done)
	count := c.devices.Len()
	c.emitLocked(Event{Type: EventScanStopped, Err: cause})
	c.mu.Unlock()

	if err := c.manager.StopDeviceScan(); err != nil {
		c.logger.WithError(err).Warn("Failed to stop scan")
	}

	c.logger.WithFields(logrus.Fields{
		"session":      sess,
		"device_count": count,
	}).Info("BLE scan completed")
}

// StopScan ends the active session early. It is a no-op when idle.
func (c *Controller) StopScan() {
	c.mu.Lock()
	scanning, sess := c.scanning, c.session
	c.mu.Unlock()

	if scanning {
		c.endSession(sess, nil)
	}
}

// ConnectToDevice connects to the listed device with the given identifier and
// alerts the outcome. A failed attempt leaves the device list untouched.
// Only one attempt runs at a time; a concurrent call gets ErrConnectInProgress.
func (c *Controller) ConnectToDevice(ctx context.Context, id string) (device.Connection, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.connecting {
		c.mu.Unlock()
		return nil, ErrConnectInProgress
	}
	dev, ok := c.devices.Get(id)
	if !ok {
		c.mu.Unlock()
		return nil, device.NewConnectionError(id, device.ErrUnknownDevice)
	}
	c.connecting = true
	prev := c.conn
	c.conn = nil
	c.mu.Unlock()

	if prev != nil {
		c.logger.WithField("address", prev.ID()).Debug("Dropping previous connection")
		if err := prev.Disconnect(); err != nil {
			c.logger.WithError(err).Warn("Failed to disconnect previous device")
		}
	}

	c.logger.WithField("address", id).Info("Connecting to device...")

	conn, err := c.manager.Connect(ctx, dev, &device.ConnectOptions{Timeout: c.opts.ConnectTimeout})
	if err != nil {
		cerr := device.NewConnectionError(id, err)
		c.logger.WithError(cerr).Error("Connection failed")

		c.mu.Lock()
		c.connecting = false
		c.emitLocked(Event{Type: EventConnectFailed, Device: dev, Err: cerr})
		c.mu.Unlock()

		c.notifier.Notify(Alert{
			Level:   AlertError,
			Title:   c.opts.Labels.ErrorTitle,
			Message: c.opts.Labels.ConnectFailedMessage,
		})
		return nil, cerr
	}

	c.mu.Lock()
	c.connecting = false
	if c.closed {
		c.mu.Unlock()
		_ = conn.Disconnect()
		return nil, ErrClosed
	}
	c.conn = conn
	c.emitLocked(Event{Type: EventConnected, Device: dev})
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"device":  dev.Name(),
		"address": id,
	}).Info("Connected")

	c.notifier.Notify(Alert{
		Level:   AlertInfo,
		Title:   c.opts.Labels.ConnectedTitle,
		Message: c.opts.Labels.Connected(device.DisplayName(dev)),
	})
	return conn, nil
}

// onStateChange records the adapter state and warns the user about states
// in which scanning cannot work.
func (c *Controller) onStateChange(state device.AdapterState) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = state
	c.emitLocked(Event{Type: EventAdapterStateChanged, State: state})
	c.mu.Unlock()

	c.logger.WithField("state", state).Debug("Adapter state changed")

	if state == device.StatePoweredOn {
		c.logger.Info("Bluetooth is powered on")
		return
	}
	if state == device.StateUnknown || state == prev {
		return
	}
	c.notifier.Notify(Alert{
		Level:   AlertWarning,
		Title:   c.opts.Labels.AdapterTitle,
		Message: fmt.Sprintf(c.opts.Labels.AdapterNotReady, state),
	})
}

// emitLocked publishes ev; c.mu must be held.
func (c *Controller) emitLocked(ev Event) {
	if c.closed {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if c.events.Send(ev) {
		c.logger.WithFields(logrus.Fields{
			"event":    ev.Type,
			"capacity": c.events.Cap(),
		}).Debug("Event buffer full, dropped oldest event")
	}
}

// Devices returns the discovered devices in discovery order.
func (c *Controller) Devices() []device.DeviceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	devs := make([]device.DeviceInfo, 0, c.devices.Len())
	for pair := c.devices.Oldest(); pair != nil; pair = pair.Next() {
		devs = append(devs, pair.Value)
	}
	return devs
}

// Device returns the listed device with the given identifier.
func (c *Controller) Device(id string) (device.DeviceInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices.Get(id)
}

// IsScanning reports whether a discovery session is active.
func (c *Controller) IsScanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// SessionDone returns a channel closed when the current session ends. When
// no session is active the returned channel is already closed.
func (c *Controller) SessionDone() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// LastScanError returns the discovery error that ended the last session, or
// nil if it ended on its deadline or was stopped.
func (c *Controller) LastScanError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AdapterState returns the last observed adapter state.
func (c *Controller) AdapterState() device.AdapterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connection returns the current connection, if any.
func (c *Controller) Connection() device.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// ButtonLabel returns the scan button text for the current session state.
func (c *Controller) ButtonLabel() string {
	return c.opts.Labels.ButtonLabel(c.IsScanning())
}

// Labels returns the label set in use.
func (c *Controller) Labels() Labels {
	return c.opts.Labels
}

// Events returns the controller event stream. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events.C()
}
