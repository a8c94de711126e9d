package testutils

import (
	"context"
	"sync"

	"github.com/srg/blescale/internal/device"
)

// FakeManager is a scriptable device.Manager. Tests drive discovery with
// Emit/Fail and adapter state with SetState.
//
//	mgr := testutils.NewFakeManager()
//	ctrl := controller.New(mgr, nil, logger, opts)
//	_ = ctrl.StartScan()
//	mgr.Emit(devA, devB, devA)
type FakeManager struct {
	mu sync.Mutex

	states   *device.StateBroadcaster
	listener device.ScanListener
	scanning bool

	// StartErr, when set, is returned by StartDeviceScan.
	StartErr error
	// SubscribeErr, when set, is returned by OnStateChange.
	SubscribeErr error
	// ConnectFunc overrides Connect; by default a FakeConnection is returned.
	ConnectFunc func(ctx context.Context, dev device.DeviceInfo, opts *device.ConnectOptions) (device.Connection, error)

	startCalls       int
	stopCalls        int
	lastServiceUUIDs []string
	lastScanOptions  *device.ScanOptions
	connectCalls     []string
	lastConnectOpts  *device.ConnectOptions
	closed           bool
}

var _ device.Manager = (*FakeManager)(nil)

// NewFakeManager creates a FakeManager in StateUnknown.
func NewFakeManager() *FakeManager {
	return &FakeManager{states: device.NewStateBroadcaster()}
}

func (m *FakeManager) OnStateChange(listener device.StateListener, emitCurrent bool) (device.Subscription, error) {
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	return m.states.Subscribe(listener, emitCurrent), nil
}

func (m *FakeManager) StartDeviceScan(serviceUUIDs []string, opts *device.ScanOptions, listener device.ScanListener) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.startCalls++
	m.lastServiceUUIDs = serviceUUIDs
	m.lastScanOptions = opts
	if m.StartErr != nil {
		return m.StartErr
	}
	m.listener = listener
	m.scanning = true
	return nil
}

func (m *FakeManager) StopDeviceScan() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopCalls++
	m.scanning = false
	m.listener = nil
	return nil
}

func (m *FakeManager) Connect(ctx context.Context, dev device.DeviceInfo, opts *device.ConnectOptions) (device.Connection, error) {
	m.mu.Lock()
	m.connectCalls = append(m.connectCalls, dev.ID())
	m.lastConnectOpts = opts
	fn := m.ConnectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, dev, opts)
	}
	return NewFakeConnection(dev.ID(), dev.Name()), nil
}

func (m *FakeManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Emit delivers devices to the active scan listener, one callback each.
// Without an active scan nothing is delivered.
func (m *FakeManager) Emit(devs ...device.DeviceInfo) {
	listener := m.Listener()
	if listener == nil {
		return
	}
	for _, d := range devs {
		listener(nil, d)
	}
}

// Fail delivers a discovery error to the active scan listener.
func (m *FakeManager) Fail(err error) {
	if listener := m.Listener(); listener != nil {
		listener(err, nil)
	}
}

// Listener returns the active scan listener. Tests keep it to simulate
// callbacks arriving after the scan was stopped.
func (m *FakeManager) Listener() device.ScanListener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener
}

// SetState publishes an adapter state to subscribers.
func (m *FakeManager) SetState(state device.AdapterState) {
	m.states.Publish(state)
}

// StateSubscribers returns the number of live state subscriptions.
func (m *FakeManager) StateSubscribers() int {
	return m.states.Len()
}

func (m *FakeManager) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

func (m *FakeManager) StartCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls
}

func (m *FakeManager) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *FakeManager) LastServiceUUIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastServiceUUIDs
}

func (m *FakeManager) LastScanOptions() *device.ScanOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastScanOptions
}

func (m *FakeManager) ConnectCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.connectCalls...)
}

func (m *FakeManager) LastConnectOptions() *device.ConnectOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastConnectOpts
}

func (m *FakeManager) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FakeConnection is a device.Connection that records disconnects.
type FakeConnection struct {
	id, name     string
	mu           sync.Mutex
	disconnects  int
	disconnected chan struct{}
	once         sync.Once

	// DisconnectErr, when set, is returned by Disconnect.
	DisconnectErr error
}

var _ device.Connection = (*FakeConnection)(nil)

// NewFakeConnection creates a live fake connection.
func NewFakeConnection(id, name string) *FakeConnection {
	return &FakeConnection{id: id, name: name, disconnected: make(chan struct{})}
}

func (c *FakeConnection) ID() string   { return c.id }
func (c *FakeConnection) Name() string { return c.name }

func (c *FakeConnection) Disconnect() error {
	c.mu.Lock()
	c.disconnects++
	c.mu.Unlock()
	c.once.Do(func() { close(c.disconnected) })
	return c.DisconnectErr
}

func (c *FakeConnection) Disconnected() <-chan struct{} {
	return c.disconnected
}

// Disconnects returns how many times Disconnect was called.
func (c *FakeConnection) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}
