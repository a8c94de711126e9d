package tinygo

import (
	"sync"

	"github.com/srg/blescale/internal/device"
)

// Connection is a tinygo peripheral link.
type Connection struct {
	peer peer
	id   string
	name string
	mgr  *Manager

	once         sync.Once
	disconnected chan struct{}
}

var _ device.Connection = (*Connection)(nil)

func newConnection(p peer, dev device.DeviceInfo, mgr *Manager) *Connection {
	return &Connection{
		peer:         p,
		id:           dev.ID(),
		name:         dev.Name(),
		mgr:          mgr,
		disconnected: make(chan struct{}),
	}
}

func (c *Connection) ID() string   { return c.id }
func (c *Connection) Name() string { return c.name }

func (c *Connection) Disconnect() error {
	select {
	case <-c.disconnected:
		return nil
	default:
	}
	err := c.peer.Disconnect()
	c.markDisconnected()
	return normalizeError(err)
}

func (c *Connection) Disconnected() <-chan struct{} {
	return c.disconnected
}

func (c *Connection) markDisconnected() {
	c.once.Do(func() {
		close(c.disconnected)
		c.mgr.forget(c.id)
	})
}
