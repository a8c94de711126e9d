package goble

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/groutine"
)

// Connection is a live go-ble client link.
type Connection struct {
	client ble.Client
	id     string
	name   string
	logger *logrus.Logger

	once         sync.Once
	disconnected chan struct{}
}

var _ device.Connection = (*Connection)(nil)

func newConnection(client ble.Client, dev device.DeviceInfo, logger *logrus.Logger) *Connection {
	c := &Connection{
		client:       client,
		id:           dev.ID(),
		name:         dev.Name(),
		logger:       logger,
		disconnected: make(chan struct{}),
	}
	if c.name == "" {
		c.name = client.Name()
	}

	if notifier, ok := client.(interface{ Disconnected() <-chan struct{} }); ok {
		groutine.Go(context.Background(), "goble-connection-monitor", func(ctx context.Context) {
			select {
			case <-notifier.Disconnected():
				c.logger.WithField("address", c.id).Warn("Peripheral disconnected")
				c.markDisconnected()
			case <-c.disconnected:
			}
		})
	}
	return c
}

func (c *Connection) ID() string   { return c.id }
func (c *Connection) Name() string { return c.name }

// Disconnect cancels the link. Calling it on a dropped link is a no-op.
func (c *Connection) Disconnect() error {
	select {
	case <-c.disconnected:
		return nil
	default:
	}
	err := c.client.CancelConnection()
	c.markDisconnected()
	return NormalizeError(err)
}

func (c *Connection) Disconnected() <-chan struct{} {
	return c.disconnected
}

func (c *Connection) markDisconnected() {
	c.once.Do(func() { close(c.disconnected) })
}
