// Package devicefactory builds the device.Manager for the configured backend.
package devicefactory

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/device/bluez"
	goble "github.com/srg/blescale/internal/device/go-ble"
	"github.com/srg/blescale/internal/device/tinygo"
	"github.com/srg/blescale/pkg/config"
)

// ManagerFactory creates the device.Manager selected by cfg.
// This is a variable so that it can be overridden in tests.
var ManagerFactory = func(cfg *config.Config, logger *logrus.Logger) (device.Manager, error) {
	return NewManager(cfg, logger)
}

// StateSourceFactory creates the adapter state source for cfg. It returns
// nil when the platform has none.
var StateSourceFactory = func(cfg *config.Config, logger *logrus.Logger) (StateSource, error) {
	if runtime.GOOS != "linux" {
		return nil, nil
	}
	return bluez.NewWatcher(cfg.Adapter, logger)
}

// StateSource is a device.StateSource that holds resources.
type StateSource interface {
	device.StateSource
	Close() error
}

// NewManager creates the backend named by cfg.Backend. On Linux the BlueZ
// power watcher is attached when the system bus is reachable. cfg.Adapter
// selects the HCI device for go-ble; tinygo always drives its default adapter.
func NewManager(cfg *config.Config, logger *logrus.Logger) (device.Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	src, err := StateSourceFactory(cfg, logger)
	if err != nil {
		logger.WithError(err).Debug("Adapter state watcher unavailable")
		src = nil
	}

	var mgr device.Manager
	switch cfg.Backend {
	case config.BackendGoBLE, "":
		opts := []goble.Option{goble.WithAdapter(cfg.Adapter)}
		if src != nil {
			opts = append(opts, goble.WithStateSource(src))
		}
		mgr = goble.NewManager(logger, opts...)
	case config.BackendTinyGo:
		var opts []tinygo.Option
		if src != nil {
			opts = append(opts, tinygo.WithStateSource(src))
		}
		mgr = tinygo.NewManager(logger, opts...)
	default:
		if src != nil {
			_ = src.Close()
		}
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	logger.WithFields(logrus.Fields{
		"backend":      cfg.Backend,
		"state_source": src != nil,
	}).Debug("BLE manager created")

	if src == nil {
		return mgr, nil
	}
	return &managerWithSource{Manager: mgr, source: src}, nil
}

// managerWithSource closes the state source together with the manager.
type managerWithSource struct {
	device.Manager
	source StateSource
}

func (m *managerWithSource) Close() error {
	return errors.Join(m.Manager.Close(), m.source.Close())
}
