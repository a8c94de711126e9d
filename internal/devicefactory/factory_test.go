package devicefactory

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blescale/internal/device"
	goble "github.com/srg/blescale/internal/device/go-ble"
	"github.com/srg/blescale/internal/device/tinygo"
	"github.com/srg/blescale/pkg/config"
)

type closingSource struct {
	closed int
}

func (s *closingSource) State() (device.AdapterState, error) { return device.StatePoweredOn, nil }
func (s *closingSource) Watch(ctx context.Context, _ func(device.AdapterState)) error {
	<-ctx.Done()
	return ctx.Err()
}
func (s *closingSource) Close() error { s.closed++; return nil }

func withSourceFactory(t *testing.T, fn func(*config.Config, *logrus.Logger) (StateSource, error)) {
	t.Helper()
	orig := StateSourceFactory
	StateSourceFactory = fn
	t.Cleanup(func() { StateSourceFactory = orig })
}

func TestNewManager_SelectsBackend(t *testing.T) {
	withSourceFactory(t, func(*config.Config, *logrus.Logger) (StateSource, error) { return nil, nil })

	cfg := config.DefaultConfig()
	mgr, err := NewManager(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &goble.Manager{}, mgr)

	cfg.Backend = config.BackendTinyGo
	mgr, err = NewManager(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &tinygo.Manager{}, mgr)

	cfg.Backend = "corebluetooth"
	_, err = NewManager(cfg, nil)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestNewManager_SourceUnavailable(t *testing.T) {
	withSourceFactory(t, func(*config.Config, *logrus.Logger) (StateSource, error) {
		return nil, errors.New("no system bus")
	})

	mgr, err := NewManager(config.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.IsType(t, &goble.Manager{}, mgr)
}

func TestNewManager_ClosesSource(t *testing.T) {
	src := &closingSource{}
	withSourceFactory(t, func(*config.Config, *logrus.Logger) (StateSource, error) { return src, nil })

	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendGoBLE
	mgr, err := NewManager(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &managerWithSource{}, mgr)

	require.NoError(t, mgr.Close())
	assert.Equal(t, 1, src.closed)

	cfg.Backend = "bogus"
	_, err = NewManager(cfg, nil)
	require.Error(t, err)
	assert.Equal(t, 2, src.closed, "source is released when the backend is rejected")
}
