package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/testutils"
)

type ScanTestSuite struct {
	CommandTestSuite
}

func (s *ScanTestSuite) TestTableListsDevicesInDiscoveryOrder() {
	s.EmitWhenScanning(
		testutils.NewDevice("AA:AA", "Scale1"),
		testutils.NewDeviceBuilder().WithAddress("BB:BB").WithRSSI(-70).Build(),
		testutils.NewDevice("AA:AA", "Scale1"),
	)

	out, err := s.ExecuteCommand("scan")
	s.Require().NoError(err)

	s.Contains(out, "NAME")
	s.Contains(out, "Scale1")
	s.Contains(out, "Unknown device")
	s.Contains(out, "-70 dBm")
	s.Equal(1, strings.Count(out, "AA:AA"), "each device is listed once")
	s.Less(strings.Index(out, "AA:AA"), strings.Index(out, "BB:BB"))
	s.Equal(1, s.Manager.StopCalls(), "the session deadline stops discovery")
}

func (s *ScanTestSuite) TestJSONOutput() {
	s.EmitWhenScanning(
		testutils.NewDeviceBuilder().WithAddress("AA:AA").WithName("Scale1").WithRSSI(-42).WithServices("181d").Build(),
	)

	out, err := s.ExecuteCommand("scan", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{"id": "AA:AA", "name": "Scale1", "address": "AA:AA", "rssi": -42, "connectable": true, "services": ["181d"]}
	]`)
}

func (s *ScanTestSuite) TestNoDevices() {
	out, err := s.ExecuteCommand("scan")
	s.Require().NoError(err)
	s.Contains(out, "No devices discovered")
}

func (s *ScanTestSuite) TestGermanLocale() {
	out, err := s.ExecuteCommand("scan", "--locale", "de")
	s.Require().NoError(err)
	s.Contains(out, "Keine Geräte gefunden")
}

func (s *ScanTestSuite) TestServiceFilterPassedToBackend() {
	_, err := s.ExecuteCommand("scan", "-s", "0000181D-0000-1000-8000-00805F9B34FB")
	s.Require().NoError(err)
	s.Equal([]string{"181d"}, s.Manager.LastServiceUUIDs())
}

func (s *ScanTestSuite) TestDurationFlagOverridesConfig() {
	s.ConfigPath = s.WriteConfig("scan_timeout: 1m\n")
	s.EmitWhenScanning(testutils.NewDevice("AA:AA", "Scale1"))

	out, err := s.ExecuteCommand("scan", "-d", "100ms")
	s.Require().NoError(err)
	s.Contains(out, "Scale1")
}

func (s *ScanTestSuite) TestInvalidFormat() {
	_, err := s.ExecuteCommand("scan", "--format", "xml")
	s.ErrorContains(err, "output format")
	s.Equal(0, s.Manager.StartCalls())
}

func (s *ScanTestSuite) TestInvalidServiceUUID() {
	_, err := s.ExecuteCommand("scan", "-s", "zz")
	s.ErrorContains(err, "invalid service UUID")
}

func (s *ScanTestSuite) TestDiscoveryErrorFailsCommand() {
	s.Manager.StartErr = errors.New("adapter busy")

	_, err := s.ExecuteCommand("scan")
	s.Require().Error(err)
	s.ErrorIs(err, device.ErrDiscovery)
	s.Contains(FormatUserError(err), "adapter busy")
}

func (s *ScanTestSuite) TestAdapterWarningPrinted() {
	s.Manager.SetState(device.StatePoweredOff)

	out, err := s.ExecuteCommand("scan")
	s.Require().NoError(err)
	s.Contains(out, "Bluetooth is not ready (PoweredOff)")
}

func TestDisplayDevicesTableLayout(t *testing.T) {
	devices := []device.DeviceInfo{
		testutils.NewDevice("AA:AA", "Scale1"),
		testutils.NewDeviceBuilder().WithAddress("BB:BB").WithRSSI(-70).WithServices("181d").Build(),
	}

	var buf bytes.Buffer
	require.NoError(t, displayDevicesTable(&buf, devices, controller.EnglishLabels))

	testutils.NewTextAsserter(t).Assert(buf.String(), `
NAME            ID     RSSI     SERVICES
----            --     ----     --------
Scale1          AA:AA  -50 dBm
Unknown device  BB:BB  -70 dBm  181d
`)
}

func TestScanTestSuite(t *testing.T) {
	suite.Run(t, new(ScanTestSuite))
}
