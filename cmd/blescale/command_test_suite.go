package main

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"

	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/devicefactory"
	"github.com/srg/blescale/internal/testutils"
	"github.com/srg/blescale/pkg/config"
)

var configEnv = []string{
	"BLESCALE_LOG_LEVEL",
	"BLESCALE_BACKEND",
	"BLESCALE_SCAN_TIMEOUT",
	"BLESCALE_CONNECT_TIMEOUT",
	"BLESCALE_LOCALE",
	"BLESCALE_ADAPTER",
}

// CommandTestSuite runs commands through rootCmd against a FakeManager
// injected via devicefactory.ManagerFactory.
type CommandTestSuite struct {
	suite.Suite

	Manager    *testutils.FakeManager
	ConfigPath string

	originalFactory func(*config.Config, *logrus.Logger) (device.Manager, error)
}

func (s *CommandTestSuite) SetupTest() {
	for _, k := range configEnv {
		s.T().Setenv(k, "")
	}

	s.Manager = testutils.NewFakeManager()
	s.Manager.SetState(device.StatePoweredOn)

	s.originalFactory = devicefactory.ManagerFactory
	devicefactory.ManagerFactory = func(*config.Config, *logrus.Logger) (device.Manager, error) {
		return s.Manager, nil
	}

	s.ConfigPath = s.WriteConfig("scan_timeout: 200ms\n")
	resetFlags(rootCmd)
}

func (s *CommandTestSuite) TearDownTest() {
	devicefactory.ManagerFactory = s.originalFactory
}

// WriteConfig writes a YAML config file and returns its path.
func (s *CommandTestSuite) WriteConfig(content string) string {
	path := filepath.Join(s.T().TempDir(), "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ExecuteCommand runs rootCmd with args plus the suite config file and
// returns the combined stdout and stderr.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append(args, "--config", s.ConfigPath))
	err := rootCmd.Execute()
	return buf.String(), err
}

// EmitWhenScanning delivers devs once the command has started its scan.
func (s *CommandTestSuite) EmitWhenScanning(devs ...device.DeviceInfo) {
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for !s.Manager.IsScanning() {
			if time.Now().After(deadline) {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
		s.Manager.Emit(devs...)
	}()
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// so values do not leak between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
