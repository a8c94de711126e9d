package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <device-id>",
	Short: "Scan for a device and connect to it",
	Long: `Scan until the device with the given identifier (MAC address or platform
UUID, case-insensitive) is discovered, then connect to it.

By default the connection is released right after it is established. Use
--hold to keep it open until Ctrl+C or until the device drops the link.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

var (
	connectScanDuration time.Duration
	connectTimeout      time.Duration
	connectHold         bool
)

func init() {
	connectCmd.Flags().DurationVarP(&connectScanDuration, "duration", "d", 0, "Scan duration (default from config)")
	connectCmd.Flags().DurationVarP(&connectTimeout, "timeout", "t", 0, "Connection timeout (default from config)")
	connectCmd.Flags().BoolVar(&connectHold, "hold", false, "Keep the connection open until Ctrl+C")
}

func runConnect(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	if id == "" {
		return fmt.Errorf("device id must not be empty")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if connectScanDuration > 0 {
		cfg.ScanTimeout = connectScanDuration
	}
	if connectTimeout > 0 {
		cfg.ConnectTimeout = connectTimeout
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	s, err := openSession(cmd, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext(cmd.Context(), cmd.ErrOrStderr(), "connect")
	defer cancel()

	dev, err := findDevice(ctx, s.ctl, id)
	if err != nil {
		return err
	}
	s.ctl.StopScan()

	var progress *ProgressPrinter
	if isTerminal(cmd.ErrOrStderr()) {
		progress = NewProgressPrinter(cmd.ErrOrStderr(), "Connecting to "+device.DisplayName(dev), "Connecting")
		progress.Start()
	}
	conn, err := s.ctl.ConnectToDevice(ctx, dev.ID())
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	if !connectHold {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s. Press Ctrl+C to disconnect.\n", device.DisplayName(dev))
	select {
	case <-ctx.Done():
	case <-conn.Disconnected():
		return fmt.Errorf("%s: %w", device.DisplayName(dev), device.ErrNotConnected)
	}
	return nil
}

// findDevice starts a session and waits for id to be discovered. It fails
// when the session ends first.
func findDevice(ctx context.Context, ctl *controller.Controller, id string) (device.DeviceInfo, error) {
	events := ctl.Events()
	if err := ctl.StartScan(); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, controller.ErrClosed
			}
			switch ev.Type {
			case controller.EventDeviceDiscovered:
				if strings.EqualFold(ev.Device.ID(), id) {
					return ev.Device, nil
				}
			case controller.EventScanStopped:
				if ev.Err != nil {
					return nil, ev.Err
				}
				// the device may have been listed before the stop event was read
				for _, dev := range ctl.Devices() {
					if strings.EqualFold(dev.ID(), id) {
						return dev, nil
					}
				}
				return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
			}
		}
	}
}
