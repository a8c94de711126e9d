package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BLE devices",
	Long: `Run one discovery session and list the devices found, each once, in the
order they were discovered.

The session ends after --duration (default 5s from the configuration), on a
discovery error, or on Ctrl+C.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanServices []string
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 0, "Scan duration (default from config)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "Output format (table, json)")
	scanCmd.Flags().StringSliceVarP(&scanServices, "services", "s", nil, "Filter by service UUIDs")
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if scanFormat != "" {
		cfg.OutputFormat = scanFormat
	}
	if scanDuration > 0 {
		cfg.ScanTimeout = scanDuration
	}
	if len(scanServices) > 0 {
		uuids, err := device.ValidateUUID(scanServices...)
		if err != nil {
			return fmt.Errorf("invalid service UUID: %w", err)
		}
		cfg.ServiceUUIDs = uuids
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	s, err := openSession(cmd, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext(cmd.Context(), cmd.ErrOrStderr(), "scan")
	defer cancel()

	devices, err := scanOnce(ctx, cmd, s)
	if err != nil {
		return err
	}
	return displayDevices(cmd.OutOrStdout(), devices, s.ctl.Labels(), cfg.OutputFormat)
}

// scanOnce runs one session to its end or until ctx is done and returns the
// device list. Cancellation keeps what was found so far.
func scanOnce(ctx context.Context, cmd *cobra.Command, s *session) ([]device.DeviceInfo, error) {
	if err := s.ctl.StartScan(); err != nil {
		return nil, err
	}

	if isTerminal(cmd.ErrOrStderr()) {
		progress := NewCountdownProgressPrinter(cmd.ErrOrStderr(), "Scanning for BLE devices", "Scanning", s.cfg.ScanTimeout)
		progress.Start()
		defer progress.Stop()
	}

	select {
	case <-s.ctl.SessionDone():
	case <-ctx.Done():
		s.ctl.StopScan()
	}

	if err := s.ctl.LastScanError(); err != nil {
		return nil, err
	}
	return s.ctl.Devices(), nil
}

func displayDevices(w io.Writer, devices []device.DeviceInfo, labels controller.Labels, format string) error {
	switch format {
	case "json":
		return displayDevicesJSON(w, devices)
	default:
		return displayDevicesTable(w, devices, labels)
	}
}

func displayDevicesTable(w io.Writer, devices []device.DeviceInfo, labels controller.Labels) error {
	if len(devices) == 0 {
		fmt.Fprintln(w, labels.NoDevices)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tRSSI\tSERVICES")
	// tabbed so the separator stays in the same column block as the rows
	fmt.Fprintln(tw, "----\t--\t----\t--------")

	for _, dev := range devices {
		name := labels.ListName(dev.Name())
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		services := strings.Join(dev.AdvertisedServices(), ",")
		if len(services) > 30 {
			services = services[:27] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%d dBm\t%s\n", name, dev.ID(), dev.RSSI(), services)
	}

	return tw.Flush()
}

func displayDevicesJSON(w io.Writer, devices []device.DeviceInfo) error {
	summaries := make([]device.Summary, 0, len(devices))
	for _, dev := range devices {
		summaries = append(summaries, device.Summarize(dev))
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summaries)
}
