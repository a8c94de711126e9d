package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blescale",
	Short: "Find and connect to a Bluetooth scale",
	Long: `Bluetooth Low Energy (BLE) scan-and-connect tool:

- Scan for nearby BLE devices and list them in discovery order
- Connect to a discovered device by its identifier
- Interactive terminal screen with a search button and a device list

Backends: go-ble (default) and tinygo bluetooth. On Linux the adapter power
state is followed through BlueZ over D-Bus.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("blescale %s (commit %s, built %s)\n", formatVersion(version), commit, date))

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(uiCmd)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/blescale/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("backend", "", "BLE backend (goble, tinygo)")
	rootCmd.PersistentFlags().String("locale", "", "UI language (en, de)")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
