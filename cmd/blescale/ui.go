package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/srg/blescale/internal/tui"
)

// uiCmd represents the ui command
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Interactive scan screen",
	Long: `Open the interactive scan screen: press s to search for devices, move with
the arrow keys, press enter to connect to the selected device and q to quit.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("%w: the ui command needs an interactive terminal, use 'blescale scan' instead", ErrNotTerminal)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	// log lines would tear the alt screen; keep them only when asked for
	if logFile, _ := cmd.Flags().GetString("log-file"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	notifier := tui.NewNotifier()
	s, err := openSession(cmd, cfg, logger, notifier)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext(cmd.Context(), cmd.ErrOrStderr(), "ui")
	defer cancel()

	return tui.Run(ctx, s.ctl, notifier)
}

func init() {
	uiCmd.Flags().String("log-file", "", "Write logs to this file while the screen is open")
}
