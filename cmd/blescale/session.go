package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/device"
	"github.com/srg/blescale/internal/devicefactory"
	"github.com/srg/blescale/pkg/config"
)

// session bundles what every command needs: configuration, logger, the
// platform manager and the controller bound to it.
type session struct {
	cfg    *config.Config
	logger *logrus.Logger
	mgr    device.Manager
	ctl    *controller.Controller
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = backend
	}
	if locale, _ := cmd.Flags().GetString("locale"); locale != "" {
		cfg.Locale = locale
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func controllerOptions(cfg *config.Config) controller.Options {
	opts := controller.DefaultOptions()
	opts.ScanTimeout = cfg.ScanTimeout
	opts.ServiceUUIDs = cfg.ServiceUUIDs
	opts.AllowDuplicates = cfg.AllowDuplicates
	opts.ConnectTimeout = cfg.ConnectTimeout
	opts.EventBuffer = cfg.EventBuffer
	opts.Labels = controller.LabelsFor(cfg.Locale)
	return opts
}

// openSession creates the manager and an opened controller. A nil notifier
// prints alerts to the command's stderr.
func openSession(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger, notifier controller.Notifier) (*session, error) {
	mgr, err := devicefactory.ManagerFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE manager: %w", err)
	}
	if notifier == nil {
		notifier = newAlertPrinter(cmd.ErrOrStderr())
	}

	ctl := controller.New(mgr, notifier, logger, controllerOptions(cfg))
	if err := ctl.Open(); err != nil {
		_ = ctl.Close()
		_ = mgr.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, mgr: mgr, ctl: ctl}, nil
}

func (s *session) Close() error {
	return errors.Join(s.ctl.Close(), s.mgr.Close())
}

// interruptContext returns a context cancelled on Ctrl+C or SIGTERM.
func interruptContext(parent context.Context, w io.Writer, what string) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintf(w, "\nCtrl+C pressed, cancelling %s...\n", what)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
