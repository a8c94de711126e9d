package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/srg/blescale/controller"
)

// alertPrinter shows controller alerts as colored lines.
type alertPrinter struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool
}

func newAlertPrinter(w io.Writer) *alertPrinter {
	return &alertPrinter{w: w, tty: isTerminal(w)}
}

func (p *alertPrinter) Notify(alert controller.Alert) {
	var c *color.Color
	switch alert.Level {
	case controller.AlertError:
		c = color.New(color.FgRed, color.Bold)
	case controller.AlertWarning:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgGreen)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty {
		// leave a line drawn by the progress printer
		fmt.Fprint(p.w, clearLineSequence)
	}
	c.Fprintf(p.w, "[%s] ", alert.Title)
	fmt.Fprintln(p.w, alert.Message)
}
