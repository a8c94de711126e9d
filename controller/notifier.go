package controller

import (
	"github.com/sirupsen/logrus"
)

// AlertLevel classifies an alert for presentation.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertError
)

func (l AlertLevel) String() string {
	switch l {
	case AlertWarning:
		return "warning"
	case AlertError:
		return "error"
	default:
		return "info"
	}
}

// Alert is a modal message shown to the user.
type Alert struct {
	Level   AlertLevel
	Title   string
	Message string
}

// Notifier presents alerts to the user.
type Notifier interface {
	Notify(alert Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(alert Alert)

func (f NotifierFunc) Notify(alert Alert) { f(alert) }

// LogNotifier writes alerts to a logger. Used when no UI is attached.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) Notify(alert Alert) {
	logger := n.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("title", alert.Title)
	switch alert.Level {
	case AlertError:
		entry.Error(alert.Message)
	case AlertWarning:
		entry.Warn(alert.Message)
	default:
		entry.Info(alert.Message)
	}
}
