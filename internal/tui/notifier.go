package tui

import (
	"github.com/srg/blescale/controller"
	"github.com/srg/blescale/internal/ringchan"
)

const alertBuffer = 8

// Notifier queues controller alerts until the screen shows them. Pass it to
// controller.New and to Run.
type Notifier struct {
	alerts *ringchan.RingChannel[controller.Alert]
}

var _ controller.Notifier = (*Notifier)(nil)

func NewNotifier() *Notifier {
	return &Notifier{alerts: ringchan.New[controller.Alert](alertBuffer)}
}

func (n *Notifier) Notify(alert controller.Alert) {
	n.alerts.Send(alert)
}

// Alerts returns the pending alerts in arrival order.
func (n *Notifier) Alerts() <-chan controller.Alert {
	return n.alerts.C()
}
