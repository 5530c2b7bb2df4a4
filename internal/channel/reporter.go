package channel

import (
	"context"
	"time"

	"tgchannel/internal/eventbus"
)

// BusReporter publishes failures on the event bus as
// eventbus.TypeNotificationFailed with a NotificationFailed payload.
type BusReporter struct {
	Bus eventbus.Bus
}

func NewBusReporter(bus eventbus.Bus) *BusReporter { return &BusReporter{Bus: bus} }

func (r *BusReporter) Report(_ context.Context, ev NotificationFailed) {
	if r == nil || r.Bus == nil {
		return
	}
	r.Bus.Publish(eventbus.Event{Type: eventbus.TypeNotificationFailed, Time: time.Now(), Data: ev})
}
