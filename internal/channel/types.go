package channel

import (
	"context"

	"tgchannel/internal/telegram"
)

const (
	// Name is the routing key notifiables answer to for this channel.
	Name = "telegram"
	// TypeKey is the fallback routing key, identifying the channel implementation.
	TypeKey = "channel.Channel"
)

// Notifiable is the entity being notified.
type Notifiable interface {
	// RouteFor returns the address for the given routing key, or "" if none.
	RouteFor(channel string, n Notification) string
}

// Notification renders itself for the telegram channel.
//
// Implementations return telegram.Text for a plain string or any
// telegram.Sendable (Message, Location, Contact, Poll).
type Notification interface {
	ToTelegram(to Notifiable) (telegram.Content, error)
}

// FailureContext is what the error hook and the Reporter receive on failure.
type FailureContext = telegram.FailureContext

// NotificationFailed is the failure event handed to the Reporter.
type NotificationFailed struct {
	Notifiable   Notifiable
	Notification Notification
	Channel      string
	Data         FailureContext
}

// Reporter is told about failed sends. It must not block for long and its
// outcome is not consumed.
type Reporter interface {
	Report(ctx context.Context, ev NotificationFailed)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, ev NotificationFailed)

func (f ReporterFunc) Report(ctx context.Context, ev NotificationFailed) { f(ctx, ev) }

// NopReporter drops every report.
type NopReporter struct{}

func (NopReporter) Report(context.Context, NotificationFailed) {}

// Routes is an on-demand notifiable: a fixed routing-key -> address map.
type Routes map[string]string

// To returns routes addressing chatID on the telegram channel.
func To(chatID string) Routes { return Routes{Name: chatID} }

func (r Routes) RouteFor(channel string, _ Notification) string { return r[channel] }
