package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tgchannel/internal/telegram"
	logx "tgchannel/pkg/logx"
)

// Outcome labels a finished dispatch.
type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeFailed       Outcome = "failed"
	OutcomeDecodeFailed Outcome = "decode_failed"
)

// Observer receives one call per dispatch. Implementations must be cheap.
type Observer interface {
	ObserveDispatch(method string, outcome Outcome, took time.Duration)
}

// Channel dispatches notifications to telegram.
//
// It holds no per-call state and is safe for concurrent use as long as the
// Client is.
type Channel struct {
	client   telegram.Client
	reporter Reporter
	observer Observer
	log      logx.Logger
}

type Option func(*Channel)

func WithLogger(log logx.Logger) Option { return func(c *Channel) { c.log = log } }

func WithObserver(o Observer) Option { return func(c *Channel) { c.observer = o } }

// New returns a channel sending through client and reporting failures to
// reporter (nil disables reporting).
func New(client telegram.Client, reporter Reporter, opts ...Option) *Channel {
	c := &Channel{client: client, reporter: reporter}
	for _, o := range opts {
		o(c)
	}
	if c.reporter == nil {
		c.reporter = NopReporter{}
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	return c
}

// Send delivers n to the notifiable.
//
// It returns (nil, nil) when there is nothing to do: the message is not
// sendable or no destination resolves. Transport failures are returned as
// they came back from the message (matching telegram.ErrSendFailed);
// malformed response bodies match telegram.ErrDecodeFailed.
func (c *Channel) Send(ctx context.Context, to Notifiable, n Notification) (map[string]any, error) {
	start := time.Now()

	msg, err := render(to, n)
	if err != nil {
		return nil, err
	}
	// CanSend is nil-safe on every message type, so a typed nil skips here.
	if msg == nil || !msg.CanSend() {
		c.log.Debug("telegram notification skipped: nothing to send")
		c.observe("", OutcomeSkipped, start)
		return nil, nil
	}
	method := msg.Method()

	chatID, ok := ResolveRecipient(msg, to, n)
	if !ok {
		c.log.Debug("telegram notification skipped: no destination", logx.String("method", method))
		c.observe(method, OutcomeSkipped, start)
		return nil, nil
	}
	msg.To(chatID)

	client := c.client
	if msg.HasToken() && client != nil {
		client = client.WithToken(msg.Token())
	}

	raw, err := msg.Send(ctx, client)
	if err != nil {
		c.observe(method, OutcomeFailed, start)
		return nil, c.fail(ctx, to, n, msg, err)
	}

	out, err := telegram.DecodeResponse(raw)
	if err != nil {
		c.observe(method, OutcomeDecodeFailed, start)
		c.log.Error("telegram response decode failed", logx.String("method", method), logx.String("chat_id", chatID), logx.Err(err))
		return nil, err
	}
	c.observe(method, OutcomeSent, start)
	return out, nil
}

func render(to Notifiable, n Notification) (telegram.Sendable, error) {
	if n == nil {
		return nil, nil
	}
	content, err := n.ToTelegram(to)
	if err != nil {
		return nil, fmt.Errorf("render telegram notification: %w", err)
	}
	switch v := content.(type) {
	case nil:
		return nil, nil
	case telegram.Text:
		return telegram.Create(string(v)), nil
	case telegram.Sendable:
		return v, nil
	default:
		return nil, fmt.Errorf("render telegram notification: unsupported content %T", content)
	}
}

// fail runs the message hook, reports the failure and returns the error the
// caller sees. A hook error takes over: it is joined with the send error and
// the report is skipped.
func (c *Channel) fail(ctx context.Context, to Notifiable, n Notification, msg telegram.Sendable, sendErr error) error {
	dest, _ := msg.PayloadValue("chat_id")
	fc := FailureContext{To: dest, Request: msg.ToMap(), Err: sendErr}

	c.log.Warn("telegram notification failed",
		logx.String("method", msg.Method()),
		logx.Any("chat_id", dest),
		logx.Err(sendErr),
	)

	if h := msg.ErrorHandler(); h != nil {
		if herr := h(fc); herr != nil {
			return errors.Join(herr, sendErr)
		}
	}

	c.reporter.Report(ctx, NotificationFailed{
		Notifiable:   to,
		Notification: n,
		Channel:      Name,
		Data:         fc,
	})
	return sendErr
}

func (c *Channel) observe(method string, outcome Outcome, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveDispatch(method, outcome, time.Since(start))
}
