package telegram

import (
	"context"
	"maps"
)

// Content is what a notification renders for the telegram channel: either
// plain Text or one of the Sendable message types.
type Content interface {
	telegramContent()
}

// Text is a bare string rendering. The channel wraps it with Create.
type Text string

func (Text) telegramContent() {}

// ErrorHandler is an optional per-message hook run synchronously when a send fails.
// A non-nil return replaces the normal failure reporting and propagates to the caller.
type ErrorHandler func(fc FailureContext) error

// FailureContext describes a failed send. It is built only on failure.
type FailureContext struct {
	// To is the chat_id the request was addressed to.
	To any
	// Request is the serialized payload, as returned by ToMap.
	Request map[string]any
	// Err is the error returned by the transport.
	Err error
}

// Sendable is the contract the channel dispatches.
type Sendable interface {
	Content

	Method() string
	CanSend() bool
	To(chatID any)
	PayloadValue(key string) (any, bool)
	HasToken() bool
	Token() string
	ErrorHandler() ErrorHandler
	ToMap() map[string]any
	Send(ctx context.Context, c Client) (any, error)
}

// base carries what every message type shares: the Bot API method, the
// payload, the credential override and the failure hook.
type base struct {
	method  string
	payload map[string]any

	token   string
	onError ErrorHandler
	kb      Keyboard
}

func newBase(method string) base {
	return base{method: method, payload: map[string]any{}}
}

func (b *base) telegramContent() {}

func (b *base) set(key string, v any) { b.payload[key] = v }

func (b *base) unset(key string) { delete(b.payload, key) }

func (b *base) Method() string { return b.method }

// To sets the destination chat. Last write wins.
func (b *base) To(chatID any) { b.set("chat_id", chatID) }

// PayloadValue reads a payload field; a missing key is not an error.
func (b *base) PayloadValue(key string) (any, bool) {
	v, ok := b.payload[key]
	return v, ok
}

func (b *base) HasToken() bool { return b.token != "" }
func (b *base) Token() string  { return b.token }

func (b *base) ErrorHandler() ErrorHandler { return b.onError }

// ToMap returns a copy of the request payload, including reply_markup when
// buttons were added.
func (b *base) ToMap() map[string]any {
	out := maps.Clone(b.payload)
	if out == nil {
		out = map[string]any{}
	}
	if !b.kb.Empty() {
		out["reply_markup"] = b.kb.Markup()
	}
	return out
}

func (b *base) send(ctx context.Context, c Client) (any, error) {
	if c == nil {
		return nil, &SendError{Method: b.method, Err: ErrNoClient}
	}
	raw, err := c.Send(ctx, b.method, b.ToMap())
	if err != nil {
		return nil, sendFailed(b.method, err)
	}
	return raw, nil
}
