// Package channel implements the telegram notification channel: it renders
// an application notification into a telegram message, resolves the
// destination chat, applies a per-message bot token, performs the call and
// decodes the response.
//
// Empty content and an unresolvable destination are both "nothing to do":
// Send returns (nil, nil) without touching the transport. Transport failures
// run the message's error hook, are reported once through the Reporter, and
// are then returned to the caller unchanged.
package channel
