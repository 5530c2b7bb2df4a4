package channel

import (
	"fmt"
	"strconv"
	"strings"

	"tgchannel/internal/telegram"
)

// ResolveRecipient picks the destination chat, first present value wins:
//
//  1. the message's own chat_id
//  2. the notifiable's "telegram" route
//  3. the notifiable's TypeKey route
//
// Empty strings, "0", zero numbers, false and nil count as absent, so a
// message can clear its chat_id to fall back to the notifiable.
func ResolveRecipient(msg telegram.Sendable, to Notifiable, n Notification) (string, bool) {
	lookups := []func() (string, bool){
		func() (string, bool) {
			v, _ := msg.PayloadValue("chat_id")
			return present(v)
		},
		func() (string, bool) { return routeOf(to, Name, n) },
		func() (string, bool) { return routeOf(to, TypeKey, n) },
	}
	for _, lookup := range lookups {
		if id, ok := lookup(); ok {
			return id, true
		}
	}
	return "", false
}

func routeOf(to Notifiable, key string, n Notification) (string, bool) {
	if to == nil {
		return "", false
	}
	return present(to.RouteFor(key, n))
}

// present normalizes a chat id value and reports whether it counts as set.
func present(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = strings.TrimSpace(x)
	case bool:
		return "", false
	case int:
		s = strconv.FormatInt(int64(x), 10)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int32:
		s = strconv.FormatInt(int64(x), 10)
	case float64:
		if x == 0 {
			return "", false
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		s = strings.TrimSpace(x.String())
	default:
		s = strings.TrimSpace(fmt.Sprint(x))
	}
	if s == "" || s == "0" {
		return "", false
	}
	return s, true
}
