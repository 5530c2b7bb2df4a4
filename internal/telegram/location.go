package telegram

import (
	"context"
	"strings"
)

// Location is a sendLocation request.
type Location struct {
	base
	hasLat, hasLng bool
}

func NewLocation(latitude, longitude float64) *Location {
	l := &Location{base: newBase("sendLocation")}
	return l.Latitude(latitude).Longitude(longitude)
}

func (l *Location) Latitude(v float64) *Location {
	l.set("latitude", v)
	l.hasLat = true
	return l
}

func (l *Location) Longitude(v float64) *Location {
	l.set("longitude", v)
	l.hasLng = true
	return l
}

func (l *Location) Button(text, url string, columns int) *Location {
	l.kb.Add(inlineURL(text, url), columns)
	return l
}

func (l *Location) WithToken(token string) *Location {
	l.token = strings.TrimSpace(token)
	return l
}

func (l *Location) OnError(h ErrorHandler) *Location {
	l.onError = h
	return l
}

func (l *Location) CanSend() bool { return l != nil && l.hasLat && l.hasLng }

func (l *Location) Send(ctx context.Context, c Client) (any, error) { return l.send(ctx, c) }
