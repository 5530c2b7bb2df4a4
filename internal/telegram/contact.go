package telegram

import (
	"context"
	"strings"
)

// Contact is a sendContact request.
type Contact struct {
	base
}

func NewContact(phoneNumber string) *Contact {
	c := &Contact{base: newBase("sendContact")}
	return c.PhoneNumber(phoneNumber)
}

func (c *Contact) PhoneNumber(v string) *Contact {
	c.set("phone_number", strings.TrimSpace(v))
	return c
}

func (c *Contact) FirstName(v string) *Contact {
	c.set("first_name", strings.TrimSpace(v))
	return c
}

func (c *Contact) LastName(v string) *Contact {
	c.set("last_name", strings.TrimSpace(v))
	return c
}

// VCard attaches additional contact data in vCard format.
func (c *Contact) VCard(v string) *Contact {
	c.set("vcard", v)
	return c
}

func (c *Contact) WithToken(token string) *Contact {
	c.token = strings.TrimSpace(token)
	return c
}

func (c *Contact) OnError(h ErrorHandler) *Contact {
	c.onError = h
	return c
}

func (c *Contact) CanSend() bool {
	if c == nil {
		return false
	}
	phone, _ := c.payload["phone_number"].(string)
	first, _ := c.payload["first_name"].(string)
	return phone != "" && first != ""
}

func (c *Contact) Send(ctx context.Context, cl Client) (any, error) { return c.send(ctx, cl) }
