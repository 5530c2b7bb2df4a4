package telegram

import (
	"context"
	"strings"
)

// Poll is a sendPoll request.
type Poll struct {
	base
	options []string
}

func NewPoll(question string, options ...string) *Poll {
	p := &Poll{base: newBase("sendPoll")}
	return p.Question(question).Choices(options...)
}

func (p *Poll) Question(q string) *Poll {
	p.set("question", strings.TrimSpace(q))
	return p
}

// Choices appends answer options; blank ones are ignored.
func (p *Poll) Choices(options ...string) *Poll {
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			p.options = append(p.options, o)
		}
	}
	p.set("options", append([]string(nil), p.options...))
	return p
}

func (p *Poll) Anonymous(v bool) *Poll {
	p.set("is_anonymous", v)
	return p
}

func (p *Poll) MultipleAnswers(v bool) *Poll {
	p.set("allows_multiple_answers", v)
	return p
}

func (p *Poll) WithToken(token string) *Poll {
	p.token = strings.TrimSpace(token)
	return p
}

func (p *Poll) OnError(h ErrorHandler) *Poll {
	p.onError = h
	return p
}

func (p *Poll) CanSend() bool {
	if p == nil {
		return false
	}
	q, _ := p.payload["question"].(string)
	return q != "" && len(p.options) >= 2
}

func (p *Poll) Send(ctx context.Context, c Client) (any, error) { return p.send(ctx, c) }
