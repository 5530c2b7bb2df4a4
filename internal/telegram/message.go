package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"
)

// MaxTextLength is the Bot API limit for a single text message.
const MaxTextLength = 4096

// Message is a sendMessage request.
type Message struct {
	base
	chunkSize int
}

// NewMessage returns an empty message with Markdown parse mode.
func NewMessage() *Message {
	m := &Message{base: newBase("sendMessage")}
	m.set("text", "")
	m.set("parse_mode", tele.ModeMarkdown)
	return m
}

// Create returns a message holding text. It is sendable iff text is non-empty.
func Create(text string) *Message {
	return NewMessage().Content(text)
}

// Content replaces the message text.
func (m *Message) Content(text string) *Message {
	m.set("text", text)
	return m
}

// Line appends text followed by a newline.
func (m *Message) Line(text string) *Message {
	m.set("text", m.Text()+text+"\n")
	return m
}

// LineIf appends the line only when cond holds.
func (m *Message) LineIf(cond bool, text string) *Message {
	if cond {
		return m.Line(text)
	}
	return m
}

// Escaped appends a line with Markdown control characters escaped.
func (m *Message) Escaped(text string) *Message {
	return m.Line(EscapeMarkdown(text))
}

// ParseMode sets parse_mode; an empty mode removes it (plain text).
func (m *Message) ParseMode(mode tele.ParseMode) *Message {
	if mode == tele.ModeDefault {
		m.unset("parse_mode")
		return m
	}
	m.set("parse_mode", mode)
	return m
}

// Button adds an inline URL button.
func (m *Message) Button(text, url string, columns int) *Message {
	m.kb.Add(inlineURL(text, url), columns)
	return m
}

// ButtonWithCallback adds an inline button that sends data back to the bot.
func (m *Message) ButtonWithCallback(text, data string, columns int) *Message {
	m.kb.Add(tele.InlineButton{Text: text, Data: data}, columns)
	return m
}

func (m *Message) DisableNotification(v bool) *Message {
	m.set("disable_notification", v)
	return m
}

// Options merges raw Bot API fields into the payload.
func (m *Message) Options(opts map[string]any) *Message {
	for k, v := range opts {
		m.set(k, v)
	}
	return m
}

// WithToken makes this message use another bot token than the client default.
func (m *Message) WithToken(token string) *Message {
	m.token = strings.TrimSpace(token)
	return m
}

func (m *Message) OnError(h ErrorHandler) *Message {
	m.onError = h
	return m
}

// ChunkSize enables splitting long text into several messages of at most n
// runes (capped at MaxTextLength). Zero disables chunking.
func (m *Message) ChunkSize(n int) *Message {
	if n > MaxTextLength {
		n = MaxTextLength
	}
	m.chunkSize = max(n, 0)
	return m
}

func (m *Message) Text() string {
	s, _ := m.payload["text"].(string)
	return s
}

func (m *Message) CanSend() bool { return m != nil && m.Text() != "" }

// Send performs the call. With chunking enabled and text over the limit, each
// chunk is sent in order, the keyboard rides on the last one, and the last
// response is returned.
func (m *Message) Send(ctx context.Context, c Client) (any, error) {
	text := m.Text()
	if m.chunkSize <= 0 || utf8.RuneCountInString(text) <= m.chunkSize {
		return m.send(ctx, c)
	}
	if c == nil {
		return nil, &SendError{Method: m.method, Err: ErrNoClient}
	}

	chunks := SplitText(text, m.chunkSize)
	var raw any
	for i, chunk := range chunks {
		req := m.ToMap()
		req["text"] = chunk
		if i < len(chunks)-1 {
			delete(req, "reply_markup")
		}
		var err error
		raw, err = c.Send(ctx, m.method, req)
		if err != nil {
			return nil, sendFailed(m.method, err)
		}
	}
	return raw, nil
}

// SplitText splits s into chunks of at most limit runes, preferring line breaks.
func SplitText(s string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var (
		out []string
		cur strings.Builder
		n   int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(s, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln <= limit {
			cur.WriteString(line)
			n += ln
			continue
		}
		flush()
		// Hard-split lines longer than the limit.
		for ln > limit {
			cut := byteOffset(line, limit)
			out = append(out, line[:cut])
			line = line[cut:]
			ln -= limit
		}
		cur.WriteString(line)
		n = ln
	}
	flush()
	return out
}

func byteOffset(s string, runes int) int {
	i := 0
	for idx := range s {
		if i == runes {
			return idx
		}
		i++
	}
	return len(s)
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")

// EscapeMarkdown escapes legacy Markdown control characters.
func EscapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// ParseModeOf maps a config/flag value onto a telebot parse mode.
// "plain" and "none" select plain text.
func ParseModeOf(s string) (tele.ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown":
		return tele.ModeMarkdown, nil
	case "markdownv2":
		return tele.ModeMarkdownV2, nil
	case "html":
		return tele.ModeHTML, nil
	case "plain", "none":
		return tele.ModeDefault, nil
	default:
		return tele.ModeDefault, fmt.Errorf("unknown parse mode %q (use markdown, markdownv2, html or plain)", s)
	}
}
