package channel

import (
	"strings"

	"tgchannel/internal/telegram"
)

// Notice is a ready-made text notification used by the CLI, the HTTP API and
// the scheduler.
type Notice struct {
	Text      string
	ChatID    string // optional; overrides the notifiable's route
	ParseMode string // markdown (default), markdownv2, html or plain
	Token     string
	Silent    bool
	ChunkSize int
}

func (n Notice) ToTelegram(Notifiable) (telegram.Content, error) {
	mode, err := telegram.ParseModeOf(n.ParseMode)
	if err != nil {
		return nil, err
	}
	m := telegram.Create(n.Text).
		ParseMode(mode).
		WithToken(n.Token).
		ChunkSize(n.ChunkSize)
	if n.Silent {
		m.DisableNotification(true)
	}
	if id := strings.TrimSpace(n.ChatID); id != "" {
		m.To(id)
	}
	return m, nil
}

// TextNotification renders a plain string.
type TextNotification string

func (t TextNotification) ToTelegram(Notifiable) (telegram.Content, error) {
	return telegram.Text(t), nil
}
