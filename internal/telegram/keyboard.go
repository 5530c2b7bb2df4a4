package telegram

import (
	tele "gopkg.in/telebot.v4"
)

// Keyboard accumulates inline buttons and lays them out in rows of Columns.
type Keyboard struct {
	buttons []tele.InlineButton
	columns int
}

// Add appends a button. columns <= 0 keeps the previous layout (default 2).
func (k *Keyboard) Add(btn tele.InlineButton, columns int) {
	if columns > 0 {
		k.columns = columns
	}
	k.buttons = append(k.buttons, btn)
}

func (k *Keyboard) Empty() bool { return len(k.buttons) == 0 }

// Markup renders the buttons as an inline keyboard.
func (k *Keyboard) Markup() *tele.ReplyMarkup {
	cols := k.columns
	if cols <= 0 {
		cols = 2
	}
	rows := make([][]tele.InlineButton, 0, (len(k.buttons)+cols-1)/cols)
	for i := 0; i < len(k.buttons); i += cols {
		end := min(i+cols, len(k.buttons))
		row := append([]tele.InlineButton(nil), k.buttons[i:end]...)
		rows = append(rows, row)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func inlineURL(text, url string) tele.InlineButton {
	return tele.InlineButton{Text: text, URL: url}
}
