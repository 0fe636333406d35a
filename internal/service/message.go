package service

import (
	"fmt"

	"github.com/VladPetriv/botapi/pkg/botapi"
	"github.com/mymmrac/telego"
)

// TelegramUpdate wraps a decoded update that carries a message.
type TelegramUpdate struct {
	update telego.Update
}

var _ Message = (*TelegramUpdate)(nil)

// newTelegramUpdate decodes a raw update. It reports false for updates
// without a text message.
func newTelegramUpdate(raw *botapi.Dict) (*TelegramUpdate, bool, error) {
	message, ok := raw.Dict("message")
	if !ok || !message.Has("text") {
		return nil, false, nil
	}

	update, err := botapi.DecodeUpdate(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode update: %w", err)
	}

	return &TelegramUpdate{update: update}, true, nil
}

func (t *TelegramUpdate) GetChatID() int64 {
	return t.update.Message.Chat.ID
}

func (t *TelegramUpdate) GetMessageID() int {
	return t.update.Message.MessageID
}

func (t *TelegramUpdate) GetText() string {
	return t.update.Message.Text
}

func (t *TelegramUpdate) GetSenderName() string {
	if t.update.Message.From == nil {
		return ""
	}

	return t.update.Message.From.FirstName
}
