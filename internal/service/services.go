package service

import (
	"context"

	"github.com/VladPetriv/botapi/pkg/botapi"
	"github.com/mymmrac/telego"
)

// Services contains all services.
type Services struct {
	Echo EchoService
}

// EchoService answers text messages with a quote of their own text.
type EchoService interface {
	// HandleUpdate reacts on a single update received from the update stream.
	HandleUpdate(ctx context.Context, update *botapi.Dict) error
}

// Sender sends messages through the Bot API.
type Sender interface {
	// SendMessage sends a text message.
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Message represents a message that was received from the update stream.
type Message interface {
	// GetChatID returns the ID of the chat the message was sent to.
	GetChatID() int64
	// GetMessageID returns the ID of the message inside its chat.
	GetMessageID() int
	// GetText returns the text content of the message.
	GetText() string
	// GetSenderName returns the name of the user who sent the message.
	GetSenderName() string
}
