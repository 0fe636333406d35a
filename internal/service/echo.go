package service

import (
	"context"
	"fmt"

	"github.com/VladPetriv/botapi/pkg/botapi"
	"github.com/VladPetriv/botapi/pkg/logger"
	"github.com/mymmrac/telego/telegoutil"
)

type echoService struct {
	sender Sender
	logger *logger.Logger
}

var _ EchoService = (*echoService)(nil)

// NewEcho returns new instance of echo service.
func NewEcho(sender Sender, logger *logger.Logger) *echoService {
	return &echoService{
		sender: sender,
		logger: logger.Named("service.Echo"),
	}
}

func (e *echoService) HandleUpdate(ctx context.Context, update *botapi.Dict) error {
	logger := e.logger
	updateID, _ := update.Int64("update_id")

	message, ok, err := newTelegramUpdate(update)
	if err != nil {
		logger.Error().Err(err).Int64("updateID", updateID).Msg("read message from update")
		return fmt.Errorf("read message from update: %w", err)
	}
	if !ok {
		logger.Debug().Int64("updateID", updateID).Msg("skip update without text message")
		return nil
	}

	params := telegoutil.Message(telegoutil.ID(message.GetChatID()), replyText(message.GetText())).
		WithReplyToMessageID(message.GetMessageID())

	_, err = e.sender.SendMessage(ctx, params)
	if err != nil {
		logger.Error().Err(err).Int64("chatID", message.GetChatID()).Msg("send reply")
		return fmt.Errorf("send reply: %w", err)
	}

	logger.Info().
		Int64("updateID", updateID).
		Str("sender", message.GetSenderName()).
		Msg("successfully replied to message")

	return nil
}

func replyText(text string) string {
	return fmt.Sprintf("You said: \"%s\".", text)
}
