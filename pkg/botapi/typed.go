package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mymmrac/telego"
)

// The wrappers below are thin pass-throughs to Call that speak telego's
// Bot API types. Anything not covered here is reachable through Call.

// GetMe returns basic information about the bot.
func (c *Client) GetMe(ctx context.Context) (*telego.User, error) {
	var user telego.User

	err := c.CallInto(ctx, "get_me", nil, &user)
	if err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}

	return &user, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args, err := argsFrom(params)
	if err != nil {
		return nil, err
	}

	var message telego.Message

	err = c.CallInto(ctx, "send_message", args, &message)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	return &message, nil
}

// GetUpdates performs a single poll. It does not track offsets, use Updates for that.
func (c *Client) GetUpdates(ctx context.Context, params *telego.GetUpdatesParams) ([]telego.Update, error) {
	args, err := argsFrom(params)
	if err != nil {
		return nil, err
	}

	var updates []telego.Update

	err = c.CallInto(ctx, getUpdatesMethod, args, &updates)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}

	return updates, nil
}

// DecodeUpdate converts an update delivered by an UpdateStream into telego's type.
func DecodeUpdate(update *Dict) (telego.Update, error) {
	var decoded telego.Update

	err := update.Decode(&decoded)
	if err != nil {
		return telego.Update{}, fmt.Errorf("decode update: %w", err)
	}

	return decoded, nil
}

// argsFrom flattens a telego params struct into call arguments.
func argsFrom(params any) (Args, error) {
	if params == nil {
		return Args{}, nil
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var args Args
	err = decoder.Decode(&args)
	if err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	return args, nil
}
