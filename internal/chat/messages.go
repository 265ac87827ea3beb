package chat

import (
	"context"
	"fmt"
	"net/url"

	"gatewarden/internal/notify"
)

type channelResponse struct {
	ID string `json:"id"`
}

type messageResponse struct {
	ID string `json:"id"`
}

type createDMRequest struct {
	RecipientID string `json:"recipient_id"`
}

type createMessageRequest struct {
	Content string `json:"content"`
}

// SendDirect opens (or reuses) the direct-message channel with the user and
// delivers the message there. The returned reference is the message id.
func (c *Client) SendDirect(ctx context.Context, userID string, msg notify.Message) (string, error) {
	var channel channelResponse
	if err := c.do(ctx, "POST", "/users/@me/channels", createDMRequest{RecipientID: userID}, &channel); err != nil {
		return "", fmt.Errorf("open dm channel: %w", err)
	}
	return c.PostToChannel(ctx, channel.ID, msg)
}

// PostToChannel posts the message body to the given channel.
func (c *Client) PostToChannel(ctx context.Context, channelID string, msg notify.Message) (string, error) {
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	var created messageResponse
	if err := c.do(ctx, "POST", path, createMessageRequest{Content: msg.Body}, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}
