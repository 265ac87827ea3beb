package notify

import "context"

// Message is a rendered notification ready for delivery. Body carries the
// full text; Summary is a short form used by transports that support one.
type Message struct {
	Summary string
	Body    string
}

// Service defines the delivery surface exposed to the enforcer. Both methods
// return a transport reference for the delivered message so the caller can
// persist it alongside the transition that triggered it.
type Service interface {
	// SendDirect delivers a private message to the given user.
	SendDirect(ctx context.Context, userID string, msg Message) (string, error)
	// PostToChannel posts to a shared channel, typically the operator channel.
	PostToChannel(ctx context.Context, channelID string, msg Message) (string, error)
}

// Noop discards every message. It stands in when no bot token is configured
// so the enforcement loop can run dry against a real roster.
type Noop struct{}

func (Noop) SendDirect(context.Context, string, Message) (string, error) {
	return "", nil
}

func (Noop) PostToChannel(context.Context, string, Message) (string, error) {
	return "", nil
}
