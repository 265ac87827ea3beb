package notify

import (
	"errors"
	"fmt"
)

// Kind classifies a delivery failure by how the caller should react.
type Kind string

const (
	// KindRecipientUnreachable means the recipient cannot receive the
	// message at all, for example closed direct messages. Retrying the
	// same send will not help.
	KindRecipientUnreachable Kind = "recipient_unreachable"
	// KindTransient covers rate limits, server errors, and network
	// failures. The same send may succeed on a later attempt.
	KindTransient Kind = "transient"
	// KindFatal covers everything else, typically a misconfigured bot.
	KindFatal Kind = "fatal"
)

// DeliveryError wraps a transport failure with its classification.
type DeliveryError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// NewDeliveryError builds a classified delivery failure.
func NewDeliveryError(kind Kind, op string, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, Op: op, Err: err}
}

// ClassifyError reports the classification of err, defaulting to fatal for
// errors that carry none.
func ClassifyError(err error) Kind {
	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		return delivery.Kind
	}
	return KindFatal
}

// IsRecipientUnreachable reports whether err means the recipient cannot be
// reached by direct message.
func IsRecipientUnreachable(err error) bool {
	return err != nil && ClassifyError(err) == KindRecipientUnreachable
}

// IsTransient reports whether err is worth retrying on a later tick.
func IsTransient(err error) bool {
	return err != nil && ClassifyError(err) == KindTransient
}
