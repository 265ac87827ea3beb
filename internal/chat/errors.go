package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gatewarden/internal/notify"
)

// Platform error code for a recipient whose direct messages are closed.
const codeCannotMessageUser = 50007

// errNotFound marks a 404 so callers can treat "already gone" as success.
var errNotFound = errors.New("not found")

func isNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

func transientError(op string, err error) error {
	return notify.NewDeliveryError(notify.KindTransient, op, err)
}

// classifyStatus converts a non-success HTTP response into a classified
// delivery error. The body is consumed.
func classifyStatus(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope apiError
	_ = json.Unmarshal(raw, &envelope)

	detail := strings.TrimSpace(envelope.Message)
	if detail == "" {
		detail = strings.TrimSpace(string(raw))
	}
	base := fmt.Errorf("status %d: %s", resp.StatusCode, detail)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, errNotFound)
	case resp.StatusCode == http.StatusForbidden && envelope.Code == codeCannotMessageUser:
		return notify.NewDeliveryError(notify.KindRecipientUnreachable, op, base)
	case resp.StatusCode == http.StatusTooManyRequests:
		return notify.NewDeliveryError(notify.KindTransient, op, base)
	case resp.StatusCode >= 500:
		return notify.NewDeliveryError(notify.KindTransient, op, base)
	default:
		return notify.NewDeliveryError(notify.KindFatal, op, base)
	}
}
