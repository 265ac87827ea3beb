package notify

import (
	"fmt"
	"strings"
	"time"
)

// mention renders a chat-platform user mention.
func mention(userID string) string {
	return fmt.Sprintf("<@%s>", strings.TrimSpace(userID))
}

func humanizeUntil(deadline, now time.Time) string {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	days := int(remaining / (24 * time.Hour))
	hours := int(remaining%(24*time.Hour)) / int(time.Hour)
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%d days and %d hours", days, hours)
	case days > 0:
		return fmt.Sprintf("%d days", days)
	default:
		return fmt.Sprintf("%d hours", hours)
	}
}

// FirstWarning is the direct message sent when a member enters the warning
// stage.
func FirstWarning(guildName, roleName string, deadline, now time.Time) Message {
	body := fmt.Sprintf(
		"Hi! You joined **%s** but have not picked up the **%s** role yet.\n"+
			"Please verify within %s, or you will be removed from the server.\n"+
			"If you think this is a mistake, reach out to the moderators.",
		guildName, roleName, humanizeUntil(deadline, now))
	return Message{
		Summary: fmt.Sprintf("Verification needed in %s", guildName),
		Body:    body,
	}
}

// FinalNotice is the direct message sent shortly before removal.
func FinalNotice(guildName, roleName string, deadline, now time.Time) Message {
	body := fmt.Sprintf(
		"Final notice: you will be removed from **%s** in %s unless you pick up the **%s** role.\n"+
			"You are welcome to rejoin and verify at any time.",
		guildName, humanizeUntil(deadline, now), roleName)
	return Message{
		Summary: fmt.Sprintf("Final notice for %s", guildName),
		Body:    body,
	}
}

// Welcome is the direct message sent when a new member joins a managed guild.
func Welcome(guildName, roleName string, gracePeriod time.Duration) Message {
	days := int(gracePeriod / (24 * time.Hour))
	body := fmt.Sprintf(
		"Welcome to **%s**!\n"+
			"To keep your access, please pick up the **%s** role within the next %d days.",
		guildName, roleName, days)
	return Message{
		Summary: fmt.Sprintf("Welcome to %s", guildName),
		Body:    body,
	}
}

// OperatorMarked is the operator-channel post for a member entering the
// removal pipeline.
func OperatorMarked(userID, roleName string, joined, now time.Time) Message {
	absent := now.Sub(joined)
	days := int(absent / (24 * time.Hour))
	hours := int(absent%(24*time.Hour)) / int(time.Hour)
	return Message{
		Body: fmt.Sprintf("User %s has been absent the role %s for %d days and %d hours.",
			mention(userID), roleName, days, hours),
	}
}

// OperatorWarned is the operator-channel post for a delivered first warning.
func OperatorWarned(userID string, deadline time.Time) Message {
	return Message{
		Body: fmt.Sprintf("Sent first warning to %s. Removal scheduled for %s.",
			mention(userID), deadline.UTC().Format("2006-01-02 15:04 UTC")),
	}
}

// OperatorWarningFailed is the operator-channel post for a first warning
// that could not reach the member. retryCount is the attempts made so far.
func OperatorWarningFailed(userID string, retryCount, retryLimit int) Message {
	return Message{
		Body: fmt.Sprintf("Could not deliver warning to %s (attempt %d of %d): direct messages are closed.",
			mention(userID), retryCount, retryLimit),
	}
}

// OperatorFinalNotice is the operator-channel post for a delivered final
// notice.
func OperatorFinalNotice(userID string, deadline time.Time) Message {
	return Message{
		Body: fmt.Sprintf("Sent final notice to %s. Removal scheduled for %s.",
			mention(userID), deadline.UTC().Format("2006-01-02 15:04 UTC")),
	}
}

// OperatorRemoved is the operator-channel post for an executed removal.
// forced marks removals triggered by repeated undeliverable warnings.
func OperatorRemoved(userID string, forced bool) Message {
	if forced {
		return Message{
			Body: fmt.Sprintf("Removed user %s: warnings could not be delivered.", mention(userID)),
		}
	}
	return Message{
		Body: fmt.Sprintf("Kicked user %s for not verifying.", mention(userID)),
	}
}

// OperatorReset is the operator-channel post for a compliance reset.
func OperatorReset(userID string) Message {
	return Message{
		Body: fmt.Sprintf("User %s verified; removal cancelled.", mention(userID)),
	}
}
