package lifecycle

import (
	"time"

	"gatewarden/internal/roster"
)

// Action identifies the single due transition for a member on one tick.
type Action string

const (
	ActionMarkPendingRemoval Action = "mark_pending_removal"
	ActionSendFirstWarning   Action = "send_first_warning"
	ActionSendFinalNotice    Action = "send_final_notice"
	ActionExecuteRemoval     Action = "execute_removal"
	ActionResetToActive      Action = "reset_to_active"
)

// Windows carries the configured escalation durations.
type Windows struct {
	GracePeriod     time.Duration
	WarningWindow   time.Duration
	FinalNoticeLead time.Duration
}

// Evaluate decides whether a transition is due for the member at the given
// instant. At most one action is due per evaluation; the caller re-evaluates
// on the next tick after applying it.
//
// A compliant member in any escalation stage resets to active before any
// escalation rule is considered, so a member who verifies seconds before
// the removal deadline is never removed.
func Evaluate(member *roster.Member, compliant bool, now time.Time, windows Windows) (Action, bool) {
	if member == nil {
		return "", false
	}

	if compliant {
		if member.Status.Escalating() {
			return ActionResetToActive, true
		}
		return "", false
	}

	switch member.Status {
	case roster.StateActive:
		if now.Sub(member.JoinedAt) > windows.GracePeriod {
			return ActionMarkPendingRemoval, true
		}
	case roster.StatePendingRemoval:
		return ActionSendFirstWarning, true
	case roster.StateFirstWarningSent:
		if member.RemovalDeadline == nil {
			return "", false
		}
		deadline := *member.RemovalDeadline
		if !now.Before(deadline) {
			return ActionExecuteRemoval, true
		}
		if deadline.Sub(now) <= windows.FinalNoticeLead {
			return ActionSendFinalNotice, true
		}
	case roster.StateFinalNoticeSent:
		if member.RemovalDeadline != nil && !now.Before(*member.RemovalDeadline) {
			return ActionExecuteRemoval, true
		}
	}

	return "", false
}
