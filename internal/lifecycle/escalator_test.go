package lifecycle

import (
	"testing"
	"time"

	"gatewarden/internal/roster"
)

func testWindows() Windows {
	return Windows{
		GracePeriod:     72 * time.Hour,
		WarningWindow:   168 * time.Hour,
		FinalNoticeLead: 48 * time.Hour,
	}
}

func newMember(joined time.Time) *roster.Member {
	return &roster.Member{
		UserID:   "user-1",
		GuildID:  "guild-1",
		Status:   roster.StateActive,
		JoinedAt: joined,
	}
}

func TestEvaluateFullEscalationWalk(t *testing.T) {
	windows := testWindows()
	joined := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	member := newMember(joined)

	// Inside the grace period nothing is due.
	if action, due := Evaluate(member, false, joined.Add(71*time.Hour), windows); due {
		t.Fatalf("expected no action inside grace period, got %s", action)
	}

	// Grace period elapsed.
	now := joined.Add(73 * time.Hour)
	action, due := Evaluate(member, false, now, windows)
	if !due || action != ActionMarkPendingRemoval {
		t.Fatalf("expected mark_pending_removal, got %s (due=%v)", action, due)
	}
	member.MarkPendingRemoval(now, windows.WarningWindow)

	// Pending removal is warned immediately on the next evaluation.
	action, due = Evaluate(member, false, now, windows)
	if !due || action != ActionSendFirstWarning {
		t.Fatalf("expected send_first_warning, got %s (due=%v)", action, due)
	}
	member.MarkFirstWarningSent(now, "msg-warn")

	// Long before the deadline nothing further is due.
	if action, due := Evaluate(member, false, now.Add(time.Hour), windows); due {
		t.Fatalf("expected no action mid-window, got %s", action)
	}

	// Inside the final notice lead.
	nearDeadline := member.RemovalDeadline.Add(-47 * time.Hour)
	action, due = Evaluate(member, false, nearDeadline, windows)
	if !due || action != ActionSendFinalNotice {
		t.Fatalf("expected send_final_notice, got %s (due=%v)", action, due)
	}
	member.MarkFinalNoticeSent(nearDeadline, "msg-final")

	// Before the deadline the final notice holds.
	if action, due := Evaluate(member, false, member.RemovalDeadline.Add(-time.Minute), windows); due {
		t.Fatalf("expected no action before deadline, got %s", action)
	}

	// Deadline reached.
	action, due = Evaluate(member, false, *member.RemovalDeadline, windows)
	if !due || action != ActionExecuteRemoval {
		t.Fatalf("expected execute_removal at deadline, got %s (due=%v)", action, due)
	}
}

func TestEvaluateRemovalOutranksFinalNotice(t *testing.T) {
	windows := testWindows()
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	member := newMember(now.Add(-400 * time.Hour))
	member.MarkPendingRemoval(now.Add(-200*time.Hour), windows.WarningWindow)
	member.MarkFirstWarningSent(now.Add(-200*time.Hour), "msg-warn")

	// Deadline is past and no final notice ever went out; removal wins.
	action, due := Evaluate(member, false, now, windows)
	if !due || action != ActionExecuteRemoval {
		t.Fatalf("expected execute_removal past deadline, got %s (due=%v)", action, due)
	}
}

func TestEvaluateComplianceResetsEveryStage(t *testing.T) {
	windows := testWindows()
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	stages := []func(m *roster.Member){
		func(m *roster.Member) {
			m.MarkPendingRemoval(now, windows.WarningWindow)
		},
		func(m *roster.Member) {
			m.MarkPendingRemoval(now, windows.WarningWindow)
			m.MarkFirstWarningSent(now, "msg-warn")
		},
		func(m *roster.Member) {
			m.MarkPendingRemoval(now, windows.WarningWindow)
			m.MarkFirstWarningSent(now, "msg-warn")
			m.MarkFinalNoticeSent(now, "msg-final")
		},
	}
	for i, apply := range stages {
		member := newMember(now.Add(-100 * time.Hour))
		apply(member)
		action, due := Evaluate(member, true, member.RemovalDeadline.Add(time.Hour), windows)
		if !due || action != ActionResetToActive {
			t.Fatalf("stage %d: expected reset_to_active for compliant member, got %s (due=%v)", i, action, due)
		}
	}
}

func TestEvaluateCompliantActiveIsIdle(t *testing.T) {
	windows := testWindows()
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	member := newMember(now.Add(-500 * time.Hour))
	if action, due := Evaluate(member, true, now, windows); due {
		t.Fatalf("expected no action for compliant active member, got %s", action)
	}
}

func TestEvaluateRemovedIsTerminal(t *testing.T) {
	windows := testWindows()
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	member := newMember(now.Add(-500 * time.Hour))
	member.MarkPendingRemoval(now.Add(-300*time.Hour), windows.WarningWindow)
	member.MarkFirstWarningSent(now.Add(-300*time.Hour), "msg-warn")
	member.MarkRemoved(now.Add(-10*time.Hour), "")

	if action, due := Evaluate(member, false, now, windows); due {
		t.Fatalf("expected removed member to stay terminal, got %s", action)
	}
	if action, due := Evaluate(member, true, now, windows); due {
		t.Fatalf("expected compliant removed member to stay terminal, got %s", action)
	}
}

func TestEvaluateNilMember(t *testing.T) {
	if _, due := Evaluate(nil, false, time.Now(), testWindows()); due {
		t.Fatal("expected nil member to produce no action")
	}
}
