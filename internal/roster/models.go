package roster

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State represents the compliance lifecycle of a tracked member.
type State string

const (
	StateActive           State = "active"
	StatePendingRemoval   State = "pending_removal"
	StateFirstWarningSent State = "first_warning_sent"
	StateFinalNoticeSent  State = "final_notice_sent"
	StateRemoved          State = "removed"
)

var allStates = []State{
	StateActive,
	StatePendingRemoval,
	StateFirstWarningSent,
	StateFinalNoticeSent,
	StateRemoved,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// Escalating reports whether the state is one of the stages carrying a
// removal deadline.
func (s State) Escalating() bool {
	switch s {
	case StatePendingRemoval, StateFirstWarningSent, StateFinalNoticeSent:
		return true
	default:
		return false
	}
}

// Terminal reports whether the state ends the lifecycle.
func (s State) Terminal() bool {
	return s == StateRemoved
}

// Member represents one tracked individual per guild membership, persisted
// in SQLite. The row is the sole source of truth for lifecycle decisions.
type Member struct {
	UserID              string
	GuildID             string
	Status              State
	JoinedAt            time.Time
	RemovalDeadline     *time.Time
	FirstWarningSentAt  *time.Time
	FinalNoticeSentAt   *time.Time
	RemovedAt           *time.Time
	RetryCount          int
	LastNotificationRef string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks the row-level invariants before persisting.
func (m *Member) Validate() error {
	if strings.TrimSpace(m.UserID) == "" || strings.TrimSpace(m.GuildID) == "" {
		return errors.New("member requires user and guild identifiers")
	}
	if _, ok := stateSet[m.Status]; !ok {
		return fmt.Errorf("unknown member state %q", m.Status)
	}
	if m.Status.Escalating() && m.RemovalDeadline == nil {
		return fmt.Errorf("state %s requires a removal deadline", m.Status)
	}
	if !m.Status.Escalating() && m.RemovalDeadline != nil {
		return fmt.Errorf("state %s must not carry a removal deadline", m.Status)
	}
	if m.Status == StateRemoved && m.RemovedAt == nil {
		return errors.New("removed state requires removed_at")
	}
	if m.Status != StateRemoved && m.RemovedAt != nil {
		return fmt.Errorf("state %s must not carry removed_at", m.Status)
	}
	return nil
}

// MarkPendingRemoval starts escalation with a removal deadline one warning
// window out.
func (m *Member) MarkPendingRemoval(now time.Time, warningWindow time.Duration) {
	deadline := now.Add(warningWindow)
	m.Status = StatePendingRemoval
	m.RemovalDeadline = &deadline
	m.FirstWarningSentAt = nil
	m.FinalNoticeSentAt = nil
	m.RemovedAt = nil
	m.LastNotificationRef = ""
	m.RetryCount = 0
}

// MarkFirstWarningSent records a delivered first warning.
func (m *Member) MarkFirstWarningSent(now time.Time, ref string) {
	m.Status = StateFirstWarningSent
	m.FirstWarningSentAt = &now
	m.LastNotificationRef = ref
	m.RetryCount = 0
}

// MarkFinalNoticeSent records a delivered final notice.
func (m *Member) MarkFinalNoticeSent(now time.Time, ref string) {
	m.Status = StateFinalNoticeSent
	m.FinalNoticeSentAt = &now
	m.LastNotificationRef = ref
}

// MarkRemoved finishes the lifecycle. The ref is the operator-channel
// message correlating the removal, when one was posted.
func (m *Member) MarkRemoved(now time.Time, ref string) {
	m.Status = StateRemoved
	m.RemovedAt = &now
	m.RemovalDeadline = nil
	if ref != "" {
		m.LastNotificationRef = ref
	}
}

// ResetToActive clears every escalation field after compliance is achieved.
func (m *Member) ResetToActive() {
	m.Status = StateActive
	m.RemovalDeadline = nil
	m.FirstWarningSentAt = nil
	m.FinalNoticeSentAt = nil
	m.RemovedAt = nil
	m.LastNotificationRef = ""
	m.RetryCount = 0
}

// Rejoin returns a previously removed member to active with a fresh join
// time. Prior stage timestamps are not resurrected.
func (m *Member) Rejoin(now time.Time) {
	m.ResetToActive()
	m.JoinedAt = now
}

// Summary describes per-state member counts for one guild.
type Summary struct {
	Total  int
	Counts map[State]int
}

// GuildConfig holds per-guild monitoring configuration. Enabled flag,
// operator channel, and required role live in explicit columns; Settings
// carries everything else as an opaque blob.
type GuildConfig struct {
	GuildID           string
	Name              string
	Enabled           bool
	OperatorChannelID string
	RequiredRole      string
	Settings          map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Configured reports whether the guild can be processed: monitoring enabled
// with both the operator channel and the required role present.
func (g *GuildConfig) Configured() bool {
	return g.Enabled &&
		strings.TrimSpace(g.OperatorChannelID) != "" &&
		strings.TrimSpace(g.RequiredRole) != ""
}
