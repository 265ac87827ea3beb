package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatewarden/internal/directory"
	"gatewarden/internal/lifecycle"
	"gatewarden/internal/logging"
	"gatewarden/internal/roster"
)

// tickStats aggregates per-tick outcomes for the summary log line.
type tickStats struct {
	evaluated int
	executed  int
	failed    int
	skipped   int
}

// Tick runs one reconciliation pass over every enabled guild at the given
// instant. When a previous tick is still in flight the call returns
// immediately; the scheduler never stacks passes.
func (m *Manager) Tick(ctx context.Context, now time.Time) error {
	if !m.tickMu.TryLock() {
		m.logger.Debug("tick skipped, previous pass still running")
		return nil
	}
	defer m.tickMu.Unlock()

	guilds, err := m.store.Guilds(ctx)
	if err != nil {
		return fmt.Errorf("load guild configs: %w", err)
	}

	stats := tickStats{}
	for _, guild := range guilds {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !guild.Enabled || !guild.Configured() {
			continue
		}
		if err := m.tickGuild(ctx, guild, now, &stats); err != nil {
			m.logger.Error("guild pass failed",
				logging.String(logging.FieldGuildID, guild.GuildID),
				logging.Error(err),
			)
		}
	}

	m.logger.Info("enforcement tick complete",
		logging.Int("evaluated", stats.evaluated),
		logging.Int("executed", stats.executed),
		logging.Int("failed", stats.failed),
		logging.Int("skipped", stats.skipped),
	)
	return nil
}

func (m *Manager) tickGuild(ctx context.Context, guild *roster.GuildConfig, now time.Time, stats *tickStats) error {
	live, err := m.conn.ListMembers(ctx, guild.GuildID)
	if err != nil {
		return fmt.Errorf("list live members: %w", err)
	}
	byID := make(map[string]directory.Member, len(live))
	for _, member := range live {
		byID[member.ID] = member
	}

	tracked, err := m.store.MembersByGuild(ctx, guild.GuildID,
		roster.StateActive,
		roster.StatePendingRemoval,
		roster.StateFirstWarningSent,
		roster.StateFinalNoticeSent,
	)
	if err != nil {
		return fmt.Errorf("load tracked members: %w", err)
	}

	trackedIDs := make(map[string]struct{}, len(tracked))
	for _, member := range tracked {
		trackedIDs[member.UserID] = struct{}{}
	}

	for _, member := range tracked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.evaluated++

		present, ok := byID[member.UserID]
		if !ok {
			// Member left on their own; keep the record so a rejoin
			// resumes from a known state.
			stats.skipped++
			continue
		}

		// Bots and administrators are outside enforcement scope, but a
		// tracked member who was promoted mid-escalation still gets the
		// compliance reset rather than a stale deadline.
		compliant := present.Exempt() || present.HasRole(guild.RequiredRole)

		action, due := lifecycle.Evaluate(member, compliant, now, m.windows)
		if !due {
			continue
		}
		if err := m.execute(ctx, guild, member, action, now); err != nil {
			stats.failed++
			m.logger.Error("enforcement action failed",
				logging.String(logging.FieldGuildID, guild.GuildID),
				logging.String(logging.FieldUserID, member.UserID),
				logging.String(logging.FieldAction, string(action)),
				logging.Error(err),
			)
			continue
		}
		stats.executed++

		// The scheduler owns inter-action pacing so the platform's rate
		// limits bound the whole tick, not each executor's internals.
		m.pause(ctx, m.actionPause(action))
	}

	// Live members with no live-state record joined (or rejoined) since the
	// last pass; fold them into tracking so a kicked member who comes back
	// is reset before the sweeper can purge their terminal row.
	for _, observed := range live {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if observed.Exempt() {
			continue
		}
		if _, ok := trackedIDs[observed.ID]; ok {
			continue
		}
		if err := m.OnMemberObserved(ctx, guild, observed, now); err != nil {
			m.logger.Error("member intake failed",
				logging.String(logging.FieldGuildID, guild.GuildID),
				logging.String(logging.FieldUserID, observed.ID),
				logging.Error(err),
			)
		}
	}
	return nil
}

// actionPause scales the inter-action pause with severity.
func (m *Manager) actionPause(action lifecycle.Action) time.Duration {
	switch action {
	case lifecycle.ActionExecuteRemoval:
		return m.cfg.RemovalPause()
	case lifecycle.ActionSendFirstWarning, lifecycle.ActionSendFinalNotice:
		return m.cfg.NotifyPause()
	default:
		return 0
	}
}

// actionLogger builds the per-action logger carrying a fresh request id so a
// single executed transition can be traced across log lines.
func (m *Manager) actionLogger(guild *roster.GuildConfig, member *roster.Member, action lifecycle.Action) *slog.Logger {
	return m.logger.With(
		logging.String(logging.FieldRequestID, uuid.NewString()),
		logging.String(logging.FieldGuildID, guild.GuildID),
		logging.String(logging.FieldUserID, member.UserID),
		logging.String(logging.FieldAction, string(action)),
	)
}

func (m *Manager) execute(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, action lifecycle.Action, now time.Time) error {
	logger := m.actionLogger(guild, member, action)

	// Re-read the row so a transition committed by a concurrent CLI call
	// (or replayed after a crash) is never applied twice.
	fresh, err := m.store.GetMember(ctx, guild.GuildID, member.UserID)
	if err != nil {
		return fmt.Errorf("reload member: %w", err)
	}
	if fresh == nil || fresh.Status != member.Status {
		logger.Info("member state changed since evaluation, skipping")
		return nil
	}

	switch action {
	case lifecycle.ActionMarkPendingRemoval:
		return m.markPendingRemoval(ctx, guild, fresh, now, logger)
	case lifecycle.ActionSendFirstWarning:
		return m.sendFirstWarning(ctx, guild, fresh, now, logger)
	case lifecycle.ActionSendFinalNotice:
		return m.sendFinalNotice(ctx, guild, fresh, now, logger)
	case lifecycle.ActionExecuteRemoval:
		return m.executeRemoval(ctx, guild, fresh, now, false, logger)
	case lifecycle.ActionResetToActive:
		return m.resetToActive(ctx, guild, fresh, logger)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}
