package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gatewarden/internal/logging"
	"gatewarden/internal/notify"
	"gatewarden/internal/roster"
)

const removalReason = "Required role not picked up within the enforcement window"

// persist commits a member row through a context that survives shutdown.
// Once an external side effect has happened, the matching state write must
// land even if the tick was cancelled mid-flight.
func (m *Manager) persist(ctx context.Context, member *roster.Member) error {
	return m.store.UpsertMember(context.WithoutCancel(ctx), member)
}

// postOperator delivers a status message to the guild's operator channel.
// Failures are logged and swallowed: operator visibility never blocks or
// rolls back a committed transition.
func (m *Manager) postOperator(ctx context.Context, guild *roster.GuildConfig, msg notify.Message, logger *slog.Logger) {
	if guild.OperatorChannelID == "" {
		return
	}
	if _, err := m.conn.PostToChannel(ctx, guild.OperatorChannelID, msg); err != nil {
		logger.Warn("operator channel post failed", logging.Error(err))
	}
}

func (m *Manager) markPendingRemoval(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, now time.Time, logger *slog.Logger) error {
	joined := member.JoinedAt
	member.MarkPendingRemoval(now, m.windows.WarningWindow)
	if err := m.store.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("persist pending removal: %w", err)
	}
	logger.Info("member marked for removal",
		logging.Time("removal_deadline", *member.RemovalDeadline),
	)
	m.postOperator(ctx, guild, notify.OperatorMarked(member.UserID, guild.RequiredRole, joined, now), logger)
	return nil
}

func (m *Manager) sendFirstWarning(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, now time.Time, logger *slog.Logger) error {
	msg := notify.FirstWarning(guild.Name, guild.RequiredRole, *member.RemovalDeadline, now)
	ref, err := m.conn.SendDirect(ctx, member.UserID, msg)
	switch {
	case err == nil:
		member.MarkFirstWarningSent(now, ref)
		if err := m.persist(ctx, member); err != nil {
			return fmt.Errorf("persist first warning: %w", err)
		}
		logger.Info("first warning sent", logging.String("message_ref", ref))
		m.postOperator(ctx, guild, notify.OperatorWarned(member.UserID, *member.RemovalDeadline), logger)
		return nil

	case notify.IsRecipientUnreachable(err):
		member.RetryCount++
		if member.RetryCount >= m.cfg.Enforcement.WarningRetryLimit {
			logger.Warn("warning undeliverable, retry limit reached, forcing removal",
				logging.Int("retry_count", member.RetryCount),
			)
			return m.executeRemoval(ctx, guild, member, now, true, logger)
		}
		if err := m.persist(ctx, member); err != nil {
			return fmt.Errorf("persist warning retry count: %w", err)
		}
		logger.Warn("warning undeliverable, will retry next tick",
			logging.Int("retry_count", member.RetryCount),
		)
		m.postOperator(ctx, guild, notify.OperatorWarningFailed(member.UserID, member.RetryCount, m.cfg.Enforcement.WarningRetryLimit), logger)
		return nil

	case notify.IsTransient(err):
		logger.Warn("warning delivery deferred", logging.Error(err))
		return nil

	default:
		return fmt.Errorf("send first warning: %w", err)
	}
}

func (m *Manager) sendFinalNotice(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, now time.Time, logger *slog.Logger) error {
	msg := notify.FinalNotice(guild.Name, guild.RequiredRole, *member.RemovalDeadline, now)
	ref, err := m.conn.SendDirect(ctx, member.UserID, msg)
	if err != nil {
		// The removal deadline matures regardless, so an undeliverable
		// final notice is recorded and nothing more.
		logger.Warn("final notice delivery failed", logging.Error(err))
		if notify.IsRecipientUnreachable(err) || notify.IsTransient(err) {
			return nil
		}
		return fmt.Errorf("send final notice: %w", err)
	}

	member.MarkFinalNoticeSent(now, ref)
	if err := m.persist(ctx, member); err != nil {
		return fmt.Errorf("persist final notice: %w", err)
	}
	logger.Info("final notice sent", logging.String("message_ref", ref))
	m.postOperator(ctx, guild, notify.OperatorFinalNotice(member.UserID, *member.RemovalDeadline), logger)
	return nil
}

// executeRemoval kicks the member and commits the terminal state. forced
// marks removals triggered by the warning retry limit. The kick happens
// before the commit; a crash between the two replays as a kick of an
// already-absent member, which the transport treats as success.
func (m *Manager) executeRemoval(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, now time.Time, forced bool, logger *slog.Logger) error {
	if err := m.conn.RemoveMember(ctx, guild.GuildID, member.UserID, removalReason); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	member.MarkRemoved(now, "")
	if err := m.persist(ctx, member); err != nil {
		return fmt.Errorf("persist removal: %w", err)
	}

	logger.Info("member removed", logging.Bool("forced", forced))
	msg := notify.OperatorRemoved(member.UserID, forced)
	if ref, err := m.conn.PostToChannel(ctx, guild.OperatorChannelID, msg); err != nil {
		logger.Warn("operator channel post failed", logging.Error(err))
	} else if ref != "" {
		member.LastNotificationRef = ref
		if err := m.persist(ctx, member); err != nil {
			logger.Warn("persist removal notice ref failed", logging.Error(err))
		}
	}
	return nil
}

func (m *Manager) resetToActive(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, logger *slog.Logger) error {
	member.ResetToActive()
	if err := m.store.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("persist compliance reset: %w", err)
	}
	logger.Info("member verified, escalation cancelled")
	m.postOperator(ctx, guild, notify.OperatorReset(member.UserID), logger)
	return nil
}
