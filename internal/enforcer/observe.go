package enforcer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gatewarden/internal/directory"
	"gatewarden/internal/logging"
	"gatewarden/internal/notify"
	"gatewarden/internal/roster"
)

// OnMemberObserved records a member sighting in a managed guild. A brand
// new member is tracked as active and greeted; a previously removed member
// restarts their lifecycle from a fresh join time; an escalating member seen
// holding the required role is reset without waiting for the next tick.
func (m *Manager) OnMemberObserved(ctx context.Context, guild *roster.GuildConfig, observed directory.Member, now time.Time) error {
	if observed.Exempt() {
		return nil
	}

	existing, err := m.store.GetMember(ctx, guild.GuildID, observed.ID)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}

	switch {
	case existing == nil:
		member := &roster.Member{
			UserID:   observed.ID,
			GuildID:  guild.GuildID,
			Status:   roster.StateActive,
			JoinedAt: now,
		}
		if err := m.store.UpsertMember(ctx, member); err != nil {
			return fmt.Errorf("track new member: %w", err)
		}
		m.logger.Info("new member tracked",
			logging.String(logging.FieldGuildID, guild.GuildID),
			logging.String(logging.FieldUserID, observed.ID),
		)
		m.sendWelcome(ctx, guild, observed.ID)
		return nil

	case existing.Status == roster.StateRemoved:
		return m.OnMemberRejoined(ctx, guild, existing, now)

	case existing.Status.Escalating() && observed.HasRole(guild.RequiredRole):
		logger := m.logger.With(
			logging.String(logging.FieldGuildID, guild.GuildID),
			logging.String(logging.FieldUserID, observed.ID),
		)
		return m.resetToActive(ctx, guild, existing, logger)

	default:
		return nil
	}
}

// OnMemberRejoined re-admits a previously removed member with a fresh grace
// period.
func (m *Manager) OnMemberRejoined(ctx context.Context, guild *roster.GuildConfig, member *roster.Member, now time.Time) error {
	member.Rejoin(now)
	if err := m.store.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("re-admit member: %w", err)
	}
	m.logger.Info("removed member rejoined",
		logging.String(logging.FieldGuildID, guild.GuildID),
		logging.String(logging.FieldUserID, member.UserID),
	)
	m.sendWelcome(ctx, guild, member.UserID)
	return nil
}

// sendWelcome greets a member best-effort. Welcome failures never affect
// lifecycle tracking.
func (m *Manager) sendWelcome(ctx context.Context, guild *roster.GuildConfig, userID string) {
	if guild.RequiredRole == "" {
		return
	}
	msg := notify.Welcome(guild.Name, guild.RequiredRole, m.windows.GracePeriod)
	if _, err := m.conn.SendDirect(ctx, userID, msg); err != nil {
		m.logger.Debug("welcome message not delivered",
			logging.String(logging.FieldUserID, userID),
			logging.Error(err),
		)
	}
}

// SyncGuild reconciles the stored roster with the live one: untracked
// non-exempt members are imported, and removed records for members who are
// back in the guild restart their lifecycle. Join times for bulk imports
// are back-dated by a random share of the grace period so a newly enabled
// guild does not escalate its whole roster in a single tick. Returns the
// number of members tracked or restarted.
func (m *Manager) SyncGuild(ctx context.Context, guild *roster.GuildConfig, now time.Time) (int, error) {
	live, err := m.conn.ListMembers(ctx, guild.GuildID)
	if err != nil {
		return 0, fmt.Errorf("list live members: %w", err)
	}

	added := 0
	for _, observed := range live {
		if ctx.Err() != nil {
			return added, ctx.Err()
		}
		if observed.Exempt() {
			continue
		}
		existing, err := m.store.GetMember(ctx, guild.GuildID, observed.ID)
		if err != nil {
			return added, fmt.Errorf("load member: %w", err)
		}
		if existing != nil {
			// A removed record for a member who is back in the roster means
			// they rejoined while the daemon was down; restart their
			// lifecycle rather than leave a terminal row for a live member.
			if existing.Status == roster.StateRemoved {
				if err := m.OnMemberRejoined(ctx, guild, existing, now); err != nil {
					return added, err
				}
				added++
			}
			continue
		}

		member := &roster.Member{
			UserID:   observed.ID,
			GuildID:  guild.GuildID,
			Status:   roster.StateActive,
			JoinedAt: m.syncJoinTime(observed, now),
		}
		if err := m.store.UpsertMember(ctx, member); err != nil {
			return added, fmt.Errorf("track synced member: %w", err)
		}
		added++
	}

	m.logger.Info("guild sync complete",
		logging.String(logging.FieldGuildID, guild.GuildID),
		logging.Int("new_members", added),
	)
	return added, nil
}

// syncJoinTime picks the tracked join time for a bulk-imported member. A
// platform join time inside the grace window is kept as-is; anything older
// or missing is spread across the window.
func (m *Manager) syncJoinTime(observed directory.Member, now time.Time) time.Time {
	grace := m.windows.GracePeriod
	if !observed.JoinedAt.IsZero() && now.Sub(observed.JoinedAt) < grace {
		return observed.JoinedAt
	}
	if grace <= 0 {
		return now
	}
	return now.Add(-time.Duration(rand.Int63n(int64(grace))))
}

// ForceReset returns a member to active regardless of stage. It backs the
// operator-facing reset command.
func (m *Manager) ForceReset(ctx context.Context, guildID, userID string) error {
	member, err := m.store.GetMember(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if member == nil {
		return fmt.Errorf("member %s not tracked in guild %s", userID, guildID)
	}
	member.ResetToActive()
	if err := m.store.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("persist reset: %w", err)
	}
	m.logger.Info("member reset by operator",
		logging.String(logging.FieldGuildID, guildID),
		logging.String(logging.FieldUserID, userID),
	)
	return nil
}

// MemberStatus returns the tracked record for one member, or nil when the
// member is unknown.
func (m *Manager) MemberStatus(ctx context.Context, guildID, userID string) (*roster.Member, error) {
	return m.store.GetMember(ctx, guildID, userID)
}

// GuildSummary returns per-state member counts for one guild.
func (m *Manager) GuildSummary(ctx context.Context, guildID string) (roster.Summary, error) {
	return m.store.CountsByStatus(ctx, guildID)
}
