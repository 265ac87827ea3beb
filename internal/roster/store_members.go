package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const memberColumns = "user_id, guild_id, status, joined_at, removal_deadline, first_warning_sent_at, final_notice_sent_at, removed_at, retry_count, last_notification_ref, created_at, updated_at"

// GetMember fetches a tracked member by identity, returning nil when absent.
func (s *Store) GetMember(ctx context.Context, guildID, userID string) (*Member, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+memberColumns+` FROM members WHERE guild_id = ? AND user_id = ?`,
		guildID, userID,
	)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

// UpsertMember persists a member row as one statement, so concurrent readers
// never observe a partially applied transition.
func (s *Store) UpsertMember(ctx context.Context, member *Member) error {
	if member == nil {
		return errors.New("member is nil")
	}
	if err := member.Validate(); err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}

	now := time.Now().UTC()
	member.UpdatedAt = now
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO members (
            user_id, guild_id, status, joined_at, removal_deadline,
            first_warning_sent_at, final_notice_sent_at, removed_at,
            retry_count, last_notification_ref, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id, guild_id) DO UPDATE SET
            status = excluded.status,
            joined_at = excluded.joined_at,
            removal_deadline = excluded.removal_deadline,
            first_warning_sent_at = excluded.first_warning_sent_at,
            final_notice_sent_at = excluded.final_notice_sent_at,
            removed_at = excluded.removed_at,
            retry_count = excluded.retry_count,
            last_notification_ref = excluded.last_notification_ref,
            updated_at = excluded.updated_at`,
		member.UserID,
		member.GuildID,
		member.Status,
		member.JoinedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(member.RemovalDeadline),
		nullableTime(member.FirstWarningSentAt),
		nullableTime(member.FinalNoticeSentAt),
		nullableTime(member.RemovedAt),
		member.RetryCount,
		nullableString(member.LastNotificationRef),
		member.CreatedAt.UTC().Format(time.RFC3339Nano),
		member.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

// MembersByGuild returns members in a guild filtered by state set (or all
// members when no state is provided), ordered by join time.
func (s *Store) MembersByGuild(ctx context.Context, guildID string, states ...State) ([]*Member, error) {
	baseQuery := `SELECT ` + memberColumns + ` FROM members WHERE guild_id = ?`
	orderClause := ` ORDER BY joined_at, user_id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(states) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause, guildID)
	} else {
		placeholders := makePlaceholders(len(states))
		args := make([]any, 0, len(states)+1)
		args = append(args, guildID)
		for _, state := range states {
			args = append(args, state)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` AND status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// DeleteMember removes a member row, reporting whether one existed.
func (s *Store) DeleteMember(ctx context.Context, guildID, userID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM members WHERE guild_id = ? AND user_id = ?`, guildID, userID)
	if err != nil {
		return false, fmt.Errorf("delete member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountsByStatus returns per-state member counts for one guild.
func (s *Store) CountsByStatus(ctx context.Context, guildID string) (Summary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(1) FROM members WHERE guild_id = ? GROUP BY status`,
		guildID,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("member counts: %w", err)
	}
	defer rows.Close()

	summary := Summary{Counts: make(map[State]int, len(allStates))}
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return Summary{}, err
		}
		summary.Counts[state] = count
		summary.Total += count
	}
	return summary, rows.Err()
}

func scanMember(scanner interface{ Scan(dest ...any) error }) (*Member, error) {
	var (
		userID          string
		guildID         string
		statusStr       string
		joinedRaw       string
		deadlineRaw     sql.NullString
		firstWarningRaw sql.NullString
		finalNoticeRaw  sql.NullString
		removedRaw      sql.NullString
		retryCount      int
		notificationRef sql.NullString
		createdRaw      string
		updatedRaw      string
	)

	if err := scanner.Scan(
		&userID,
		&guildID,
		&statusStr,
		&joinedRaw,
		&deadlineRaw,
		&firstWarningRaw,
		&finalNoticeRaw,
		&removedRaw,
		&retryCount,
		&notificationRef,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	member := &Member{
		UserID:              userID,
		GuildID:             guildID,
		Status:              State(statusStr),
		RemovalDeadline:     parseNullableTime(deadlineRaw),
		FirstWarningSentAt:  parseNullableTime(firstWarningRaw),
		FinalNoticeSentAt:   parseNullableTime(finalNoticeRaw),
		RemovedAt:           parseNullableTime(removedRaw),
		RetryCount:          retryCount,
		LastNotificationRef: notificationRef.String,
	}
	if joined, err := parseTimeString(joinedRaw); err == nil {
		member.JoinedAt = joined
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		member.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		member.UpdatedAt = updated
	}
	return member, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
