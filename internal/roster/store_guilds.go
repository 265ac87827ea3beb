package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const guildColumns = "guild_id, name, enabled, operator_channel_id, required_role, settings, created_at, updated_at"

// EnsureGuild creates a guild record when absent, leaving existing
// configuration untouched.
func (s *Store) EnsureGuild(ctx context.Context, guildID, name string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO guilds (guild_id, name, enabled, settings, created_at, updated_at)
         VALUES (?, ?, 0, '{}', ?, ?)
         ON CONFLICT (guild_id) DO UPDATE SET
             name = CASE WHEN excluded.name != '' THEN excluded.name ELSE guilds.name END,
             updated_at = excluded.updated_at`,
		guildID,
		name,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("ensure guild: %w", err)
	}
	return nil
}

// GetGuild fetches a guild configuration, returning nil when absent.
func (s *Store) GetGuild(ctx context.Context, guildID string) (*GuildConfig, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+guildColumns+` FROM guilds WHERE guild_id = ?`, guildID)
	guild, err := scanGuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guild: %w", err)
	}
	return guild, nil
}

// Guilds returns every known guild configuration ordered by identifier.
func (s *Store) Guilds(ctx context.Context) ([]*GuildConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+guildColumns+` FROM guilds ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*GuildConfig
	for rows.Next() {
		guild, err := scanGuild(rows)
		if err != nil {
			return nil, err
		}
		guilds = append(guilds, guild)
	}
	return guilds, rows.Err()
}

// EnableGuild turns monitoring on and records the operator channel and
// required role in one statement.
func (s *Store) EnableGuild(ctx context.Context, guildID, operatorChannelID, requiredRole string) error {
	if operatorChannelID == "" || requiredRole == "" {
		return errors.New("enabling a guild requires operator channel and required role")
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE guilds
         SET enabled = 1, operator_channel_id = ?, required_role = ?, updated_at = ?
         WHERE guild_id = ?`,
		operatorChannelID,
		requiredRole,
		time.Now().UTC().Format(time.RFC3339Nano),
		guildID,
	)
	if err != nil {
		return fmt.Errorf("enable guild: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("guild %s is not registered", guildID)
	}
	return nil
}

// DisableGuild turns monitoring off without discarding configuration.
func (s *Store) DisableGuild(ctx context.Context, guildID string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE guilds SET enabled = 0, updated_at = ? WHERE guild_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		guildID,
	)
	if err != nil {
		return fmt.Errorf("disable guild: %w", err)
	}
	return nil
}

// SetGuildSetting stores one key in the guild's opaque settings blob.
func (s *Store) SetGuildSetting(ctx context.Context, guildID, key string, value any) error {
	guild, err := s.GetGuild(ctx, guildID)
	if err != nil {
		return err
	}
	if guild == nil {
		return fmt.Errorf("guild %s is not registered", guildID)
	}
	if guild.Settings == nil {
		guild.Settings = make(map[string]any)
	}
	guild.Settings[key] = value

	blob, err := json.Marshal(guild.Settings)
	if err != nil {
		return fmt.Errorf("encode guild settings: %w", err)
	}
	_, err = s.execWithRetry(
		ctx,
		`UPDATE guilds SET settings = ?, updated_at = ? WHERE guild_id = ?`,
		string(blob),
		time.Now().UTC().Format(time.RFC3339Nano),
		guildID,
	)
	if err != nil {
		return fmt.Errorf("update guild settings: %w", err)
	}
	return nil
}

func scanGuild(scanner interface{ Scan(dest ...any) error }) (*GuildConfig, error) {
	var (
		guildID    string
		name       sql.NullString
		enabled    int
		channelID  sql.NullString
		role       sql.NullString
		settings   sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(&guildID, &name, &enabled, &channelID, &role, &settings, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	guild := &GuildConfig{
		GuildID:           guildID,
		Name:              name.String,
		Enabled:           enabled != 0,
		OperatorChannelID: channelID.String,
		RequiredRole:      role.String,
	}
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &guild.Settings); err != nil {
			return nil, fmt.Errorf("decode guild settings: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		guild.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		guild.UpdatedAt = updated
	}
	return guild, nil
}
