package chat

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"gatewarden/internal/directory"
)

// Permission bit granting full administrator access.
const permissionAdministrator = 1 << 3

const memberPageSize = 1000

type guildResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type roleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

type memberResponse struct {
	User     userResponse `json:"user"`
	Roles    []string     `json:"roles"`
	JoinedAt time.Time    `json:"joined_at"`
}

// ListGuilds returns every guild the bot account belongs to.
func (c *Client) ListGuilds(ctx context.Context) ([]directory.Guild, error) {
	var raw []guildResponse
	if err := c.do(ctx, "GET", "/users/@me/guilds", nil, &raw); err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	guilds := make([]directory.Guild, 0, len(raw))
	for _, g := range raw {
		guilds = append(guilds, directory.Guild{ID: g.ID, Name: g.Name})
	}
	return guilds, nil
}

// guildRoles returns the guild's role table keyed by role id.
func (c *Client) guildRoles(ctx context.Context, guildID string) (map[string]roleResponse, error) {
	path := fmt.Sprintf("/guilds/%s/roles", url.PathEscape(guildID))
	var raw []roleResponse
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := make(map[string]roleResponse, len(raw))
	for _, r := range raw {
		roles[r.ID] = r
	}
	return roles, nil
}

// ListMembers pages through the full guild roster, resolving role ids to
// names and deriving admin status from role permissions.
func (c *Client) ListMembers(ctx context.Context, guildID string) ([]directory.Member, error) {
	roles, err := c.guildRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var members []directory.Member
	after := ""
	for {
		path := fmt.Sprintf("/guilds/%s/members?limit=%d", url.PathEscape(guildID), memberPageSize)
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}
		var page []memberResponse
		if err := c.do(ctx, "GET", path, nil, &page); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range page {
			members = append(members, resolveMember(m, roles))
		}
		if len(page) < memberPageSize {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// GetMember returns the member, or nil when they are no longer in the guild.
func (c *Client) GetMember(ctx context.Context, guildID, userID string) (*directory.Member, error) {
	roles, err := c.guildRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(guildID), url.PathEscape(userID))
	var raw memberResponse
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	member := resolveMember(raw, roles)
	return &member, nil
}

// RemoveMember kicks the user from the guild. A missing member counts as
// success so replayed removals stay idempotent.
func (c *Client) RemoveMember(ctx context.Context, guildID, userID, reason string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(guildID), url.PathEscape(userID))
	req, err := c.newAuditRequest(ctx, "DELETE", path, reason)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return transientError("remove member", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil
	}
	if resp.StatusCode >= 300 {
		return classifyStatus("remove member", resp)
	}
	return nil
}

func resolveMember(raw memberResponse, roles map[string]roleResponse) directory.Member {
	member := directory.Member{
		ID:       raw.User.ID,
		Username: raw.User.Username,
		Bot:      raw.User.Bot,
		JoinedAt: raw.JoinedAt,
	}
	for _, id := range raw.Roles {
		role, ok := roles[id]
		if !ok {
			continue
		}
		member.Roles = append(member.Roles, role.Name)
		if perms, err := strconv.ParseUint(role.Permissions, 10, 64); err == nil && perms&permissionAdministrator != 0 {
			member.Admin = true
		}
	}
	return member
}
