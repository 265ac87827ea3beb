package directory

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Member is a live view of a guild member as reported by the chat platform.
type Member struct {
	ID       string
	Username string
	Bot      bool
	Admin    bool
	Roles    []string
	JoinedAt time.Time
}

var roleFolder = cases.Fold()

// HasRole reports whether the member carries the named role. Role names are
// compared case-insensitively under Unicode case folding because guild
// operators routinely rename roles without adjusting the stored config.
func (m Member) HasRole(name string) bool {
	want := roleFolder.String(strings.TrimSpace(name))
	if want == "" {
		return false
	}
	for _, role := range m.Roles {
		if roleFolder.String(strings.TrimSpace(role)) == want {
			return true
		}
	}
	return false
}

// Exempt reports whether the member is outside enforcement scope.
func (m Member) Exempt() bool {
	return m.Bot || m.Admin
}

// Guild identifies a guild the bot is connected to.
type Guild struct {
	ID   string
	Name string
}

// Directory exposes live membership lookups against the chat platform.
type Directory interface {
	// ListGuilds returns every guild the bot belongs to.
	ListGuilds(ctx context.Context) ([]Guild, error)
	// ListMembers returns the full member roster of a guild.
	ListMembers(ctx context.Context, guildID string) ([]Member, error)
	// GetMember returns the member, or nil when they have left the guild.
	GetMember(ctx context.Context, guildID, userID string) (*Member, error)
}
