package enforcer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gatewarden/internal/directory"
	"gatewarden/internal/funfacts"
	"gatewarden/internal/logging"
	"gatewarden/internal/notify"
	"gatewarden/internal/roster"
	"gatewarden/internal/testsupport"
)

type sentMessage struct {
	Target string
	Body   string
}

type fakeConnector struct {
	mu        sync.Mutex
	members   map[string][]directory.Member
	directErr error
	direct    []sentMessage
	posts     []sentMessage
	kicked    []string
	kickErr   error
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{members: make(map[string][]directory.Member)}
}

func (f *fakeConnector) setMembers(guildID string, members ...directory.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[guildID] = members
}

func (f *fakeConnector) ListGuilds(context.Context) ([]directory.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	guilds := make([]directory.Guild, 0, len(f.members))
	for id := range f.members {
		guilds = append(guilds, directory.Guild{ID: id, Name: "Guild " + id})
	}
	return guilds, nil
}

func (f *fakeConnector) ListMembers(_ context.Context, guildID string) ([]directory.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]directory.Member(nil), f.members[guildID]...), nil
}

func (f *fakeConnector) GetMember(_ context.Context, guildID, userID string) (*directory.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[guildID] {
		if m.ID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeConnector) SendDirect(_ context.Context, userID string, msg notify.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.directErr != nil {
		return "", f.directErr
	}
	f.direct = append(f.direct, sentMessage{Target: userID, Body: msg.Body})
	return fmt.Sprintf("dm-%d", len(f.direct)), nil
}

func (f *fakeConnector) PostToChannel(_ context.Context, channelID string, msg notify.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, sentMessage{Target: channelID, Body: msg.Body})
	return fmt.Sprintf("post-%d", len(f.posts)), nil
}

func (f *fakeConnector) RemoveMember(_ context.Context, guildID, userID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kickErr != nil {
		return f.kickErr
	}
	f.kicked = append(f.kicked, guildID+"/"+userID)
	return nil
}

func (f *fakeConnector) directCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.direct)
}

func (f *fakeConnector) kickedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.kicked)
}

func (f *fakeConnector) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeConnector) lastPost() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		return sentMessage{}
	}
	return f.posts[len(f.posts)-1]
}

type harness struct {
	manager *Manager
	store   *roster.Store
	conn    *fakeConnector
	guild   *roster.GuildConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithoutPacing())
	store := testsupport.MustOpenStore(t, cfg)
	conn := newFakeConnector()

	ctx := context.Background()
	if err := store.EnsureGuild(ctx, "g1", "Test Guild"); err != nil {
		t.Fatalf("EnsureGuild: %v", err)
	}
	if err := store.EnableGuild(ctx, "g1", "op-chan", "Verified"); err != nil {
		t.Fatalf("EnableGuild: %v", err)
	}
	guild, err := store.GetGuild(ctx, "g1")
	if err != nil || guild == nil {
		t.Fatalf("GetGuild: %v", err)
	}

	manager := NewManager(cfg, store, conn, logging.NewNop())
	return &harness{manager: manager, store: store, conn: conn, guild: guild}
}

func (h *harness) mustGetMember(t *testing.T, userID string) *roster.Member {
	t.Helper()
	member, err := h.store.GetMember(context.Background(), "g1", userID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if member == nil {
		t.Fatalf("member %s not tracked", userID)
	}
	return member
}

func (h *harness) track(t *testing.T, userID string, joined time.Time) {
	t.Helper()
	member := &roster.Member{
		UserID:   userID,
		GuildID:  "g1",
		Status:   roster.StateActive,
		JoinedAt: joined,
	}
	if err := h.store.UpsertMember(context.Background(), member); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}
}

func liveMember(id string, roles ...string) directory.Member {
	return directory.Member{ID: id, Username: "user-" + id, Roles: roles}
}

func (h *harness) tick(t *testing.T, now time.Time) {
	t.Helper()
	if err := h.manager.Tick(context.Background(), now); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func TestTickGracePeriodScenario(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))

	// One second past the grace period.
	first := joined.Add(72*time.Hour + time.Second)
	h.tick(t, first)

	member := h.mustGetMember(t, "42")
	if member.Status != roster.StatePendingRemoval {
		t.Fatalf("expected pending_removal, got %s", member.Status)
	}
	wantDeadline := first.Add(168 * time.Hour)
	if member.RemovalDeadline == nil || !member.RemovalDeadline.Equal(wantDeadline) {
		t.Fatalf("expected deadline %v, got %v", wantDeadline, member.RemovalDeadline)
	}

	// The very next tick delivers the warning.
	second := first.Add(5 * time.Minute)
	h.tick(t, second)

	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateFirstWarningSent {
		t.Fatalf("expected first_warning_sent, got %s", member.Status)
	}
	if member.FirstWarningSentAt == nil || !member.FirstWarningSentAt.Equal(second) {
		t.Fatalf("expected warning timestamp %v, got %v", second, member.FirstWarningSentAt)
	}
	if member.RetryCount != 0 {
		t.Fatalf("expected retry count reset, got %d", member.RetryCount)
	}
	if h.conn.directCount() != 1 {
		t.Fatalf("expected one direct message, got %d", h.conn.directCount())
	}
	// Deadline is untouched by the warning.
	if member.RemovalDeadline == nil || !member.RemovalDeadline.Equal(wantDeadline) {
		t.Fatalf("warning moved the deadline to %v", member.RemovalDeadline)
	}
}

func TestTickIdempotentFromStableState(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))

	marked := joined.Add(73 * time.Hour)
	h.tick(t, marked)
	h.tick(t, marked.Add(time.Minute))

	before := h.mustGetMember(t, "42")
	sends := h.conn.directCount()

	// Far from the deadline nothing further is due; repeated ticks at the
	// same instant change nothing.
	now := marked.Add(2 * time.Hour)
	h.tick(t, now)
	h.tick(t, now)

	after := h.mustGetMember(t, "42")
	if after.Status != before.Status || after.RetryCount != before.RetryCount {
		t.Fatalf("stable state changed: %s -> %s", before.Status, after.Status)
	}
	if h.conn.directCount() != sends {
		t.Fatalf("idempotent ticks sent %d extra messages", h.conn.directCount()-sends)
	}
}

func TestWarningRetryLimitForcesRemoval(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))
	h.conn.directErr = notify.NewDeliveryError(notify.KindRecipientUnreachable, "send direct", errors.New("closed dms"))

	now := joined.Add(73 * time.Hour)
	h.tick(t, now) // marks pending

	postsAfterMark := h.conn.postCount()

	// Two undeliverable attempts accumulate retries without escalating,
	// each surfacing a failure summary in the operator channel.
	for i := 1; i <= 2; i++ {
		now = now.Add(5 * time.Minute)
		h.tick(t, now)
		member := h.mustGetMember(t, "42")
		if member.Status != roster.StatePendingRemoval {
			t.Fatalf("attempt %d: expected pending_removal, got %s", i, member.Status)
		}
		if member.RetryCount != i {
			t.Fatalf("attempt %d: expected retry count %d, got %d", i, i, member.RetryCount)
		}
		if got := h.conn.postCount(); got != postsAfterMark+i {
			t.Fatalf("attempt %d: expected %d operator posts, got %d", i, postsAfterMark+i, got)
		}
		want := fmt.Sprintf("Could not deliver warning to <@42> (attempt %d of 3): direct messages are closed.", i)
		if post := h.conn.lastPost(); post.Body != want {
			t.Fatalf("attempt %d: unexpected operator post %q", i, post.Body)
		}
	}

	// Third consecutive failure forces removal without a final notice.
	now = now.Add(5 * time.Minute)
	h.tick(t, now)

	member := h.mustGetMember(t, "42")
	if member.Status != roster.StateRemoved {
		t.Fatalf("expected removed after retry limit, got %s", member.Status)
	}
	if member.FinalNoticeSentAt != nil {
		t.Fatal("forced removal must not record a final notice")
	}
	if h.conn.kickedCount() != 1 {
		t.Fatalf("expected one kick, got %d", h.conn.kickedCount())
	}
	if post := h.conn.lastPost(); post.Body != "Removed user <@42>: warnings could not be delivered." {
		t.Fatalf("unexpected operator post %q", post.Body)
	}
}

func TestTransientWarningFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))

	now := joined.Add(73 * time.Hour)
	h.tick(t, now)

	h.conn.directErr = notify.NewDeliveryError(notify.KindTransient, "send direct", errors.New("rate limited"))
	h.tick(t, now.Add(5*time.Minute))

	member := h.mustGetMember(t, "42")
	if member.Status != roster.StatePendingRemoval {
		t.Fatalf("expected pending_removal to persist, got %s", member.Status)
	}
	if member.RetryCount != 0 {
		t.Fatalf("transient failure must not count toward the retry limit, got %d", member.RetryCount)
	}

	// Delivery recovers on a later tick.
	h.conn.directErr = nil
	h.tick(t, now.Add(10*time.Minute))
	if member = h.mustGetMember(t, "42"); member.Status != roster.StateFirstWarningSent {
		t.Fatalf("expected warning after recovery, got %s", member.Status)
	}
}

func TestFinalNoticeAndRemovalAtDeadline(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))

	now := joined.Add(73 * time.Hour)
	h.tick(t, now)
	h.tick(t, now.Add(5*time.Minute))

	member := h.mustGetMember(t, "42")
	deadline := *member.RemovalDeadline

	// Inside the final-notice lead.
	h.tick(t, deadline.Add(-47*time.Hour))
	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateFinalNoticeSent {
		t.Fatalf("expected final_notice_sent, got %s", member.Status)
	}

	// Past the deadline.
	h.tick(t, deadline.Add(time.Minute))
	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateRemoved {
		t.Fatalf("expected removed, got %s", member.Status)
	}
	if member.RemovalDeadline != nil {
		t.Fatal("removed member must not keep a deadline")
	}
	if h.conn.kickedCount() != 1 {
		t.Fatalf("expected one kick, got %d", h.conn.kickedCount())
	}
}

func TestComplianceResetsFinalNotice(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))

	now := joined.Add(73 * time.Hour)
	h.tick(t, now)
	h.tick(t, now.Add(5*time.Minute))
	member := h.mustGetMember(t, "42")
	deadline := *member.RemovalDeadline
	h.tick(t, deadline.Add(-47*time.Hour))

	// The member verifies with an hour to spare.
	h.conn.setMembers("g1", liveMember("42", "Verified"))
	h.tick(t, deadline.Add(-time.Hour))

	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("expected active after compliance, got %s", member.Status)
	}
	if member.RemovalDeadline != nil || member.FirstWarningSentAt != nil || member.FinalNoticeSentAt != nil || member.RetryCount != 0 {
		t.Fatalf("reset left residue: %+v", member)
	}
	if h.conn.kickedCount() != 0 {
		t.Fatal("compliant member must never be kicked")
	}
}

func TestDepartedMemberIsLeftAlone(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1") // nobody live

	h.tick(t, joined.Add(200*time.Hour))

	member := h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("departed member must keep their state, got %s", member.Status)
	}
}

func TestPromotedMemberGetsReset(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))

	now := joined.Add(73 * time.Hour)
	h.tick(t, now)

	// Promoted to admin mid-escalation.
	admin := liveMember("42")
	admin.Admin = true
	h.conn.setMembers("g1", admin)
	h.tick(t, now.Add(5*time.Minute))

	member := h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("expected promoted member reset to active, got %s", member.Status)
	}
}

func TestDisabledGuildIsSkipped(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	h.conn.setMembers("g1", liveMember("42"))
	if err := h.store.DisableGuild(context.Background(), "g1"); err != nil {
		t.Fatalf("DisableGuild: %v", err)
	}

	h.tick(t, joined.Add(200*time.Hour))

	member := h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("disabled guild must not escalate, got %s", member.Status)
	}
}

func TestOnMemberObservedTracksAndWelcomes(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

	if err := h.manager.OnMemberObserved(context.Background(), h.guild, liveMember("7"), now); err != nil {
		t.Fatalf("OnMemberObserved: %v", err)
	}
	member := h.mustGetMember(t, "7")
	if member.Status != roster.StateActive || !member.JoinedAt.Equal(now) {
		t.Fatalf("unexpected tracked member %+v", member)
	}
	if h.conn.directCount() != 1 {
		t.Fatalf("expected welcome message, got %d sends", h.conn.directCount())
	}

	// Observing again is a no-op.
	if err := h.manager.OnMemberObserved(context.Background(), h.guild, liveMember("7"), now.Add(time.Hour)); err != nil {
		t.Fatalf("OnMemberObserved repeat: %v", err)
	}
	if h.conn.directCount() != 1 {
		t.Fatal("repeat observation must not re-welcome")
	}

	bot := liveMember("8")
	bot.Bot = true
	if err := h.manager.OnMemberObserved(context.Background(), h.guild, bot, now); err != nil {
		t.Fatalf("OnMemberObserved bot: %v", err)
	}
	if got, err := h.store.GetMember(context.Background(), "g1", "8"); err != nil || got != nil {
		t.Fatalf("bots must not be tracked (member=%v err=%v)", got, err)
	}
}

func TestObservedCompliantMemberResetsImmediately(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "9", joined)

	member := h.mustGetMember(t, "9")
	member.MarkPendingRemoval(joined.Add(73*time.Hour), 168*time.Hour)
	member.MarkFirstWarningSent(joined.Add(74*time.Hour), "dm-1")
	if err := h.store.UpsertMember(context.Background(), member); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}

	// A sighting with the required role cancels the escalation on the spot.
	if err := h.manager.OnMemberObserved(context.Background(), h.guild, liveMember("9", "Verified"), joined.Add(80*time.Hour)); err != nil {
		t.Fatalf("OnMemberObserved: %v", err)
	}
	member = h.mustGetMember(t, "9")
	if member.Status != roster.StateActive {
		t.Fatalf("expected active after compliant sighting, got %s", member.Status)
	}
	if member.RemovalDeadline != nil {
		t.Fatal("reset must clear the removal deadline")
	}
	if h.conn.directCount() != 0 {
		t.Fatal("compliance reset must not re-welcome")
	}
}

func TestRemovedMemberRejoinStartsFresh(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)

	member := h.mustGetMember(t, "42")
	member.MarkPendingRemoval(joined.Add(73*time.Hour), 168*time.Hour)
	member.MarkFirstWarningSent(joined.Add(73*time.Hour), "dm-old")
	member.MarkRemoved(joined.Add(300*time.Hour), "")
	if err := h.store.UpsertMember(context.Background(), member); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}

	rejoin := joined.Add(400 * time.Hour)
	if err := h.manager.OnMemberObserved(context.Background(), h.guild, liveMember("42"), rejoin); err != nil {
		t.Fatalf("OnMemberObserved: %v", err)
	}

	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("expected rejoined member active, got %s", member.Status)
	}
	if !member.JoinedAt.Equal(rejoin) {
		t.Fatalf("expected fresh join time %v, got %v", rejoin, member.JoinedAt)
	}
	if member.RemovedAt != nil || member.FirstWarningSentAt != nil {
		t.Fatalf("rejoin left residue: %+v", member)
	}
}

func TestTickReAdmitsRejoinedMember(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)

	member := h.mustGetMember(t, "42")
	member.MarkPendingRemoval(joined.Add(73*time.Hour), 168*time.Hour)
	member.MarkRemoved(joined.Add(300*time.Hour), "")
	if err := h.store.UpsertMember(context.Background(), member); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}

	// The kicked member is back in the live roster alongside a stranger
	// the daemon has never seen.
	h.conn.setMembers("g1", liveMember("42"), liveMember("7"))

	now := joined.Add(400 * time.Hour)
	h.tick(t, now)

	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("expected rejoined member active after tick, got %s", member.Status)
	}
	if !member.JoinedAt.Equal(now) {
		t.Fatalf("expected fresh join time %v, got %v", now, member.JoinedAt)
	}

	stranger := h.mustGetMember(t, "7")
	if stranger.Status != roster.StateActive || !stranger.JoinedAt.Equal(now) {
		t.Fatalf("unexpected tracked stranger %+v", stranger)
	}
	if h.conn.directCount() != 2 {
		t.Fatalf("expected welcome messages for both members, got %d sends", h.conn.directCount())
	}
}

func TestSyncGuildRestartsRemovedMembers(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)

	member := h.mustGetMember(t, "42")
	member.MarkPendingRemoval(joined.Add(73*time.Hour), 168*time.Hour)
	member.MarkRemoved(joined.Add(300*time.Hour), "")
	if err := h.store.UpsertMember(context.Background(), member); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}
	h.conn.setMembers("g1", liveMember("42"))

	now := joined.Add(400 * time.Hour)
	added, err := h.manager.SyncGuild(context.Background(), h.guild, now)
	if err != nil {
		t.Fatalf("SyncGuild: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 restarted member, got %d", added)
	}

	member = h.mustGetMember(t, "42")
	if member.Status != roster.StateActive {
		t.Fatalf("expected rejoined member active after sync, got %s", member.Status)
	}
	if member.RemovedAt != nil {
		t.Fatal("sync rejoin left a removal timestamp")
	}
}

func TestSyncGuildBackdatesOldJoins(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

	recent := liveMember("1")
	recent.JoinedAt = now.Add(-10 * time.Hour)
	veteran := liveMember("2")
	veteran.JoinedAt = now.Add(-90 * 24 * time.Hour)
	bot := liveMember("3")
	bot.Bot = true
	h.track(t, "4", now.Add(-5*time.Hour)) // already tracked
	tracked := liveMember("4")
	h.conn.setMembers("g1", recent, veteran, bot, tracked)

	added, err := h.manager.SyncGuild(context.Background(), h.guild, now)
	if err != nil {
		t.Fatalf("SyncGuild: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 new members, got %d", added)
	}

	if member := h.mustGetMember(t, "1"); !member.JoinedAt.Equal(recent.JoinedAt) {
		t.Fatalf("recent join must keep platform time, got %v", member.JoinedAt)
	}
	member := h.mustGetMember(t, "2")
	grace := 72 * time.Hour
	if member.JoinedAt.After(now) || now.Sub(member.JoinedAt) >= grace {
		t.Fatalf("veteran join must back-date within the grace window, got %v", member.JoinedAt)
	}
	if got, err := h.store.GetMember(context.Background(), "g1", "3"); err != nil || got != nil {
		t.Fatalf("bot must not be synced (member=%v err=%v)", got, err)
	}
}

func TestForceReset(t *testing.T) {
	h := newHarness(t)
	joined := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	h.track(t, "42", joined)
	member := h.mustGetMember(t, "42")
	member.MarkPendingRemoval(joined.Add(73*time.Hour), 168*time.Hour)
	if err := h.store.UpsertMember(context.Background(), member); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}

	if err := h.manager.ForceReset(context.Background(), "g1", "42"); err != nil {
		t.Fatalf("ForceReset: %v", err)
	}
	if member = h.mustGetMember(t, "42"); member.Status != roster.StateActive {
		t.Fatalf("expected active after reset, got %s", member.Status)
	}

	if err := h.manager.ForceReset(context.Background(), "g1", "nobody"); err == nil {
		t.Fatal("expected error for unknown member")
	}
}

func TestSweepHonorsRetention(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)

	old := &roster.Member{UserID: "old", GuildID: "g1", Status: roster.StateActive, JoinedAt: now.Add(-500 * time.Hour)}
	old.MarkRemoved(now.Add(-8*24*time.Hour), "")
	fresh := &roster.Member{UserID: "fresh", GuildID: "g1", Status: roster.StateActive, JoinedAt: now.Add(-500 * time.Hour)}
	fresh.MarkRemoved(now.Add(-6*24*time.Hour), "")
	for _, member := range []*roster.Member{old, fresh} {
		if err := h.store.UpsertMember(context.Background(), member); err != nil {
			t.Fatalf("UpsertMember: %v", err)
		}
	}

	purged, err := h.manager.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purge, got %d", purged)
	}
	if got, err := h.store.GetMember(context.Background(), "g1", "old"); err != nil || got != nil {
		t.Fatalf("expected old record purged (member=%v err=%v)", got, err)
	}
	h.mustGetMember(t, "fresh")
}

func TestPostDailyFactOncePerDay(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutPacing())
	store := testsupport.MustOpenStore(t, cfg)
	conn := newFakeConnector()

	ctx := context.Background()
	if err := store.EnsureGuild(ctx, "g1", "Test Guild"); err != nil {
		t.Fatalf("EnsureGuild: %v", err)
	}
	if err := store.EnableGuild(ctx, "g1", "op-chan", "Verified"); err != nil {
		t.Fatalf("EnableGuild: %v", err)
	}

	path := filepath.Join(t.TempDir(), "facts.yaml")
	if err := os.WriteFile(path, []byte("facts:\n  - Honey never spoils.\n"), 0o644); err != nil {
		t.Fatalf("write facts: %v", err)
	}
	facts, err := funfacts.Load(path)
	if err != nil {
		t.Fatalf("Load facts: %v", err)
	}

	current := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	manager := NewManager(cfg, store, conn, logging.NewNop(),
		WithFacts(facts),
		WithClock(func() time.Time { return current }),
	)

	if err := manager.PostDailyFact(ctx); err != nil {
		t.Fatalf("PostDailyFact: %v", err)
	}
	if conn.postCount() != 1 {
		t.Fatalf("expected 1 fact post, got %d", conn.postCount())
	}

	// A second call the same day is a no-op, even across a restart.
	if err := manager.PostDailyFact(ctx); err != nil {
		t.Fatalf("PostDailyFact repeat: %v", err)
	}
	if conn.postCount() != 1 {
		t.Fatalf("same-day repeat must not post, got %d", conn.postCount())
	}

	current = current.AddDate(0, 0, 1)
	if err := manager.PostDailyFact(ctx); err != nil {
		t.Fatalf("PostDailyFact next day: %v", err)
	}
	if conn.postCount() != 2 {
		t.Fatalf("expected next-day post, got %d", conn.postCount())
	}
}

func TestUntilHour(t *testing.T) {
	base := time.Date(2026, time.May, 1, 10, 30, 0, 0, time.UTC)
	if got := untilHour(base, 12); got != 90*time.Minute {
		t.Fatalf("expected 90m, got %v", got)
	}
	if got := untilHour(base, 9); got != 22*time.Hour+30*time.Minute {
		t.Fatalf("expected 22h30m, got %v", got)
	}
	exact := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	if got := untilHour(exact, 12); got != 24*time.Hour {
		t.Fatalf("expected a full day, got %v", got)
	}
}
