package enforcer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gatewarden/internal/config"
	"gatewarden/internal/directory"
	"gatewarden/internal/funfacts"
	"gatewarden/internal/lifecycle"
	"gatewarden/internal/logging"
	"gatewarden/internal/notify"
	"gatewarden/internal/roster"
)

// Connector is the full chat-platform surface the enforcer depends on.
type Connector interface {
	directory.Directory
	notify.Service
	// RemoveMember kicks the user; a member already gone counts as success.
	RemoveMember(ctx context.Context, guildID, userID, reason string) error
}

// NoopConnector satisfies Connector without touching any platform. It lets
// the daemon run dry against a real roster when no bot token is configured.
type NoopConnector struct {
	notify.Noop
}

func (NoopConnector) ListGuilds(context.Context) ([]directory.Guild, error) { return nil, nil }

func (NoopConnector) ListMembers(context.Context, string) ([]directory.Member, error) {
	return nil, nil
}

func (NoopConnector) GetMember(context.Context, string, string) (*directory.Member, error) {
	return nil, nil
}

func (NoopConnector) RemoveMember(context.Context, string, string, string) error { return nil }

// Manager runs the enforcement loop: a periodic reconciliation tick, a
// cleanup sweeper, and the optional daily fact post.
type Manager struct {
	cfg     *config.Config
	store   *roster.Store
	conn    Connector
	logger  *slog.Logger
	facts   *funfacts.Collection
	windows lifecycle.Windows
	now     func() time.Time

	tickMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the manager's time source (used in tests).
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithFacts attaches a fun fact collection for the daily post.
func WithFacts(facts *funfacts.Collection) ManagerOption {
	return func(m *Manager) {
		m.facts = facts
	}
}

// NewManager constructs the enforcement manager.
func NewManager(cfg *config.Config, store *roster.Store, conn Connector, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:    cfg,
		store:  store,
		conn:   conn,
		logger: logger,
		windows: lifecycle.Windows{
			GracePeriod:     cfg.GracePeriod(),
			WarningWindow:   cfg.WarningWindow(),
			FinalNoticeLead: cfg.FinalNoticeLead(),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the background loops. It returns an error when the manager
// is already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("enforcer already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(2)
	go m.runTicks(runCtx)
	go m.runSweeps(runCtx)
	if m.cfg.FunFacts.DailyPostHour >= 0 {
		m.wg.Add(1)
		go m.runDailyFact(runCtx)
	}
	return nil
}

// Stop terminates background processing and waits for the in-flight tick to
// finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runTicks(ctx context.Context) {
	defer m.wg.Done()

	interval := m.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Reconcile immediately on startup so a restart never waits a full
	// interval to resume a half-finished escalation.
	if err := m.Tick(ctx, m.now()); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("enforcement tick failed", logging.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Tick(ctx, m.now()); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("enforcement tick failed", logging.Error(err))
			}
		}
	}
}

func (m *Manager) runSweeps(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx, m.now()); err != nil {
				m.logger.Error("cleanup sweep failed", logging.Error(err))
			}
		}
	}
}

// pause sleeps for the given duration, returning early on shutdown.
func (m *Manager) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
