package enforcer

import (
	"context"
	"errors"
	"time"

	"gatewarden/internal/funfacts"
	"gatewarden/internal/logging"
	"gatewarden/internal/notify"
)

// lastFactDateKey marks the last civil date a fact went out, so a daemon
// restart after the posting hour does not repeat the day's fact.
const lastFactDateKey = "last_fact_date"

// untilHour returns the wait until the next local occurrence of the given
// hour. A time exactly on the hour waits a full day.
func untilHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func (m *Manager) runDailyFact(ctx context.Context) {
	defer m.wg.Done()

	hour := m.cfg.FunFacts.DailyPostHour
	for {
		timer := time.NewTimer(untilHour(m.now(), hour))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := m.PostDailyFact(ctx); err != nil {
			m.logger.Warn("daily fact post failed", logging.Error(err))
		}
	}
}

// PostDailyFact posts one random fact to every enabled guild's operator
// channel. At most one fact goes out per calendar day.
func (m *Manager) PostDailyFact(ctx context.Context) error {
	today := m.now().Format("2006-01-02")
	if last, err := m.store.GetValue(ctx, lastFactDateKey); err != nil {
		return err
	} else if last == today {
		return nil
	}

	fact, err := m.facts.Random()
	if err != nil {
		if errors.Is(err, funfacts.ErrNoFacts) {
			return nil
		}
		return err
	}

	guilds, err := m.store.Guilds(ctx)
	if err != nil {
		return err
	}
	msg := notify.Message{Body: "Fun fact: " + fact}
	for _, guild := range guilds {
		if !guild.Enabled || guild.OperatorChannelID == "" {
			continue
		}
		if _, err := m.conn.PostToChannel(ctx, guild.OperatorChannelID, msg); err != nil {
			m.logger.Warn("fact post failed",
				logging.String(logging.FieldGuildID, guild.GuildID),
				logging.Error(err),
			)
		}
	}
	return m.store.SetValue(ctx, lastFactDateKey, today)
}
