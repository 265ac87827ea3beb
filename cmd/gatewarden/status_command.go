package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"gatewarden/internal/config"
	"gatewarden/internal/roster"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and per-guild roster counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				running, lockPath := daemonRunning(cfg)
				if running {
					fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running", colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, lockPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, store.Path(), colorize))

				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				total := 0
				for _, count := range stats {
					total += count
				}
				escalating := stats[roster.StatePendingRemoval] +
					stats[roster.StateFirstWarningSent] +
					stats[roster.StateFinalNoticeSent]
				fmt.Fprintln(out, renderStatusLine("Tracked members", statusInfo,
					fmt.Sprintf("%d total, %d escalating, %d removed", total, escalating, stats[roster.StateRemoved]),
					colorize))
				fmt.Fprintln(out)

				guilds, err := store.Guilds(cmd.Context())
				if err != nil {
					return err
				}
				if len(guilds) == 0 {
					fmt.Fprintln(out, "No guilds registered.")
					return nil
				}

				headers := []string{"Guild", "Name", "Enabled", "Active", "Pending", "Warned", "Final", "Removed"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
				rows := make([][]string, 0, len(guilds))
				for _, guild := range guilds {
					summary, err := store.CountsByStatus(cmd.Context(), guild.GuildID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						guild.GuildID,
						guild.Name,
						yesNo(guild.Enabled),
						strconv.Itoa(summary.Counts[roster.StateActive]),
						strconv.Itoa(summary.Counts[roster.StatePendingRemoval]),
						strconv.Itoa(summary.Counts[roster.StateFirstWarningSent]),
						strconv.Itoa(summary.Counts[roster.StateFinalNoticeSent]),
						strconv.Itoa(summary.Counts[roster.StateRemoved]),
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

// daemonRunning probes the daemon instance lock without holding it.
func daemonRunning(cfg *config.Config) (bool, string) {
	lockPath := filepath.Join(cfg.Paths.LogDir, "gatewardend.lock")
	lock := flock.New(lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return false, lockPath
	}
	if acquired {
		_ = lock.Unlock()
		return false, lockPath
	}
	return true, lockPath
}
