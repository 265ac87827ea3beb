package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gatewarden/internal/config"
	"gatewarden/internal/roster"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Purge removed-member records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				days := retentionDays
				if days <= 0 {
					days = cfg.Cleanup.RetentionDays
				}
				cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
				purged, err := store.PurgeRemovedBefore(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d removed-member records older than %d days\n", purged, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Override the configured retention window")
	return cmd
}
