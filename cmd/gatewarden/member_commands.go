package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gatewarden/internal/config"
	"gatewarden/internal/roster"
)

func newMemberCommand(ctx *commandContext) *cobra.Command {
	memberCmd := &cobra.Command{
		Use:   "member",
		Short: "Inspect and adjust tracked members",
	}
	memberCmd.AddCommand(newMemberShowCommand(ctx))
	memberCmd.AddCommand(newMemberResetCommand(ctx))
	memberCmd.AddCommand(newMemberForgetCommand(ctx))
	return memberCmd
}

func newMemberShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <guild-id> <user-id>",
		Short: "Show the tracked lifecycle record for one member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			userID := strings.TrimSpace(args[1])
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				member, err := store.GetMember(cmd.Context(), guildID, userID)
				if err != nil {
					return err
				}
				if member == nil {
					return fmt.Errorf("member %s not tracked in guild %s", userID, guildID)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "User:            %s\n", member.UserID)
				fmt.Fprintf(out, "Guild:           %s\n", member.GuildID)
				fmt.Fprintf(out, "Status:          %s\n", member.Status)
				fmt.Fprintf(out, "Joined:          %s\n", formatTime(&member.JoinedAt))
				fmt.Fprintf(out, "Deadline:        %s\n", formatTime(member.RemovalDeadline))
				fmt.Fprintf(out, "First warning:   %s\n", formatTime(member.FirstWarningSentAt))
				fmt.Fprintf(out, "Final notice:    %s\n", formatTime(member.FinalNoticeSentAt))
				fmt.Fprintf(out, "Removed:         %s\n", formatTime(member.RemovedAt))
				fmt.Fprintf(out, "Warning retries: %d\n", member.RetryCount)
				if member.LastNotificationRef != "" {
					fmt.Fprintf(out, "Last message:    %s\n", member.LastNotificationRef)
				}
				return nil
			})
		},
	}
}

func newMemberResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <guild-id> <user-id>",
		Short: "Return a member to active, cancelling any pending removal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			userID := strings.TrimSpace(args[1])
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				member, err := store.GetMember(cmd.Context(), guildID, userID)
				if err != nil {
					return err
				}
				if member == nil {
					return fmt.Errorf("member %s not tracked in guild %s", userID, guildID)
				}
				member.ResetToActive()
				if err := store.UpsertMember(cmd.Context(), member); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset member %s in guild %s to active\n", userID, guildID)
				return nil
			})
		},
	}
}

func newMemberForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <guild-id> <user-id>",
		Short: "Drop the tracking record for one member",
		Long: "Drop the tracking record for one member. The daemon will treat them\n" +
			"as a new joiner on the next pass; use this to discard a record created\n" +
			"by mistake, such as a mis-imported service account.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			userID := strings.TrimSpace(args[1])
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				deleted, err := store.DeleteMember(cmd.Context(), guildID, userID)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("member %s not tracked in guild %s", userID, guildID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forgot member %s in guild %s\n", userID, guildID)
				return nil
			})
		},
	}
}

func formatTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04:05 UTC")
}
