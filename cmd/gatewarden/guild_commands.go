package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gatewarden/internal/config"
	"gatewarden/internal/roster"
)

func newGuildCommand(ctx *commandContext) *cobra.Command {
	guildCmd := &cobra.Command{
		Use:   "guild",
		Short: "Manage monitored guilds",
	}
	guildCmd.AddCommand(newGuildListCommand(ctx))
	guildCmd.AddCommand(newGuildEnableCommand(ctx))
	guildCmd.AddCommand(newGuildDisableCommand(ctx))
	return guildCmd
}

func newGuildListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered guilds and their enforcement settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				guilds, err := store.Guilds(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(guilds) == 0 {
					fmt.Fprintln(out, "No guilds registered.")
					return nil
				}
				headers := []string{"Guild", "Name", "Enabled", "Operator Channel", "Required Role"}
				rows := make([][]string, 0, len(guilds))
				for _, guild := range guilds {
					rows = append(rows, []string{
						guild.GuildID,
						guild.Name,
						yesNo(guild.Enabled),
						guild.OperatorChannelID,
						guild.RequiredRole,
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, nil))
				return nil
			})
		},
	}
}

func newGuildEnableCommand(ctx *commandContext) *cobra.Command {
	var operatorChannel string
	var requiredRole string
	var name string

	cmd := &cobra.Command{
		Use:   "enable <guild-id>",
		Short: "Enable enforcement for a guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			if strings.TrimSpace(operatorChannel) == "" || strings.TrimSpace(requiredRole) == "" {
				return fmt.Errorf("both --operator-channel and --required-role are required when enabling")
			}
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				if err := store.EnsureGuild(cmd.Context(), guildID, strings.TrimSpace(name)); err != nil {
					return err
				}
				if err := store.EnableGuild(cmd.Context(), guildID, strings.TrimSpace(operatorChannel), strings.TrimSpace(requiredRole)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enabled enforcement for guild %s (operator channel %s, role %q)\n",
					guildID, operatorChannel, requiredRole)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&operatorChannel, "operator-channel", "", "Channel that receives enforcement updates")
	cmd.Flags().StringVar(&requiredRole, "required-role", "", "Role name members must hold")
	cmd.Flags().StringVar(&name, "name", "", "Human-readable guild name")
	return cmd
}

func newGuildDisableCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <guild-id>",
		Short: "Disable enforcement for a guild, keeping its configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, store *roster.Store) error {
				if err := store.DisableGuild(cmd.Context(), guildID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Disabled enforcement for guild %s\n", guildID)
				return nil
			})
		},
	}
}
