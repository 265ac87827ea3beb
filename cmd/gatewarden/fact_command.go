package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gatewarden/internal/funfacts"
)

func newFactCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fact",
		Short: "Print a random fun fact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			facts, err := funfacts.Load(cfg.FunFacts.Path)
			if err != nil {
				return err
			}
			fact, err := facts.Random()
			if err != nil {
				return fmt.Errorf("no fun facts available (checked %s)", cfg.FunFacts.Path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), fact)
			return nil
		},
	}
}
