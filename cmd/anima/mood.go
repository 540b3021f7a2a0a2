package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMoodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Inspect or poke a persona's mood",
	}
	cmd.AddCommand(newMoodGetCmd())
	cmd.AddCommand(newMoodTriggerCmd())
	return cmd
}

func newMoodGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <persona>",
		Short: "Show the current mood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := runtimeFromViper(ctx)
			if err != nil {
				return err
			}
			snap, desc, err := rt.registry.Mood(ctx, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (state=%s intensity=%.2f valence=%+.2f)\n",
				args[0], desc, snap.State, snap.Intensity, snap.Valence)
			return nil
		},
	}
}

func newMoodTriggerCmd() *cobra.Command {
	var multiplier float64

	cmd := &cobra.Command{
		Use:   "trigger <persona> <trigger-id>",
		Short: "Apply a named mood trigger, e.g. received_gift",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := runtimeFromViper(ctx)
			if err != nil {
				return err
			}
			if err := rt.registry.TriggerMood(ctx, args[0], args[1], multiplier); err != nil {
				return err
			}
			snap, desc, err := rt.registry.Mood(ctx, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (state=%s intensity=%.2f valence=%+.2f)\n",
				args[0], desc, snap.State, snap.Intensity, snap.Valence)
			return nil
		},
	}

	cmd.Flags().Float64Var(&multiplier, "multiplier", 1, "Trigger strength multiplier.")
	return cmd
}
