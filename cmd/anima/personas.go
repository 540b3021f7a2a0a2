package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPersonasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List configured personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeFromViper(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, info := range rt.registry.ListAvailable() {
				line := fmt.Sprintf("%-12s %s", info.ID, info.Name)
				if info.NameEn != "" {
					line += " (" + info.NameEn + ")"
				}
				if info.School != "" {
					line += " — " + info.School
				}
				if info.HasActiveSession {
					line += fmt.Sprintf(" [active, %d msgs]", info.HistorySize)
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	return cmd
}
