package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Origin-of-Miracles/Anima/agent"
)

func newChatCmd() *cobra.Command {
	var oneShot string

	cmd := &cobra.Command{
		Use:   "chat <persona>",
		Short: "Talk to a persona (interactive unless --message is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := runtimeFromViper(ctx)
			if err != nil {
				return err
			}
			id := args[0]

			if strings.TrimSpace(oneShot) != "" {
				result, err := rt.registry.Chat(ctx, id, oneShot)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Content)
				return rt.registry.EndSession(ctx, id)
			}

			info, err := rt.registry.Describe(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s (%s) — /quit to exit, /clear to reset\n", info.Name, info.ID)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				_, _ = fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/quit", line == "/exit":
					return rt.registry.EndSession(ctx, id)
				case line == "/clear":
					rt.registry.ClearHistory(id)
					_, _ = fmt.Fprintln(out, "(对话已重置)")
					continue
				case line == "/mood":
					snap, desc, err := rt.registry.Mood(ctx, id)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(out, "%s (intensity %.2f, valence %+.2f)\n", desc, snap.Intensity, snap.Valence)
					continue
				}

				result, err := rt.registry.Chat(ctx, id, line)
				if err != nil {
					if errors.Is(err, agent.ErrOverloaded) {
						_, _ = fmt.Fprintln(out, "(系统繁忙，请稍后再试)")
						continue
					}
					rt.logger.Error("chat_failed", "persona", id, "error", err)
					_, _ = fmt.Fprintln(out, "(出错了，请重试)")
					continue
				}
				_, _ = fmt.Fprintln(out, result.Content)
			}
			return rt.registry.EndSession(ctx, id)
		},
	}

	cmd.Flags().StringVarP(&oneShot, "message", "m", "", "Send a single message and exit.")
	return cmd
}
