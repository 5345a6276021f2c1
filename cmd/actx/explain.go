// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/actx/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [topic]",
		Short: "Explain an error topic",
		Long: `Show the help page for an error topic. Errors reported by actx end with
the topic to look up. Without a topic, the available topics are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Topics"))
				for _, topic := range issue.Topics() {
					fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render(topic))
				}
				return nil
			}

			page, ok := issue.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown topic %q (available: %s)", args[0], strings.Join(issue.Topics(), ", "))
			}
			rendered, err := page.Render(style)
			if err != nil {
				return fmt.Errorf("render %s: %w", args[0], err)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty, ...)")

	return cmd
}
