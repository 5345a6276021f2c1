// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/actx/pkg/actx"
)

func newListCommand(app *App, flags *rootFlags) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered actions",
		Long: `List the actions discovered in the configured locations, grouped by
domain. Each action shows its source file and the index of the location
that won it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := app.openProvider(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, err, "discover actions", flags.verbose)
			}
			return listActions(app, p, domain)
		},
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "only list this domain")

	return cmd
}

func listActions(app *App, p *actx.Provider, only string) error {
	out := app.stdout
	fmt.Fprintln(out, TitleStyle.Render("Actions"))

	if len(p.Locations()) == 0 {
		fmt.Fprintf(out, "  %s\n", SubtitleStyle.Render("(no locations configured)"))
		return nil
	}

	domains := p.Domains()
	if only != "" {
		domains = []string{only}
	}

	total := 0
	for _, domain := range domains {
		entries := p.Entries(domain)
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, listDomainStyle.Render(domain))
		for _, e := range entries {
			fmt.Fprintf(out, "%s %s %s\n",
				listNameStyle.Render(e.Name),
				SubtitleStyle.Render(e.Source),
				listLocationStyle.Render(fmt.Sprintf("[location %d]", e.Location)),
			)
			total++
		}
	}

	fmt.Fprintln(out)
	if total == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("No actions found."))
		return nil
	}
	fmt.Fprintf(out, "%s %d action(s) in %d location(s)\n", SuccessStyle.Render("✓"), total, len(p.Locations()))
	return nil
}
