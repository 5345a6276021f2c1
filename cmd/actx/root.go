// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the actx command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "actx",
		Short: "Discover and run actions grouped into domains",
		Long: TitleStyle.Render("actx") + SubtitleStyle.Render(" - Discover and run actions grouped into domains") + `

actx scans one or more locations for action files. Every file found at
<location>/<domain>/.../<name>.<ext> becomes the action "domain.name";
when two locations define the same action, the later location wins.

Shell scripts (.sh) run in-process and may call other actions by their
"domain.name" key, or several at once with 'settle'. CUE modules (.cue)
expose a 'result' value.

` + SubtitleStyle.Render("Examples:") + `
  actx list                          List discovered actions
  actx -l actions run domain1.foo    Run an action from ./actions
  actx run controllers.account       Run an action that calls others
  actx config init                   Create a configuration file
  actx explain discovery             Explain discovery errors`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/actx/actx.cue)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	pf.StringVar(&flags.baseDir, "base-dir", "", "directory relative references resolve against")
	pf.StringArrayVarP(&flags.locations, "location", "l", nil, "discovery location as SOURCE[=FILTER]; repeatable, replaces configured locations")
	pf.StringVar(&flags.exclude, "exclude", "", "file filter reference; matching files are skipped in every location")

	rootCmd.AddCommand(
		newListCommand(app, flags),
		newRunCommand(app, flags),
		newConfigCommand(app, flags),
		newExplainCommand(app),
	)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command with production dependencies. It is called
// by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
