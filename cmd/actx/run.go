// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/ast/astutil"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"github.com/spf13/cobra"

	"github.com/invowk/actx/pkg/actx"
)

func newRunCommand(app *App, flags *rootFlags) *cobra.Command {
	var (
		inline     []string
		properties []string
	)

	cmd := &cobra.Command{
		Use:   "run <domain.action> [args...]",
		Short: "Run an action and print its result",
		Long: `Run an action and print its result.

Arguments after the action key are passed to the action: shell scripts see
them as $1, $2, ...; CUE modules see them as the 'args' list.

String results are printed as-is; structured results are printed as CUE.

` + SubtitleStyle.Render("Examples:") + `
  actx run domain1.foo
  actx run controllers.account --set domain1.bar=stubbed
  actx run greet.hello --property user=alice -- --name x`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := contextOptions(inline, properties)
			if err != nil {
				return err
			}

			p, logger, err := app.openProvider(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, err, "discover actions", flags.verbose)
			}

			c := p.CreateContext(opts...)
			logger.Debug("running action", "key", args[0], "args", len(args)-1)
			result, err := c.Call(cmd.Context(), args[0], stringArgs(args[1:])...)
			if err != nil {
				return app.fail(cmd, err, "run "+args[0], flags.verbose)
			}

			rendered, err := renderResult(result)
			if err != nil {
				return app.fail(cmd, err, "render result of "+args[0], flags.verbose)
			}
			if rendered != "" {
				fmt.Fprintln(app.stdout, rendered)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&inline, "set", nil, "inline action as domain.name=value, overriding a discovered one (repeatable)")
	cmd.Flags().StringArrayVar(&properties, "property", nil, "context property as key=value (repeatable)")

	return cmd
}

// contextOptions turns --set and --property values into context options.
func contextOptions(inline, properties []string) ([]actx.ContextOption, error) {
	var opts []actx.ContextOption
	for _, raw := range inline {
		key, value, ok := strings.Cut(raw, "=")
		domain, name, dotted := strings.Cut(key, ".")
		if !ok || !dotted || domain == "" || name == "" {
			return nil, fmt.Errorf("--set %q: want domain.name=value", raw)
		}
		opts = append(opts, actx.WithFunction(domain, name, value))
	}
	for _, raw := range properties {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--property %q: want key=value", raw)
		}
		opts = append(opts, actx.WithProperty(key, value))
	}
	return opts, nil
}

func stringArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// renderResult formats an action result for the terminal. Scalars print
// plainly; lists and structs are encoded as CUE.
func renderResult(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool, int, int64, float64, uint64:
		return fmt.Sprint(t), nil
	}

	val := cuecontext.New().Encode(v)
	if val.Err() != nil {
		return "", fmt.Errorf("encode result: %w", val.Err())
	}
	node := val.Syntax(cue.Final(), cue.Concrete(true))
	if expr, ok := node.(ast.Expr); ok {
		// A file prints struct fields without the enclosing braces.
		f, err := astutil.ToFile(expr)
		if err != nil {
			return "", fmt.Errorf("format result: %w", err)
		}
		node = f
	}
	out, err := format.Node(node)
	if err != nil {
		return "", fmt.Errorf("format result: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
