// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/actx/pkg/actx"
)

// SettleCommand is the in-script command that runs several actions
// concurrently and prints their results one per line, in argument order.
const SettleCommand = "settle"

type (
	// Shell loads POSIX shell modules and runs them in-process with mvdan/sh.
	Shell struct {
		// Env is appended to the process environment of every run.
		Env []string
		// Logger receives warnings from predicate scripts that fail to run.
		Logger *log.Logger
	}

	// Script is a parsed shell module. Called as an action, its positional
	// parameters are the call args and its result is stdout without the final
	// newline. Used as a predicate, $1 is the candidate path and exit status 0
	// keeps the file.
	//
	// While a script runs as an action, any command named after an action of
	// the calling context ("domain.name") invokes that action and prints its
	// result.
	Script struct {
		path   string
		prog   *syntax.File
		env    []string
		logger *log.Logger
	}

	// ScriptError reports a script that exited non-zero.
	ScriptError struct {
		Path     string
		ExitCode int
		Stderr   string
	}
)

var (
	_ actx.Loader   = (*Shell)(nil)
	_ actx.Callable = (*Script)(nil)
)

// NewShell creates a shell loader with the default logger.
func NewShell() *Shell {
	return &Shell{Logger: log.Default()}
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Path, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Load parses the script at path. Syntax errors fail the load.
func (s *Shell) Load(_ context.Context, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	prog, err := syntax.NewParser().Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	env := append(os.Environ(), s.Env...)
	return &Script{path: path, prog: prog, env: env, logger: logger}, nil
}

// Path returns the script file path.
func (sc *Script) Path() string { return sc.path }

// Call runs the script as an action.
func (sc *Script) Call(ctx context.Context, c *actx.Context, args ...any) (any, error) {
	params := make([]string, 0, len(args))
	for _, a := range args {
		params = append(params, fmt.Sprint(a))
	}
	var stdout, stderr bytes.Buffer
	if err := sc.run(ctx, c, params, &stdout, &stderr); err != nil {
		return nil, err
	}
	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

// Match runs the script as a predicate over filePath.
func (sc *Script) Match(filePath string) bool {
	var stderr bytes.Buffer
	err := sc.run(context.Background(), nil, []string{filePath}, io.Discard, &stderr)
	if err == nil {
		return true
	}
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		sc.logger.Warn("predicate script failed", "script", sc.path, "path", filePath, "error", err)
	}
	return false
}

func (sc *Script) run(ctx context.Context, c *actx.Context, params []string, stdout, stderr io.Writer) error {
	opts := []interp.RunnerOption{
		interp.Dir(filepath.Dir(sc.path)),
		interp.Env(expand.ListEnviron(sc.env...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if c != nil {
		opts = append(opts, interp.ExecHandlers(actionHandler(c)))
	}

	// Prepend "--" so args such as "-v" are not read as shell options.
	if len(params) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, params...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, sc.prog)
	if err == nil {
		return nil
	}
	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		errText := ""
		if buf, ok := stderr.(*bytes.Buffer); ok {
			errText = buf.String()
		}
		return &ScriptError{Path: sc.path, ExitCode: int(exitStatus), Stderr: errText}
	}
	return fmt.Errorf("script execution failed: %w", err)
}

// actionHandler routes "domain.name" commands and the settle command to c.
// Anything else falls through to the default exec handler.
func actionHandler(c *actx.Context) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)
			if args[0] == SettleCommand {
				return settle(ctx, hc.Stdout, hc.Stderr, c, args[1:])
			}
			if _, _, ok := c.Resolve(args[0]); !ok {
				return next(ctx, args)
			}
			v, err := c.Call(ctx, args[0], toAny(args[1:])...)
			if err != nil {
				fmt.Fprintf(hc.Stderr, "%s: %v\n", args[0], err)
				return interp.NewExitStatus(1)
			}
			fmt.Fprintln(hc.Stdout, format(v))
			return nil
		}
	}
}

// settle runs each key concurrently. Results are printed in argument order; a
// failed call prints an empty line, reports to stderr and fails the command.
func settle(ctx context.Context, stdout, stderr io.Writer, c *actx.Context, keys []string) error {
	calls := make([]actx.Call, len(keys))
	for i, key := range keys {
		calls[i] = actx.Invoke(key)
	}
	failed := false
	for i, res := range actx.Settle(ctx, c, calls...) {
		if res.Err != nil {
			failed = true
			fmt.Fprintf(stderr, "%s: %v\n", keys[i], res.Err)
			fmt.Fprintln(stdout)
			continue
		}
		fmt.Fprintln(stdout, format(res.Value))
	}
	if failed {
		return interp.NewExitStatus(1)
	}
	return nil
}

func toAny(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// format renders an action result for shell output.
func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
