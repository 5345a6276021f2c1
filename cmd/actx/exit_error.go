// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/actx/internal/issue"
	"github.com/invowk/actx/pkg/loader"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// formatErrorForDisplay formats an error for user display. Errors that are
// not already actionable are wrapped with operation so that a matching issue
// page is pointed to. In verbose mode the full error chain is shown.
func formatErrorForDisplay(err error, operation string, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return issue.WrapWithOperation(err, operation).Format(verboseMode)
}

// fail reports err on the app's stderr and returns the ExitError for it. A
// failing script passes its own exit status through.
func (a *App) fail(cmd *cobra.Command, err error, operation string, verboseMode bool) error {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, operation, verboseMode))

	code := 1
	var scriptErr *loader.ScriptError
	if errors.As(err, &scriptErr) && scriptErr.ExitCode > 0 {
		code = scriptErr.ExitCode
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: code}
}
