// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/incipyt/incipyt/internal/issue"
	"github.com/incipyt/incipyt/internal/runner"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError prints the styled message, then the issue help section
// rendered with the glamour style.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style string) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// formatErrorForDisplay uses ActionableError.Format when possible, which
// lists suggestions and, in verbose mode, the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// exitCodeFor propagates the exit code of a failed external command and
// maps everything else to 1.
func exitCodeFor(err error) runner.ExitCode {
	return runner.StatusOf(err)
}

// fail renders err on the command's stderr and returns the ExitError that
// Execute turns into the process exit status.
func (a *App) fail(cmd *cobra.Command, err error) error {
	stderr := cmd.ErrOrStderr()

	svcErr := newServiceError(err, 0, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, a.verbose)+"\n")
	if iss, ok := issue.IssueOf(err); ok {
		svcErr.IssueID = iss.Id()
	}
	renderServiceError(stderr, svcErr, a.glamourStyle())

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: exitCodeFor(err), Err: svcErr}
}
