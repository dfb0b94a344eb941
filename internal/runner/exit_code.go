// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
)

// maxExitCode is the largest status a POSIX process can report.
const maxExitCode ExitCode = 255

// ErrInvalidExitCode marks a status no process could have returned.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is the status an external command finished with.
	ExitCode int

	// InvalidExitCodeError carries a status outside 0 to 255, which a shell
	// builtin or a fake runner can produce but os.Exit cannot pass on.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("%s %d: a process status is between 0 and %d", ErrInvalidExitCode, e.Value, maxExitCode)
}

func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// IsValid reports whether c could be the status of a process.
func (c ExitCode) IsValid() (bool, []error) {
	if c < 0 || c > maxExitCode {
		return false, []error{&InvalidExitCodeError{Value: c}}
	}
	return true, nil
}

// IsSuccess reports whether the command succeeded.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// StatusOf returns the status incipyt should exit with after err: the code of
// the failed command found in its chain, or 1 when there is none or it could
// not be forwarded.
func StatusOf(err error) ExitCode {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if valid, _ := exitErr.Code.IsValid(); valid && !exitErr.Code.IsSuccess() {
			return exitErr.Code
		}
	}
	return 1
}
