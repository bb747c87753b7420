// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/jeranaias/aimednow/internal/api"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitCancelled indicates the user declined a confirmation
	ExitCancelled = 4
	// ExitNetworkError indicates the service could not be reached
	ExitNetworkError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError attaches an exit code to an error.
type CommandError struct {
	Code int
	Err  error
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// errCancelled is returned when a confirmation is declined.
var errCancelled = &CommandError{Code: ExitCancelled, Err: errors.New("cancelled")}

// usageError marks bad arguments.
func usageError(err error) error {
	return &CommandError{Code: ExitUsageError, Err: err}
}

// ExitCodeFor maps an error to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code
	}
	switch api.TypeOf(err) {
	case api.ErrTypeConnection, api.ErrTypeTimeout:
		return ExitNetworkError
	}
	return ExitGeneralError
}
