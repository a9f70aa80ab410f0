// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for the syna-omnibox CLI.
//
// STANDARDIZED PATTERN:
//   - Commands return errors; Execute prints them once
//   - Routed failures become *RouteError so the exit code follows Result.Code
//   - Everything else maps through ExitCodeFor

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jeranaias/syna-omnibox/internal/backend"
	"github.com/jeranaias/syna-omnibox/internal/router"
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
	// ExitAuthError indicates authentication or authorization failure
	ExitAuthError = 4
	// ExitNetworkError indicates a backend or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates an unknown command or missing resource
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed CLI operation with an explicit exit code.
type CommandError struct {
	Op   string // what was being done, e.g. "open store"
	Err  error
	Code int
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// RouteError is a routed command that came back unsuccessful.
type RouteError struct {
	Input  string
	Result router.Result
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Input, e.Result.Error)
}

func (e *RouteError) Unwrap() error {
	return e.Result.Err()
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCodeFor picks the exit code for err.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}

	var status *backend.StatusError
	if errors.As(err, &status) {
		switch status.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ExitAuthError
		case http.StatusNotFound:
			return ExitNotFoundError
		default:
			return ExitNetworkError
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, router.ErrUnknownCommand):
		return ExitNotFoundError
	case errors.Is(err, router.ErrInvalidInput):
		return ExitUsageError
	case errors.Is(err, router.ErrPermissionDenied), errors.Is(err, router.ErrAuthRequired):
		return ExitAuthError
	case errors.Is(err, router.ErrBackend):
		return ExitNetworkError
	}
	return ExitGeneralError
}
