// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for every CLI command.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// JSONResponse is the envelope written by --format json.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated (RFC 3339, UTC)
	Timestamp string `json:"timestamp"`

	// Command is the CLI command that produced the response
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// outputFormat validates the --format flag.
func outputFormat(flags *rootFlags) (jsonMode bool, err error) {
	switch flags.format {
	case "", "text":
		return false, nil
	case "json":
		return true, nil
	default:
		return false, &CommandError{
			Op:   "format",
			Err:  fmt.Errorf("unsupported format %q (supported: text, json)", flags.format),
			Code: ExitUsageError,
		}
	}
}

// writeJSON writes data, or err when non-nil, as a JSONResponse.
func writeJSON(w io.Writer, command string, data any, err error) error {
	if err != nil {
		if werr := NewJSONErrorResponse(command, err).Write(w); werr != nil {
			return werr
		}
		return err
	}
	return NewJSONResponse(command, data).Write(w)
}
