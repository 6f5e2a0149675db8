package model

import (
	"errors"
	"fmt"
)

// Recoverable error kinds of the synthesis pipeline. None of them is fatal
// to a query: callers detect them with errors.Is and degrade to "no trees"
// or "no compartment" for the affected unit.
var (
	// ErrEmptyGeometry signals an empty intersection or a zero-area polygon.
	ErrEmptyGeometry = errors.New("empty geometry")

	// ErrZeroDensity signals that the stem count of a sampling unit is zero.
	ErrZeroDensity = errors.New("zero density")

	// ErrMissingStrata signals a stand without tree-stand survey data.
	ErrMissingStrata = errors.New("missing strata")

	// ErrInvalidStatistic signals a non-positive divisor such as a zero
	// basal area or mean height.
	ErrInvalidStatistic = errors.New("invalid stratum statistic")

	// ErrBufferOverflow signals a write past the end of a host buffer.
	ErrBufferOverflow = errors.New("buffer overflow")
)

// FormatError describes a malformed coordinate token in a ring. The ring
// parser skips the offending vertex and keeps going; FormatError is only
// reported so the caller can log it.
type FormatError struct {
	// Ring is the ring index (0 = exterior, 1.. = holes), or -1 if unknown.
	Ring int

	// Token is the offending input text.
	Token string

	// Reason says what is wrong with the token.
	Reason string
}

// Error implements the error interface for FormatError.
func (e *FormatError) Error() string {
	return fmt.Sprintf("ring %d: malformed coordinate %q: %s", e.Ring, e.Token, e.Reason)
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInputNotFound indicates the stand file or an ROI file is missing.
	ExitInputNotFound ExitCode = 2

	// ExitInvalidInput indicates the stand file or an ROI file could not be parsed.
	ExitInvalidInput ExitCode = 3

	// ExitConfigError indicates an invalid configuration value, such as a
	// negative fixed radius or an unknown strategy name.
	ExitConfigError ExitCode = 4

	// ExitOutputError indicates the output file could not be written.
	ExitOutputError ExitCode = 5

	// ExitBufferOverflow indicates the host buffer was too small for the
	// generated trees.
	ExitBufferOverflow ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
