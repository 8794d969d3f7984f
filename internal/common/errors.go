// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Dataset errors.
	ErrEmptyDataset    = errors.New("dataset has no rows")
	ErrLengthMismatch  = errors.New("features and labels differ in length")
	ErrRaggedRows      = errors.New("feature rows have inconsistent widths")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNotNumeric      = errors.New("value is not numeric")

	// Configuration errors.
	ErrMissingConfig   = errors.New("missing configuration")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidFraction = errors.New("split fraction must be in (0, 1)")
)

// DataError reports malformed or empty input and shape mismatches.
type DataError struct {
	Err error
	Op  string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error: %s: %v", e.Op, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// ConfigError reports invalid parameters such as a split fraction outside (0, 1).
type ConfigError struct {
	Err error
	Op  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IOError reports read or write failures on datasets and artifacts.
type IOError struct {
	Err  error
	Op   string
	Path string
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewDataError wraps err as a DataError raised by op.
func NewDataError(op string, err error) error {
	return &DataError{Op: op, Err: err}
}

// NewConfigError wraps err as a ConfigError raised by op.
func NewConfigError(op string, err error) error {
	return &ConfigError{Op: op, Err: err}
}

// NewIOError wraps err as an IOError raised by op on path.
func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsDataError reports whether err is or wraps a DataError.
func IsDataError(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsIOError reports whether err is or wraps an IOError.
func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsConfigError(err):
		return 2
	case IsDataError(err):
		return 3
	case IsIOError(err):
		return 4
	default:
		return 1
	}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
