// Package errors provides the error types shared by the tag browser.
// Callers match them with the standard errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"
)

// New is errors.New, re-exported so callers need one import.
var New = errors.New

// Is is errors.Is.
var Is = errors.Is

// As is errors.As.
var As = errors.As

var (
	// ErrNotFound indicates that a requested folder or file was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutsideRoot indicates a path that resolves outside the browse root.
	ErrOutsideRoot = errors.New("path outside root")
)

// ConfigError is a fatal configuration problem, such as a missing root
// pointer file.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Component != "" {
		msg = fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	} else {
		msg = "configuration error: " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// RowError describes one CSV row that could not be applied.
type RowError struct {
	Line   int
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("line %d (%s): %s", e.Line, e.Path, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Unwrap implements errors.Unwrap.
func (e *RowError) Unwrap() error {
	return e.Err
}

// Is reports row errors as invalid input unless they wrap something else.
func (e *RowError) Is(target error) bool {
	return e.Err == nil && target == ErrInvalidInput
}

// PathError is returned when a relative folder path cannot be used.
type PathError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("folder %q: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a new PathError.
func NewPathError(path string, err error) *PathError {
	return &PathError{Path: path, Err: err}
}
