package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates a configuration file was not found.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrLLMProviderNotFound indicates the named LLM provider is not registered.
	ErrLLMProviderNotFound = errors.New("LLM provider not found")
)

// ValidationError wraps a single configuration field failure with enough
// context for the warn-and-fallback validator to log a useful message.
type ValidationError struct {
	Component string // section being validated (embedding, rate_limit, retry_queue, ...)
	Field     string
	Err       error
}

// Error returns a formatted error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field '%s': %v", e.Component, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error.
func NewValidationError(component, field string, err error) *ValidationError {
	return &ValidationError{Component: component, Field: field, Err: err}
}

// LoadError wraps a configuration file loading failure with file context.
type LoadError struct {
	File string
	Err  error
}

// Error returns a formatted error message.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new load error.
func NewLoadError(file string, err error) *LoadError {
	return &LoadError{File: file, Err: err}
}
