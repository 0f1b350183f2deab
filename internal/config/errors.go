package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a platform configuration that cannot be
// started: a service whose dependency is not enabled, or a container
// definition that is missing required values. It is fatal and not retried.
type ConfigurationError struct {
	Component   string   `json:"component"`            // Container the error is about
	Dependency  string   `json:"dependency,omitempty"` // Missing dependency, if any
	Field       string   `json:"field,omitempty"`      // Offending field, if any
	Message     string   `json:"message"`              // Human-readable error message
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", ce.Component, ce.Message)
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error: %s", ce.Component))
	if ce.Dependency != "" {
		parts = append(parts, fmt.Sprintf("  Requires: %s", ce.Dependency))
	}
	if ce.Field != "" {
		parts = append(parts, fmt.Sprintf("  Field: %s", ce.Field))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// NewMissingDependencyError reports that component requires dependency,
// which is not enabled or not running.
func NewMissingDependencyError(component, dependency string) *ConfigurationError {
	return &ConfigurationError{
		Component:  component,
		Dependency: dependency,
		Message:    fmt.Sprintf("%s requires %s, which is not enabled", component, dependency),
		Suggestions: []string{
			fmt.Sprintf("enable %s in components.services", dependency),
			fmt.Sprintf("or remove %s from components.services", component),
		},
	}
}

// NewMissingFieldError reports a required value that was not supplied.
func NewMissingFieldError(component, field string) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Field:     field,
		Message:   fmt.Sprintf("%s is required", field),
	}
}
