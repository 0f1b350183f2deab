package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Messages returns the error strings.
func (ve ValidationErrors) Messages() []string {
	messages := make([]string, len(ve))
	for i, err := range ve {
		messages[i] = err.Error()
	}
	return messages
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

var aliasPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateAlias checks that a network alias is a usable DNS label.
func ValidateAlias(field, alias string) error {
	if err := ValidateRequired(field, alias, "container definition"); err != nil {
		return err
	}
	if len(alias) > 63 || !aliasPattern.MatchString(alias) {
		return ValidationError{
			Field:   field,
			Value:   alias,
			Message: "must be a lower-case DNS label (a-z, 0-9, '-')",
		}
	}
	return nil
}

// Validate runs the semantic checks the JSON schema cannot express:
// unique aliases, no collision with built-in keys, known service names and
// enabled dependencies of the enabled services.
func Validate(cfg PlatformConfig) ValidationErrors {
	var errs ValidationErrors

	for _, name := range cfg.Components.Services {
		if err := ValidateOneOf("components.services", name, BuiltinServices); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}
	enabled := make(map[string]bool)
	for _, name := range cfg.Components.EnabledServices() {
		enabled[name] = true
	}
	for _, name := range cfg.Components.EnabledServices() {
		for _, dep := range ServiceRequires[name] {
			if !enabled[dep] {
				errs.Add("components.services", fmt.Sprintf("%s requires %s, which is not enabled", name, dep), name)
			}
		}
	}

	for name := range cfg.PlatformOverrides.Services {
		if err := ValidateOneOf("platformOverrides.services", name, BuiltinServices); err != nil {
			errs = append(errs, err.(ValidationError))
		}
	}

	seen := make(map[string]string)
	check := func(flavor string, defs Definitions) {
		for i, def := range defs {
			field := fmt.Sprintf("container.%s[%d]", flavor, i)
			if err := ValidateAlias(field+".networkAlias", def.NetworkAlias); err != nil {
				errs = append(errs, err.(ValidationError))
				continue
			}
			if err := ValidateRequired(field+".image", def.Image, "container definition"); err != nil {
				errs = append(errs, err.(ValidationError))
			}
			if IsReservedKey(def.NetworkAlias) {
				errs.Add(field+".networkAlias", "collides with a built-in container", def.NetworkAlias)
			}
			if previous, dup := seen[def.NetworkAlias]; dup {
				errs.Add(field+".networkAlias", fmt.Sprintf("duplicates %s", previous), def.NetworkAlias)
			} else {
				seen[def.NetworkAlias] = field
			}
			if def.Port < 0 || def.Port > 65535 {
				errs.Add(field+".port", "must be between 1 and 65535", def.Port)
			}
			if def.Database != nil && flavor != "service" {
				errs.Add(field+".database", "is only supported for service containers")
			}
		}
	}
	check("service", cfg.Container.Service)
	check("bff", cfg.Container.BFF)
	check("ui", cfg.Container.UI)

	if cfg.Heartbeat.Interval < 0 {
		errs.Add("heartbeat.interval", "must not be negative", cfg.Heartbeat.Interval.Duration().String())
	}
	if cfg.Heartbeat.FailureThreshold < 0 {
		errs.Add("heartbeat.failureThreshold", "must not be negative", cfg.Heartbeat.FailureThreshold)
	}

	return errs
}
