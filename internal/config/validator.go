package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"stagehand/pkg/logging"
)

const validatorSubsystem = "ConfigValidator"

//go:embed schema.json
var schemaJSON []byte

// ValidationResult is the outcome of locating and validating a
// configuration file. Config is set only when Valid is true.
type ValidationResult struct {
	Valid  bool
	Path   string
	Config *PlatformConfig
	Errors []string
}

func invalid(path string, messages ...string) ValidationResult {
	return ValidationResult{Path: path, Errors: messages}
}

// Validator locates and validates integration-tests configuration files.
type Validator struct {
	logger   *logging.Logger
	schema   *gojsonschema.Schema
	maxDepth int
}

// NewValidator compiles the embedded JSON schema.
func NewValidator(logger *logging.Logger) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile configuration schema: %w", err)
	}
	return &Validator{
		logger:   logger,
		schema:   schema,
		maxDepth: DefaultSearchDepth,
	}, nil
}

// Load searches root for a configuration file and validates it. Every
// failure is reported through the result; Load never panics on bad input.
func (v *Validator) Load(root string) ValidationResult {
	path, err := FindConfigFile(root, v.maxDepth)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			v.logger.Debug(validatorSubsystem, "No configuration file found below %s", root)
		}
		return invalid("", err.Error())
	}
	return v.ValidateFile(path)
}

// ValidateFile reads and validates the file at path.
func (v *Validator) ValidateFile(path string) ValidationResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return invalid(path, fmt.Sprintf("failed to read %s: %v", path, err))
	}
	result := v.Validate(data)
	result.Path = path
	if result.Valid {
		v.logger.Info(validatorSubsystem, "Loaded configuration from %s", path)
	} else {
		v.logger.Debug(validatorSubsystem, "Configuration %s is invalid: %v", path, result.Errors)
	}
	return result
}

// Validate checks data against the schema and the semantic rules and
// extracts the platformConfig object merged over Default().
func (v *Validator) Validate(data []byte) ValidationResult {
	if !json.Valid(data) {
		return invalid("", "configuration is not valid JSON")
	}

	schemaResult, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return invalid("", fmt.Sprintf("schema validation error: %v", err))
	}
	if !schemaResult.Valid() {
		messages := make([]string, 0, len(schemaResult.Errors()))
		for _, e := range schemaResult.Errors() {
			messages = append(messages, e.String())
		}
		return invalid("", messages...)
	}

	cfg := Default()
	file := FileConfig{PlatformConfig: &cfg}
	if err := json.Unmarshal(data, &file); err != nil {
		return invalid("", fmt.Sprintf("failed to decode platformConfig: %v", err))
	}

	if errs := Validate(cfg); errs.HasErrors() {
		return invalid("", errs.Messages()...)
	}

	return ValidationResult{Valid: true, Config: &cfg}
}

// Resolve picks the effective configuration: explicit wins, then a valid
// file below root, then Default(). An invalid file is logged as a warning.
func (v *Validator) Resolve(explicit *PlatformConfig, root string) PlatformConfig {
	if explicit != nil {
		return *explicit
	}
	if root == "" {
		return Default()
	}

	result := v.Load(root)
	if result.Valid {
		return *result.Config
	}
	if result.Path != "" {
		v.logger.Warn(validatorSubsystem, "Ignoring invalid configuration %s, using defaults: %v", result.Path, result.Errors)
	}
	return Default()
}
