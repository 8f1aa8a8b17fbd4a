package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// Validate checks the entire configuration and returns every problem at
// once rather than stopping at the first.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateBackend(&cfg.Backend)
	v.validateGeneration(&cfg.Generation)
	v.validateSandbox(&cfg.Sandbox)
	v.validateState(&cfg.State)
	v.validateExport(&cfg.Export)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(field string, value interface{}, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch cfg.Level {
	case "debug", "info", "warn", "error", "":
	default:
		v.addError("log.level", cfg.Level, "must be one of debug, info, warn, error")
	}
	switch cfg.Format {
	case "json", "text", "auto", "":
	default:
		v.addError("log.format", cfg.Format, "must be one of json, text, auto")
	}
}

func (v *Validator) validateBackend(cfg *BackendConfig) {
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		v.addError("backend.temperature", cfg.Temperature, "must be between 0 and 2")
	}
	if cfg.MaxRetries < 0 {
		v.addError("backend.max_retries", cfg.MaxRetries, "cannot be negative")
	}
	if cfg.RequestsPerSecond <= 0 {
		v.addError("backend.requests_per_second", cfg.RequestsPerSecond, "must be positive")
	}
	if cfg.BurstSize < 1 {
		v.addError("backend.burst_size", cfg.BurstSize, "must be at least 1")
	}
	v.validateDuration("backend.timeout", cfg.Timeout)
}

func (v *Validator) validateGeneration(cfg *GenerationConfig) {
	if cfg.MaxWorkers < 1 {
		v.addError("generation.max_workers", cfg.MaxWorkers, "must be at least 1")
	}
	if cfg.WorkDir == "" {
		v.addError("generation.work_dir", cfg.WorkDir, "cannot be empty")
	}
}

func (v *Validator) validateSandbox(cfg *SandboxConfig) {
	if cfg.Enabled && cfg.Interpreter == "" {
		v.addError("sandbox.interpreter", cfg.Interpreter, "required when the sandbox is enabled")
	}
	v.validateDuration("sandbox.timeout", cfg.Timeout)
}

func (v *Validator) validateState(cfg *StateConfig) {
	switch cfg.Backend {
	case "json", "sqlite", "":
	default:
		v.addError("state.backend", cfg.Backend, "must be json or sqlite")
	}
	if cfg.Path == "" {
		v.addError("state.path", cfg.Path, "cannot be empty")
	}
}

func (v *Validator) validateExport(cfg *ExportConfig) {
	switch cfg.Format {
	case "markdown", "text", "":
	default:
		v.addError("export.format", cfg.Format, "must be markdown or text")
	}
}

func (v *Validator) validateDuration(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.ParseDuration(value); err != nil {
		v.addError(field, value, "must be a duration like 30s or 2m")
	}
}
