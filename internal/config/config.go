// Package config loads and validates application configuration from
// defaults, config files, environment variables, and CLI flags.
package config

// Config holds all application configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Generation GenerationConfig `mapstructure:"generation"`
	Sandbox    SandboxConfig    `mapstructure:"sandbox"`
	State      StateConfig      `mapstructure:"state"`
	Export     ExportConfig     `mapstructure:"export"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BackendConfig configures the text-generation backend.
type BackendConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxRetries  int     `mapstructure:"max_retries"`
	// RequestsPerSecond is the sustained rate allowed across all
	// concurrent section workers.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         float64 `mapstructure:"burst_size"`
	Timeout           string  `mapstructure:"timeout"`
}

// GenerationConfig configures document generation.
type GenerationConfig struct {
	Parallel   bool   `mapstructure:"parallel"`
	MaxWorkers int    `mapstructure:"max_workers"`
	WorkDir    string `mapstructure:"work_dir"`
}

// SandboxConfig configures analysis-script execution.
type SandboxConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Interpreter string `mapstructure:"interpreter"`
	Timeout     string `mapstructure:"timeout"`
}

// StateConfig configures checkpoint persistence.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // "json" or "sqlite"
	Path    string `mapstructure:"path"`
}

// ExportConfig configures document output.
type ExportConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}
