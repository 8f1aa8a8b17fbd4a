package config

// setDefaults registers the default value for every key so a bare
// environment still yields a runnable configuration.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("backend.model", "gpt-4o-mini")
	l.v.SetDefault("backend.temperature", 0.7)
	l.v.SetDefault("backend.max_retries", 3)
	l.v.SetDefault("backend.requests_per_second", 1.0)
	l.v.SetDefault("backend.burst_size", 10.0)
	l.v.SetDefault("backend.timeout", "2m")

	l.v.SetDefault("generation.parallel", true)
	l.v.SetDefault("generation.max_workers", 4)
	l.v.SetDefault("generation.work_dir", ".longform/work")

	l.v.SetDefault("sandbox.enabled", false)
	l.v.SetDefault("sandbox.interpreter", "python3")
	l.v.SetDefault("sandbox.timeout", "30s")

	l.v.SetDefault("state.backend", "json")
	l.v.SetDefault("state.path", ".longform/checkpoints")

	l.v.SetDefault("export.format", "markdown")
	l.v.SetDefault("export.dir", ".")
}
