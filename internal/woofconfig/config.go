// Package woofconfig reads the handful of process-level environment
// variables WOOFNB consults (spec.md §6). These are infra knobs only —
// cache directory, runner version, log shape — never notebook-execution
// input, so reading them here never threatens the determinism of
// internal/cache.Key (which is a pure function of notebook content).
//
// Grounded on internal/cli.ParseInvocation's stance of keeping
// environment reads out of the run-input path entirely; this package is
// the one deliberate, narrow exception for WOOF_* settings. The only
// other environment read in the tree is cmd/woof forwarding PATH to the
// bash backend.
package woofconfig

import "os"

const (
	defaultCacheDir      = ".woof-cache"
	defaultRunnerVersion = "dev"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
)

// Config holds WOOFNB's process-level settings.
type Config struct {
	CacheDir      string
	RunnerVersion string
	LogLevel      string
	LogFormat     string
}

// Load reads Config from the environment, falling back to documented
// defaults for anything unset.
func Load() Config {
	return Config{
		CacheDir:      getenvDefault("WOOF_CACHE_DIR", defaultCacheDir),
		RunnerVersion: getenvDefault("WOOF_RUNNER_VERSION", defaultRunnerVersion),
		LogLevel:      getenvDefault("WOOF_LOG_LEVEL", defaultLogLevel),
		LogFormat:     getenvDefault("WOOF_LOG_FORMAT", defaultLogFormat),
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
