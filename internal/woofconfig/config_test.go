package woofconfig

import "testing"

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	t.Setenv("WOOF_CACHE_DIR", "")
	t.Setenv("WOOF_RUNNER_VERSION", "")
	t.Setenv("WOOF_LOG_LEVEL", "")
	t.Setenv("WOOF_LOG_FORMAT", "")

	cfg := Load()
	if cfg.CacheDir != defaultCacheDir {
		t.Fatalf("CacheDir = %q, want %q", cfg.CacheDir, defaultCacheDir)
	}
	if cfg.RunnerVersion != defaultRunnerVersion {
		t.Fatalf("RunnerVersion = %q, want %q", cfg.RunnerVersion, defaultRunnerVersion)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	if cfg.LogFormat != defaultLogFormat {
		t.Fatalf("LogFormat = %q, want %q", cfg.LogFormat, defaultLogFormat)
	}
}

func TestLoad_HonorsEnvOverrides(t *testing.T) {
	t.Setenv("WOOF_CACHE_DIR", "/tmp/cache")
	t.Setenv("WOOF_RUNNER_VERSION", "1.2.3")
	t.Setenv("WOOF_LOG_LEVEL", "debug")
	t.Setenv("WOOF_LOG_FORMAT", "json")

	cfg := Load()
	if cfg.CacheDir != "/tmp/cache" {
		t.Fatalf("CacheDir = %q, want /tmp/cache", cfg.CacheDir)
	}
	if cfg.RunnerVersion != "1.2.3" {
		t.Fatalf("RunnerVersion = %q, want 1.2.3", cfg.RunnerVersion)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat = %q, want json", cfg.LogFormat)
	}
}
