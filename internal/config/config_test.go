package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "HTTP_TIMEOUT", "WEATHER_KEY", "WEATHERAPI_API_KEY", "WEATHERAPI_BASE_URL",
	"PIXABAY_API_KEY", "PIXABAY_BASE_URL", "GOOGLE_GEOCODER_API_KEY", "SUN_UPDATE_INTERVAL",
	"LOG_LEVEL", "LOG_FILE", "TEXTURE_DAY", "TEXTURE_NIGHT", "TEXTURE_SPECULAR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	// Keep godotenv away from any .env in the package directory.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SunUpdateInterval != 20*time.Second {
		t.Fatalf("expected 20s sun interval, got %s", cfg.SunUpdateInterval)
	}
	if cfg.WeatherAPIKey != "" || cfg.PixabayAPIKey != "" {
		t.Fatalf("expected no keys by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("WEATHERAPI_API_KEY", "legacy")
	t.Setenv("WEATHER_KEY", "primary")
	t.Setenv("PIXABAY_API_KEY", "pix")
	t.Setenv("SUN_UPDATE_INTERVAL", "45s")
	t.Setenv("TEXTURE_DAY", "/tmp/day.jpg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.WeatherAPIKey != "primary" || cfg.PixabayAPIKey != "pix" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SunUpdateInterval != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.SunUpdateInterval)
	}
	if cfg.Textures.Day != "/tmp/day.jpg" {
		t.Fatalf("unexpected day texture %q", cfg.Textures.Day)
	}
}

func TestLoadLegacyWeatherKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHERAPI_API_KEY", "legacy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WeatherAPIKey != "legacy" {
		t.Fatalf("expected legacy key, got %q", cfg.WeatherAPIKey)
	}
}

func TestLoadYAMLFileBelowEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "globe.yaml")
	content := "port: \"7070\"\nhttp_timeout: 3s\nweather_key: from-file\nlog_level: debug\ntextures:\n  night: night.png\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7070" || cfg.HTTPTimeout != 3*time.Second || cfg.WeatherAPIKey != "from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Textures.Night != "night.png" {
		t.Fatalf("expected nested texture value, got %q", cfg.Textures.Night)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env to override file, got %q", cfg.LogLevel)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
