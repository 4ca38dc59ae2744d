package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/scheduler"
	"github.com/i474232898/weather-globe/internal/weather/providers"
)

type AppConfig struct {
	Port        string        `yaml:"port"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	WeatherAPIKey     string `yaml:"weather_key"`
	WeatherAPIBaseURL string `yaml:"weatherapi_base_url"`
	PixabayAPIKey     string `yaml:"pixabay_api_key"`
	PixabayBaseURL    string `yaml:"pixabay_base_url"`
	GeocoderAPIKey    string `yaml:"google_geocoder_api_key"`

	// SunUpdateInterval is clamped to the scheduler's bounds by the sun tracker.
	SunUpdateInterval time.Duration `yaml:"sun_update_interval"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Textures TextureConfig `yaml:"textures"`
}

// TextureConfig holds optional paths to the globe surface maps.
type TextureConfig struct {
	Day      string `yaml:"day"`
	Night    string `yaml:"night"`
	Specular string `yaml:"specular"`
}

// Default returns the configuration used when nothing is set.
func Default() *AppConfig {
	return &AppConfig{
		Port:              "8080",
		HTTPTimeout:       10 * time.Second,
		WeatherAPIBaseURL: providers.DefaultWeatherAPIBaseURL,
		PixabayBaseURL:    providers.DefaultPixabayBaseURL,
		SunUpdateInterval: scheduler.DefaultSunInterval,
		LogLevel:          "info",
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by CONFIG_FILE, and the environment, in increasing priority.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not load .env file: " + err.Error())
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	c.Port = getenvDefault("PORT", c.Port)
	// WEATHER_KEY wins over the older WEATHERAPI_API_KEY name.
	c.WeatherAPIKey = getenvDefault("WEATHERAPI_API_KEY", c.WeatherAPIKey)
	c.WeatherAPIKey = getenvDefault("WEATHER_KEY", c.WeatherAPIKey)
	c.WeatherAPIBaseURL = getenvDefault("WEATHERAPI_BASE_URL", c.WeatherAPIBaseURL)
	c.PixabayAPIKey = getenvDefault("PIXABAY_API_KEY", c.PixabayAPIKey)
	c.PixabayBaseURL = getenvDefault("PIXABAY_BASE_URL", c.PixabayBaseURL)
	c.GeocoderAPIKey = getenvDefault("GOOGLE_GEOCODER_API_KEY", c.GeocoderAPIKey)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
	c.LogFile = getenvDefault("LOG_FILE", c.LogFile)
	c.Textures.Day = getenvDefault("TEXTURE_DAY", c.Textures.Day)
	c.Textures.Night = getenvDefault("TEXTURE_NIGHT", c.Textures.Night)
	c.Textures.Specular = getenvDefault("TEXTURE_SPECULAR", c.Textures.Specular)

	var err error
	if c.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", c.HTTPTimeout); err != nil {
		return err
	}
	if c.SunUpdateInterval, err = getenvDuration("SUN_UPDATE_INTERVAL", c.SunUpdateInterval); err != nil {
		return err
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
