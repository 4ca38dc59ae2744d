package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-globe/internal/api/http"
	"github.com/i474232898/weather-globe/internal/config"
	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/metrics"
	"github.com/i474232898/weather-globe/internal/scheduler"
	"github.com/i474232898/weather-globe/internal/weather"
	"github.com/i474232898/weather-globe/internal/weather/providers"
)

func main() {
	if err := logger.Init("info", ""); err != nil {
		panic(err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()

	m := metrics.New()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers with resilience (backoff + circuit breaker). Missing keys surface
	// as 500s per request rather than failing startup.
	wp := providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL, m)
	pp := providers.NewPixabayProvider(httpClient, cfg.PixabayAPIKey, cfg.PixabayBaseURL, m)
	gp := providers.NewGoogleGeocoder(cfg.GeocoderAPIKey, m)

	for key, set := range map[string]bool{
		"WEATHER_KEY":             cfg.WeatherAPIKey != "",
		"PIXABAY_API_KEY":         cfg.PixabayAPIKey != "",
		"GOOGLE_GEOCODER_API_KEY": cfg.GeocoderAPIKey != "",
	} {
		if !set {
			logger.Warn("credential not configured", zap.String("key", key))
		}
	}

	service := weather.NewService(wp, pp, gp)

	textures, err := globe.LoadTextures(cfg.Textures.Day, cfg.Textures.Night, cfg.Textures.Specular)
	if err != nil {
		logger.Warn("textures unavailable, using flat colors", zap.Error(err))
	}

	// Periodic sun recomputation shared by /sun and /daynight.png.
	sun := scheduler.NewSunTracker(cfg.SunUpdateInterval, nil)
	sun.OnUpdate(func(s globe.SunState) { m.SetSunIntensity(s.Intensity) })
	m.SetSunIntensity(sun.Current().Intensity)
	if err := sun.Start(); err != nil {
		logger.Fatal("failed to start sun tracker", zap.Error(err))
	}
	defer sun.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-globe",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-globe",
		})
	})

	// Cancelled on SIGINT/SIGTERM; in-flight upstream calls are aborted with it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service:  service,
		Sun:      sun,
		Textures: textures,
		Metrics:  m,
		Context:  ctx,
	})

	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
