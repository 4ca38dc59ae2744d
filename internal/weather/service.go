package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultForecastDays = 7
	MaxForecastDays     = 14
)

// Service validates proxy requests and dispatches them to the configured upstreams.
type Service struct {
	weather  WeatherSource
	images   ImageSource
	geocoder ReverseGeocoder
}

// NewService creates a new Service. Any source may be nil; calls needing it then fail with a ConfigError.
func NewService(weather WeatherSource, images ImageSource, geocoder ReverseGeocoder) *Service {
	return &Service{
		weather:  weather,
		images:   images,
		geocoder: geocoder,
	}
}

// Current returns the upstream current-conditions payload for query.
func (s *Service) Current(ctx context.Context, query string) (json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "q"}
	}
	if s.weather == nil {
		return nil, &ConfigError{Key: "WEATHER_KEY"}
	}
	return s.weather.Current(ctx, query)
}

// Forecast returns the upstream forecast payload for query. days of 0 means DefaultForecastDays.
func (s *Service) Forecast(ctx context.Context, query string, days int) (json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "q"}
	}
	if days == 0 {
		days = DefaultForecastDays
	}
	if days < 1 || days > MaxForecastDays {
		return nil, &ValidationError{Field: "days", Reason: fmt.Sprintf("must be between 1 and %d", MaxForecastDays)}
	}
	if s.weather == nil {
		return nil, &ConfigError{Key: "WEATHER_KEY"}
	}
	return s.weather.Forecast(ctx, query, days)
}

// Images searches cover images for place and returns the best ranked URLs.
func (s *Service) Images(ctx context.Context, place string, limit int) (ImageResult, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, &ValidationError{Field: "place"}
	}
	if limit == 0 {
		limit = DefaultImageLimit
	}
	if limit < 1 || limit > MaxImageLimit {
		return nil, &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", MaxImageLimit)}
	}
	if s.images == nil {
		return nil, &ConfigError{Key: "PIXABAY_API_KEY"}
	}

	// Fetch a wider page than requested so the preferred tier has something to choose from.
	candidates, err := s.images.Search(ctx, SkylineTerm(place), limit*4)
	if err != nil {
		return nil, err
	}
	return RankImages(candidates, limit), nil
}

// ReversePlace names the place at c.
func (s *Service) ReversePlace(ctx context.Context, c globe.GeoCoordinate) (string, error) {
	if err := c.Validate(); err != nil {
		return "", &ValidationError{Field: "lat,lng", Reason: err.Error()}
	}
	if s.geocoder == nil {
		return "", &ConfigError{Key: "GOOGLE_GEOCODER_API_KEY"}
	}
	return s.geocoder.Reverse(ctx, c)
}

// Overview is the parsed current conditions, forecast and cover images for one query.
type Overview struct {
	Snapshot WeatherSnapshot `json:"current"`
	Forecast Forecast        `json:"forecast"`
	Images   ImageResult     `json:"images"`
}

// Overview fetches current conditions and the forecast concurrently, then the
// cover images for the resolved place. Image failures are logged and leave
// Images empty; weather failures are returned.
func (s *Service) Overview(ctx context.Context, query string, days int) (Overview, error) {
	var (
		wg                   sync.WaitGroup
		current, forecast    json.RawMessage
		currErr, forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currErr = s.Current(ctx, query)
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = s.Forecast(ctx, query, days)
	}()
	wg.Wait()

	if currErr != nil {
		return Overview{}, currErr
	}
	if forecastErr != nil {
		return Overview{}, forecastErr
	}

	var out Overview
	var err error
	if out.Snapshot, err = ParseCurrent(current); err != nil {
		return Overview{}, err
	}
	if out.Forecast, err = ParseForecast(forecast); err != nil {
		return Overview{}, err
	}

	place := out.Snapshot.Location.Place()
	if place == "" {
		place = query
	}
	out.Images, err = s.Images(ctx, place, DefaultImageLimit)
	if err != nil {
		if IsCancelled(err) {
			return Overview{}, err
		}
		logger.Warn("cover image lookup failed", zap.String("place", place), zap.Error(err))
		out.Images = ImageResult{}
	}
	return out, nil
}
