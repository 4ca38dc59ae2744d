package weather

import (
	"context"
	"encoding/json"

	"github.com/i474232898/weather-globe/internal/globe"
)

// WeatherSource abstracts a current-conditions and forecast upstream (e.g. WeatherAPI.com).
// Payloads are returned verbatim so the proxy can pass them through unchanged.
type WeatherSource interface {
	Name() string
	Current(ctx context.Context, query string) (json.RawMessage, error)
	Forecast(ctx context.Context, query string, days int) (json.RawMessage, error)
}

// ImageSource abstracts an image search upstream (e.g. Pixabay).
type ImageSource interface {
	Name() string
	Search(ctx context.Context, term string, perPage int) ([]ImageCandidate, error)
}

// ReverseGeocoder resolves a coordinate to a human readable place name.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c globe.GeoCoordinate) (string, error)
}
