package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-globe/internal/metrics"
	"github.com/i474232898/weather-globe/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultWeatherAPIBaseURL is the WeatherAPI.com v1 root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// WeatherAPIProvider implements weather.WeatherSource for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string, m *metrics.Metrics) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
			Metrics: m,
		},
		circuit: newCircuit("weatherapi"),
	}
}

// WithBackoff overrides the retry policy.
func (p *WeatherAPIProvider) WithBackoff(b BackoffConfig) *WeatherAPIProvider {
	p.httpCfg.Backoff = b
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Current calls current.json and returns the body unchanged.
func (p *WeatherAPIProvider) Current(ctx context.Context, query string) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("aqi", "no")
	return p.get(ctx, "current.json", values)
}

// Forecast calls forecast.json and returns the body unchanged.
func (p *WeatherAPIProvider) Forecast(ctx context.Context, query string, days int) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("days", strconv.Itoa(days))
	values.Set("aqi", "no")
	values.Set("alerts", "no")
	return p.get(ctx, "forecast.json", values)
}

func (p *WeatherAPIProvider) get(ctx context.Context, endpoint string, values url.Values) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, &weather.ConfigError{Key: "WEATHER_KEY"}
	}
	values.Set("key", p.apiKey)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	body, err := doRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &weather.TransportError{Provider: p.name, Err: fmt.Errorf("%s: invalid JSON body", endpoint)}
	}
	return json.RawMessage(body), nil
}
