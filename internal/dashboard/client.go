// Package dashboard drives one user's view of the weather globe: it fetches
// from the proxy, keeps the latest results, and binds them to the globe scene.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/weather"
)

// Fetcher is the proxy surface a Session depends on.
type Fetcher interface {
	Current(ctx context.Context, query string) (weather.WeatherSnapshot, error)
	Forecast(ctx context.Context, query string, days int) (weather.Forecast, error)
	Images(ctx context.Context, place string, limit int) (weather.ImageResult, error)
	ReverseGeocode(ctx context.Context, c globe.GeoCoordinate) (string, error)
}

// APIError is a non-2xx answer from the proxy.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxy returned %d", e.Status)
	}
	return e.Message
}

// Client talks to a running weather-globe proxy over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) Current(ctx context.Context, query string) (weather.WeatherSnapshot, error) {
	body, err := c.get(ctx, "/api/weather", url.Values{"q": {query}})
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	return weather.ParseCurrent(body)
}

func (c *Client) Forecast(ctx context.Context, query string, days int) (weather.Forecast, error) {
	values := url.Values{"q": {query}}
	if days > 0 {
		values.Set("days", strconv.Itoa(days))
	}
	body, err := c.get(ctx, "/api/forecast", values)
	if err != nil {
		return weather.Forecast{}, err
	}
	return weather.ParseForecast(body)
}

func (c *Client) Images(ctx context.Context, place string, limit int) (weather.ImageResult, error) {
	values := url.Values{"place": {place}}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, "/api/image", values)
	if err != nil {
		return nil, err
	}

	var urls weather.ImageResult
	if err := json.Unmarshal(body, &urls); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if urls == nil {
		urls = weather.ImageResult{}
	}
	return urls, nil
}

func (c *Client) ReverseGeocode(ctx context.Context, coord globe.GeoCoordinate) (string, error) {
	values := url.Values{
		"lat": {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(coord.Lng, 'f', -1, 64)},
	}
	body, err := c.get(ctx, "/api/geocode/reverse", values)
	if err != nil {
		return "", err
	}

	var payload struct {
		Place string `json:"place"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode place: %w", err)
	}
	return payload.Place, nil
}

// Sun returns the proxy's current sun state.
func (c *Client) Sun(ctx context.Context) (globe.SunState, error) {
	body, err := c.get(ctx, "/api/sun", nil)
	if err != nil {
		return globe.SunState{}, err
	}

	var payload struct {
		Direction globe.Vec3 `json:"direction"`
		Intensity float64    `json:"intensity"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return globe.SunState{}, fmt.Errorf("decode sun: %w", err)
	}
	return globe.SunState{Direction: payload.Direction, Intensity: payload.Intensity}, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(values) > 0 {
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		return nil, apiErr
	}
	return body, nil
}

// isCancelled reports whether err means the load was superseded or abandoned.
func isCancelled(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == weather.StatusClientClosedRequest
	}
	return errors.Is(err, context.Canceled) || weather.IsCancelled(err)
}
