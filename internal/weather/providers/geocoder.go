package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/metrics"
	"github.com/i474232898/weather-globe/internal/weather"
	"github.com/kelvins/geocoder"
)

// The geocoder package keeps its API key in a package variable, so the key is
// process-wide: it is written once per constructor and read under the lock by
// every lookup.
var geocoderKeyMu sync.RWMutex

// MaxInflightLookups bounds concurrent lookups per geocoder. The library call
// takes no context, so a cancelled lookup keeps its slot until it returns.
const MaxInflightLookups = 4

// GoogleGeocoder implements weather.ReverseGeocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	name     string
	apiKey   string
	metrics  *metrics.Metrics
	inflight chan struct{}
	reverse  func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleGeocoder(apiKey string, m *metrics.Metrics) *GoogleGeocoder {
	if apiKey != "" {
		geocoderKeyMu.Lock()
		geocoder.ApiKey = apiKey
		geocoderKeyMu.Unlock()
	}
	return &GoogleGeocoder{
		name:     "google_geocoder",
		apiKey:   apiKey,
		metrics:  m,
		inflight: make(chan struct{}, MaxInflightLookups),
		reverse:  geocoder.GeocodingReverse,
	}
}

func (g *GoogleGeocoder) lookup(loc geocoder.Location) ([]geocoder.Address, error) {
	geocoderKeyMu.RLock()
	defer geocoderKeyMu.RUnlock()
	return g.reverse(loc)
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// Reverse returns "City, State" for c, or the formatted address when the city is unknown.
func (g *GoogleGeocoder) Reverse(ctx context.Context, c globe.GeoCoordinate) (string, error) {
	if g.apiKey == "" {
		return "", &weather.ConfigError{Key: "GOOGLE_GEOCODER_API_KEY"}
	}

	type result struct {
		addrs []geocoder.Address
		err   error
	}

	start := time.Now()
	if err := ctx.Err(); err != nil {
		g.metrics.ObserveUpstream(g.name, "cancelled", time.Since(start))
		return "", contextError(g.name, err)
	}
	select {
	case g.inflight <- struct{}{}:
	case <-ctx.Done():
		g.metrics.ObserveUpstream(g.name, "cancelled", time.Since(start))
		return "", contextError(g.name, ctx.Err())
	}

	done := make(chan result, 1)
	go func() {
		defer func() { <-g.inflight }()
		addrs, err := g.lookup(geocoder.Location{Latitude: c.Lat, Longitude: c.Lng})
		done <- result{addrs: addrs, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		g.metrics.ObserveUpstream(g.name, "cancelled", time.Since(start))
		return "", contextError(g.name, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		g.metrics.ObserveUpstream(g.name, "transport_error", time.Since(start))
		return "", &weather.TransportError{Provider: g.name, Err: res.err}
	}

	place := placeName(res.addrs)
	if place == "" {
		g.metrics.ObserveUpstream(g.name, fmt.Sprintf("status_%d", http.StatusNotFound), time.Since(start))
		return "", &weather.UpstreamError{
			Provider: g.name,
			Status:   http.StatusNotFound,
			Details:  "no address found for " + c.String(),
		}
	}

	g.metrics.ObserveUpstream(g.name, "ok", time.Since(start))
	return place, nil
}

func placeName(addrs []geocoder.Address) string {
	for _, a := range addrs {
		if a.City != "" {
			parts := []string{a.City}
			if a.State != "" {
				parts = append(parts, a.State)
			}
			return strings.Join(parts, ", ")
		}
	}
	for _, a := range addrs {
		if a.FormattedAddress != "" {
			return a.FormattedAddress
		}
	}
	return ""
}
