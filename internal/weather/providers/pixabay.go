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

// DefaultPixabayBaseURL is the Pixabay image search endpoint.
const DefaultPixabayBaseURL = "https://pixabay.com/api/"

// Pixabay accepts per_page in [3, 200].
const (
	pixabayMinPerPage = 3
	pixabayMaxPerPage = 200
)

// PixabayProvider implements weather.ImageSource for Pixabay.
type PixabayProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewPixabayProvider(client *http.Client, apiKey, baseURL string, m *metrics.Metrics) *PixabayProvider {
	if baseURL == "" {
		baseURL = DefaultPixabayBaseURL
	}

	return &PixabayProvider{
		name:    "pixabay",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
			Metrics: m,
		},
		circuit: newCircuit("pixabay"),
	}
}

// WithBackoff overrides the retry policy.
func (p *PixabayProvider) WithBackoff(b BackoffConfig) *PixabayProvider {
	p.httpCfg.Backoff = b
	return p
}

func (p *PixabayProvider) Name() string {
	return p.name
}

// Search returns the photo hits for term in upstream order.
func (p *PixabayProvider) Search(ctx context.Context, term string, perPage int) ([]weather.ImageCandidate, error) {
	if p.apiKey == "" {
		return nil, &weather.ConfigError{Key: "PIXABAY_API_KEY"}
	}

	if perPage < pixabayMinPerPage {
		perPage = pixabayMinPerPage
	}
	if perPage > pixabayMaxPerPage {
		perPage = pixabayMaxPerPage
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", term)
	values.Set("image_type", "photo")
	values.Set("orientation", "horizontal")
	values.Set("safesearch", "true")
	values.Set("per_page", strconv.Itoa(perPage))

	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+sep+values.Encode(), nil)
	}

	body, err := doRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Hits []struct {
			LargeImageURL string `json:"largeImageURL"`
			WebformatURL  string `json:"webformatURL"`
			ImageWidth    int    `json:"imageWidth"`
			ImageHeight   int    `json:"imageHeight"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &weather.TransportError{Provider: p.name, Err: fmt.Errorf("decode hits: %w", err)}
	}

	candidates := make([]weather.ImageCandidate, 0, len(payload.Hits))
	for _, h := range payload.Hits {
		u := h.LargeImageURL
		if u == "" {
			u = h.WebformatURL
		}
		candidates = append(candidates, weather.ImageCandidate{
			URL:    u,
			Width:  h.ImageWidth,
			Height: h.ImageHeight,
		})
	}
	return candidates, nil
}
