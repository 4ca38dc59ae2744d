package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/i474232898/weather-globe/internal/metrics"
	"github.com/i474232898/weather-globe/internal/weather"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by the constructors in this package.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	Metrics *metrics.Metrics
}

// maxBodyBytes bounds how much of an upstream body is read.
const maxBodyBytes = 4 << 20

var (
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

func newCircuit(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// retryable reports whether an upstream status warrants another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doRequestWithResilience executes the request with retries, exponential backoff
// and a circuit breaker, and returns the body of a 2xx response.
//
// 429 and 5xx answers count as breaker failures and are retried. Other non-2xx
// answers are returned at once as *weather.UpstreamError carrying the body text.
func doRequestWithResilience(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	start := time.Now()
	body, err := retryLoop(ctx, provider, cfg, cb, buildRequest)
	cfg.Metrics.ObserveUpstream(provider, outcome(err), time.Since(start))
	return body, err
}

func retryLoop(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) ([]byte, error) {
	var attempt int

	for {
		if err := ctx.Err(); err != nil {
			return nil, contextError(provider, err)
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("build %s request: %w", provider, err)
		}

		var upstream *weather.UpstreamError
		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if readErr != nil {
				return nil, readErr
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				upstream = &weather.UpstreamError{Provider: provider, Status: resp.StatusCode, Details: string(body)}
				if retryable(resp.StatusCode) {
					return nil, upstream
				}
				// Client errors are the caller's fault, not the upstream's.
				return nil, nil
			}
			return body, nil
		})

		if err == nil {
			if upstream != nil {
				return nil, upstream
			}
			body, ok := result.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(provider, ctxErr)
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.TransportError{Provider: provider, Err: err}
		}

		if attempt >= cfg.Backoff.MaxRetries {
			if upstream != nil {
				return nil, upstream
			}
			return nil, &weather.TransportError{Provider: provider, Err: err}
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, contextError(provider, ctx.Err())
		case <-timer.C:
		}

		attempt++
	}
}

func contextError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &weather.CancelledError{Err: err}
	}
	return &weather.TransportError{Provider: provider, Err: err}
}

func outcome(err error) string {
	var upstream *weather.UpstreamError
	switch {
	case err == nil:
		return "ok"
	case weather.IsCancelled(err):
		return "cancelled"
	case errors.As(err, &upstream):
		return fmt.Sprintf("status_%d", upstream.Status)
	default:
		return "transport_error"
	}
}
