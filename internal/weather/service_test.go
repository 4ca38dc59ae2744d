package weather

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/i474232898/weather-globe/internal/globe"
)

type fakeWeather struct {
	current  json.RawMessage
	forecast json.RawMessage
	err      error
	days     int
}

func (f *fakeWeather) Name() string { return "fake" }

func (f *fakeWeather) Current(ctx context.Context, q string) (json.RawMessage, error) {
	return f.current, f.err
}

func (f *fakeWeather) Forecast(ctx context.Context, q string, days int) (json.RawMessage, error) {
	f.days = days
	return f.forecast, f.err
}

type fakeImages struct {
	term    string
	perPage int
	hits    []ImageCandidate
	err     error
}

func (f *fakeImages) Name() string { return "fake-images" }

func (f *fakeImages) Search(ctx context.Context, term string, perPage int) ([]ImageCandidate, error) {
	f.term, f.perPage = term, perPage
	return f.hits, f.err
}

type fakeGeocoder struct{ place string }

func (f fakeGeocoder) Reverse(ctx context.Context, c globe.GeoCoordinate) (string, error) {
	return f.place, nil
}

func TestServiceValidation(t *testing.T) {
	svc := NewService(&fakeWeather{}, &fakeImages{}, fakeGeocoder{})
	ctx := context.Background()

	var verr *ValidationError
	if _, err := svc.Current(ctx, "  "); !errors.As(err, &verr) || verr.Field != "q" {
		t.Fatalf("expected q validation error, got %v", err)
	}
	if _, err := svc.Forecast(ctx, "Paris", 15); !errors.As(err, &verr) || verr.Field != "days" {
		t.Fatalf("expected days validation error, got %v", err)
	}
	if _, err := svc.Images(ctx, "", 0); !errors.As(err, &verr) || verr.Field != "place" {
		t.Fatalf("expected place validation error, got %v", err)
	}
	if _, err := svc.Images(ctx, "Paris", 21); !errors.As(err, &verr) || verr.Field != "limit" {
		t.Fatalf("expected limit validation error, got %v", err)
	}
	if _, err := svc.ReversePlace(ctx, globe.GeoCoordinate{Lat: 91}); !errors.As(err, &verr) {
		t.Fatalf("expected coordinate validation error, got %v", err)
	}
}

func TestServiceMissingSourcesAreConfigErrors(t *testing.T) {
	svc := NewService(nil, nil, nil)
	ctx := context.Background()

	var cerr *ConfigError
	if _, err := svc.Current(ctx, "Paris"); !errors.As(err, &cerr) {
		t.Fatalf("expected config error, got %v", err)
	}
	if _, err := svc.Images(ctx, "Paris", 3); !errors.As(err, &cerr) || cerr.Key != "PIXABAY_API_KEY" {
		t.Fatalf("expected pixabay config error, got %v", err)
	}
	if _, err := svc.ReversePlace(ctx, globe.GeoCoordinate{}); !errors.As(err, &cerr) {
		t.Fatalf("expected geocoder config error, got %v", err)
	}
}

func TestServiceForecastDefaultsDays(t *testing.T) {
	src := &fakeWeather{forecast: json.RawMessage(`{}`)}
	svc := NewService(src, nil, nil)

	if _, err := svc.Forecast(context.Background(), "Paris", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.days != DefaultForecastDays {
		t.Fatalf("expected %d days, got %d", DefaultForecastDays, src.days)
	}
}

func TestServiceImagesSearchesSkyline(t *testing.T) {
	imgs := &fakeImages{hits: []ImageCandidate{
		{URL: "wide", Width: 1280, Height: 720},
		{URL: "exact", Width: 1920, Height: 1080},
	}}
	svc := NewService(nil, imgs, nil)

	got, err := svc.Images(context.Background(), "Tokyo", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imgs.term != "Tokyo skyline" {
		t.Fatalf("unexpected search term %q", imgs.term)
	}
	if cover, _ := got.Cover(); cover != "exact" {
		t.Fatalf("expected exact match as cover, got %v", got)
	}
}

func TestServiceOverview(t *testing.T) {
	src := &fakeWeather{current: json.RawMessage(currentJSON), forecast: json.RawMessage(forecastJSON)}
	imgs := &fakeImages{err: &UpstreamError{Provider: "fake-images", Status: 500}}
	svc := NewService(src, imgs, nil)

	ov, err := svc.Overview(context.Background(), "Paris", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.Snapshot.Location.Name != "Paris" || len(ov.Forecast.Days) != 2 {
		t.Fatalf("unexpected overview: %+v", ov)
	}
	if imgs.term != "Paris, Ile-de-France skyline" {
		t.Fatalf("expected search by resolved place, got %q", imgs.term)
	}
	if ov.Images == nil || len(ov.Images) != 0 {
		t.Fatalf("expected empty images after image failure, got %#v", ov.Images)
	}

	failing := NewService(&fakeWeather{err: &UpstreamError{Status: 400}}, imgs, nil)
	if _, err := failing.Overview(context.Background(), "Nowhere", 2); StatusFor(err) != 400 {
		t.Fatalf("expected upstream 400, got %v", err)
	}
}
