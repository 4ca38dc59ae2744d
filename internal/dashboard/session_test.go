package dashboard

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/weather"
)

var t0 = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

// fakeFetcher answers from a table. A query listed in gates blocks until its gate is closed.
type fakeFetcher struct {
	mu        sync.Mutex
	locations map[string]weather.Location
	gates     map[string]chan struct{}
	failWith  map[string]error
	imageReqs []string
	reverse   []globe.GeoCoordinate
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		locations: map[string]weather.Location{
			"Paris": {Name: "Paris", Region: "Ile-de-France", Lat: 48.87, Lon: 2.33},
			"Tokyo": {Name: "Tokyo", Region: "Tokyo", Lat: 35.69, Lon: 139.69},
		},
		gates:    map[string]chan struct{}{},
		failWith: map[string]error{},
	}
}

func (f *fakeFetcher) wait(ctx context.Context, query string) error {
	f.mu.Lock()
	gate := f.gates[query]
	err := f.failWith[query]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeFetcher) location(query string) weather.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loc, ok := f.locations[query]; ok {
		return loc
	}
	return weather.Location{Name: query}
}

func (f *fakeFetcher) Current(ctx context.Context, query string) (weather.WeatherSnapshot, error) {
	if err := f.wait(ctx, query); err != nil {
		return weather.WeatherSnapshot{}, err
	}
	return weather.WeatherSnapshot{Location: f.location(query)}, nil
}

func (f *fakeFetcher) Forecast(ctx context.Context, query string, days int) (weather.Forecast, error) {
	if err := f.wait(ctx, query); err != nil {
		return weather.Forecast{}, err
	}
	return weather.Forecast{Location: f.location(query), Days: make([]weather.ForecastDay, days)}, nil
}

func (f *fakeFetcher) Images(ctx context.Context, place string, limit int) (weather.ImageResult, error) {
	f.mu.Lock()
	f.imageReqs = append(f.imageReqs, place)
	f.mu.Unlock()
	return weather.ImageResult{"https://img/" + place + ".jpg"}, nil
}

func (f *fakeFetcher) ReverseGeocode(ctx context.Context, c globe.GeoCoordinate) (string, error) {
	f.mu.Lock()
	f.reverse = append(f.reverse, c)
	f.mu.Unlock()
	return "Sydney, New South Wales", nil
}

func newTestSession(t *testing.T, f Fetcher) *Session {
	t.Helper()
	s, err := NewSession(Options{
		Fetcher:      f,
		ForecastDays: 3,
		Clock:        func() time.Time { return t0 },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionSearchLoadsEverything(t *testing.T) {
	f := newFakeFetcher()
	s := newTestSession(t, f)

	s.Search("Paris")
	s.Wait()

	v := s.View()
	if v.Query != "Paris" || v.Loading {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Current == nil || v.Current.Location.Name != "Paris" {
		t.Fatalf("expected current conditions for Paris, got %+v", v.Current)
	}
	if v.Forecast == nil || len(v.Forecast.Days) != 3 {
		t.Fatalf("expected 3 forecast days, got %+v", v.Forecast)
	}
	if cover, ok := v.Cover(); !ok || cover != "https://img/Paris, Ile-de-France.jpg" {
		t.Fatalf("unexpected cover %q", cover)
	}
	if v.Place != "Paris, Ile-de-France" {
		t.Fatalf("unexpected place %q", v.Place)
	}
	if len(v.Errors) != 0 {
		t.Fatalf("unexpected errors %v", v.Errors)
	}

	c, ok := s.Scene().Selected()
	if !ok || c.Lat != 48.87 || c.Lng != 2.33 {
		t.Fatalf("expected globe focused on Paris, got %+v %v", c, ok)
	}
	if v.Sun.Direction.Len() < 0.999 {
		t.Fatalf("expected unit sun direction, got %+v", v.Sun.Direction)
	}
}

func TestSessionLastSearchWins(t *testing.T) {
	f := newFakeFetcher()
	gate := make(chan struct{})
	f.gates["Paris"] = gate
	s := newTestSession(t, f)

	s.Search("Paris")
	s.Search("Tokyo")
	// The superseded Paris load was cancelled; releasing the gate must not resurrect it.
	close(gate)
	s.Wait()

	v := s.View()
	if v.Current == nil || v.Current.Location.Name != "Tokyo" {
		t.Fatalf("expected Tokyo to win, got %+v", v.Current)
	}
	if v.Forecast == nil || v.Forecast.Location.Name != "Tokyo" {
		t.Fatalf("expected Tokyo forecast, got %+v", v.Forecast)
	}
	if len(v.Errors) != 0 {
		t.Fatalf("cancellation must not surface as an error, got %v", v.Errors)
	}
}

func TestSessionErrorClearsStaleData(t *testing.T) {
	f := newFakeFetcher()
	s := newTestSession(t, f)

	s.Search("Paris")
	s.Wait()

	f.mu.Lock()
	f.failWith["Atlantis"] = &APIError{Status: 404, Message: "weatherapi API error: 404"}
	f.mu.Unlock()

	s.Search("Atlantis")
	s.Wait()

	v := s.View()
	if v.Current != nil || v.Forecast != nil {
		t.Fatalf("expected stale data cleared, got %+v", v)
	}
	if len(v.Images) != 0 {
		t.Fatalf("expected Paris images cleared, got %v", v.Images)
	}
	if c, ok := s.Scene().Selected(); ok {
		t.Fatalf("expected globe selection cleared, got %+v", c)
	}
	if v.Errors[keyCurrent] != "weatherapi API error: 404" {
		t.Fatalf("expected recorded error, got %v", v.Errors)
	}
	if len(f.imageReqs) != 1 {
		t.Fatalf("failed search must not load images, got %v", f.imageReqs)
	}
}

func TestSessionNewSearchHidesPreviousImages(t *testing.T) {
	f := newFakeFetcher()
	s := newTestSession(t, f)

	s.Search("Paris")
	s.Wait()
	if _, ok := s.View().Cover(); !ok {
		t.Fatal("expected Paris cover")
	}

	gate := make(chan struct{})
	f.mu.Lock()
	f.gates["Tokyo"] = gate
	f.mu.Unlock()

	s.Search("Tokyo")
	if v := s.View(); len(v.Images) != 0 {
		t.Fatalf("expected previous query's images gone while loading, got %v", v.Images)
	}

	close(gate)
	s.Wait()
	if cover, ok := s.View().Cover(); !ok || cover != "https://img/Tokyo, Tokyo.jpg" {
		t.Fatalf("unexpected cover %q", cover)
	}
}

func TestSessionPickLoadsCoordinates(t *testing.T) {
	f := newFakeFetcher()
	s := newTestSession(t, f)
	scene := s.Scene()

	want := globe.GeoCoordinate{Lat: -33.87, Lng: 151.21}
	world := scene.LocalToWorld(globe.LatLngToVector3(want.Lat, want.Lng, 1))

	if _, fired := s.Pick(world, t0); fired {
		t.Fatalf("single click must not select")
	}
	got, fired := s.Pick(world, t0.Add(100*time.Millisecond))
	if !fired {
		t.Fatalf("expected double click to select")
	}
	if math.Abs(got.Lat-want.Lat) > 1e-6 || math.Abs(got.Lng-want.Lng) > 1e-6 {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	s.Wait()

	v := s.View()
	if v.Query != got.String() {
		t.Fatalf("expected coordinate query, got %q", v.Query)
	}
	if v.Place != "Sydney, New South Wales" {
		t.Fatalf("expected reverse geocoded place, got %q", v.Place)
	}
	if len(f.reverse) != 1 {
		t.Fatalf("expected one reverse geocode, got %d", len(f.reverse))
	}
}

func TestSessionCloseCancelsLoads(t *testing.T) {
	f := newFakeFetcher()
	f.gates["Paris"] = make(chan struct{})
	s, err := NewSession(Options{Fetcher: f, Clock: func() time.Time { return t0 }})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Search("Paris")

	done := make(chan error, 1)
	go func() { done <- s.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel in-flight loads")
	}

	if _, err := s.Scene().Frame(t0); !errors.Is(err, globe.ErrSceneClosed) {
		t.Fatalf("expected closed scene, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close must be a no-op, got %v", err)
	}
}
