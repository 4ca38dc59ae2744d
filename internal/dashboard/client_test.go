package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/weather-globe/internal/globe"
)

func newProxy(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"weatherapi API error: 404","status":404,"details":"No matching location found."}`)
			return
		}
		fmt.Fprint(w, `{"location":{"name":"Paris","region":"Ile-de-France","lat":48.87,"lon":2.33},"current":{"temp_c":16,"condition":{"text":"Sunny","code":1000}}}`)
	})
	mux.HandleFunc("/api/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("days") != "2" {
			t.Errorf("unexpected days %q", r.URL.Query().Get("days"))
		}
		fmt.Fprint(w, `{"forecast":{"forecastday":[{"date":"2026-10-19"},{"date":"2026-10-20"}]}}`)
	})
	mux.HandleFunc("/api/image", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["https://img/a.jpg","https://img/b.jpg"]`)
	})
	mux.HandleFunc("/api/geocode/reverse", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"lat":%s,"lng":%s,"place":"Somewhere"}`, r.URL.Query().Get("lat"), r.URL.Query().Get("lng"))
	})
	mux.HandleFunc("/api/sun", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"direction":{"x":1,"y":0,"z":0},"intensity":0.35}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDecodesResponses(t *testing.T) {
	srv := newProxy(t)
	c := NewClient(srv.URL+"/", srv.Client())
	ctx := context.Background()

	snap, err := c.Current(ctx, "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Location.Name != "Paris" || snap.Current.TempC != 16 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	fc, err := c.Forecast(ctx, "Paris", 2)
	if err != nil || len(fc.Days) != 2 {
		t.Fatalf("unexpected forecast %+v (%v)", fc, err)
	}

	imgs, err := c.Images(ctx, "Paris", 2)
	if err != nil || len(imgs) != 2 {
		t.Fatalf("unexpected images %v (%v)", imgs, err)
	}

	place, err := c.ReverseGeocode(ctx, globe.GeoCoordinate{Lat: 1.5, Lng: -2})
	if err != nil || place != "Somewhere" {
		t.Fatalf("unexpected place %q (%v)", place, err)
	}

	sun, err := c.Sun(ctx)
	if err != nil || sun.Direction.X != 1 || sun.Intensity != 0.35 {
		t.Fatalf("unexpected sun %+v (%v)", sun, err)
	}
}

func TestClientReturnsAPIError(t *testing.T) {
	srv := newProxy(t)
	c := NewClient(srv.URL, srv.Client())

	_, err := c.Current(context.Background(), "Atlantis")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected API error, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Details != "No matching location found." {
		t.Fatalf("unexpected API error %+v", apiErr)
	}
	if isCancelled(err) {
		t.Fatalf("a 404 is not a cancellation")
	}
}

func TestClientCancellation(t *testing.T) {
	srv := newProxy(t)
	c := NewClient(srv.URL, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Current(ctx, "Paris")
	if !isCancelled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if !isCancelled(&APIError{Status: 499}) {
		t.Fatalf("expected 499 to count as cancellation")
	}
}
