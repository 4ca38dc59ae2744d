package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/scheduler"
	"github.com/i474232898/weather-globe/internal/store"
	"github.com/i474232898/weather-globe/internal/weather"
)

// Store keys, one per kind of load.
const (
	keyCurrent  = "current"
	keyForecast = "forecast"
	keyImages   = "images"
	keyPlace    = "place"
)

// Options configure a Session.
type Options struct {
	Fetcher      Fetcher
	ForecastDays int
	ImageLimit   int
	SunInterval  time.Duration
	Clock        func() time.Time
	Scene        globe.SceneOptions
}

// Session is one dashboard: the query, its fetched data, and the globe scene
// that follows it. Loads are last-initiated-wins per kind.
type Session struct {
	ID string

	fetcher Fetcher
	days    int
	limit   int
	clock   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	query string

	current  *store.LatestStore[weather.WeatherSnapshot]
	forecast *store.LatestStore[weather.Forecast]
	images   *store.LatestStore[weather.ImageResult]
	place    *store.LatestStore[string]

	tracker *scheduler.SunTracker
	scene   *globe.Scene
	log     *zap.Logger
}

// NewSession creates a session with its own sun tracker and scene. The tracker
// is started and released with the scene.
func NewSession(opts Options) (*Session, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ForecastDays == 0 {
		opts.ForecastDays = weather.DefaultForecastDays
	}
	if opts.ImageLimit == 0 {
		opts.ImageLimit = weather.DefaultImageLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	s := &Session{
		ID:       id,
		fetcher:  opts.Fetcher,
		days:     opts.ForecastDays,
		limit:    opts.ImageLimit,
		clock:    opts.Clock,
		ctx:      ctx,
		cancel:   cancel,
		current:  store.NewLatestStore[weather.WeatherSnapshot](),
		forecast: store.NewLatestStore[weather.Forecast](),
		images:   store.NewLatestStore[weather.ImageResult](),
		place:    store.NewLatestStore[string](),
		log:      logger.Named("dashboard", zap.String("session", id)),
	}

	s.tracker = scheduler.NewSunTracker(opts.SunInterval, opts.Clock)

	sceneOpts := opts.Scene
	sceneOpts.Sun = s.tracker
	userSelect := sceneOpts.OnSelect
	sceneOpts.OnSelect = func(c globe.GeoCoordinate) {
		s.onPicked(c)
		if userSelect != nil {
			userSelect(c)
		}
	}
	s.scene = globe.NewScene(opts.Clock(), sceneOpts)

	if err := s.tracker.Start(); err != nil {
		cancel()
		return nil, err
	}

	// Acquired first so it is released last, after the loads are drained.
	if _, err := s.scene.Resources().Acquire("sun-tracker", s.tracker.Close); err != nil {
		cancel()
		s.tracker.Stop()
		return nil, err
	}
	_, err := s.scene.Resources().Acquire("fetches", func() error {
		s.cancel()
		s.current.Close()
		s.forecast.Close()
		s.images.Close()
		s.place.Close()
		s.wg.Wait()
		return nil
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Scene is the globe bound to this session.
func (s *Session) Scene() *globe.Scene { return s.scene }

// Search sets a text query and starts loading current conditions and the forecast.
// The globe rotates to the resolved location once current conditions arrive.
func (s *Session) Search(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	// Current and forecast are replaced by their own loads; the rest goes now.
	s.place.Clear(keyPlace)
	s.images.Clear(keyImages)
	s.loadWeather(query, true)
}

// onPicked runs when a double click selects a point on the globe.
func (s *Session) onPicked(c globe.GeoCoordinate) {
	query := c.String()
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	s.images.Clear(keyImages)
	s.loadWeather(query, false)
	s.loadPlace(c)
}

// Pick feeds a pointer-down at a world-space point on the earth.
func (s *Session) Pick(world globe.Vec3, now time.Time) (globe.GeoCoordinate, bool) {
	return s.scene.PointerDown(globe.EarthTarget, world, now)
}

func (s *Session) loadWeather(query string, focus bool) {
	curCtx, curTok := s.current.Begin(s.ctx, keyCurrent)
	fcCtx, fcTok := s.forecast.Begin(s.ctx, keyForecast)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		snap, err := s.fetcher.Current(curCtx, query)
		if err != nil {
			if s.fail(s.current.Fail, s.current.Abandon, curTok, err) {
				s.images.Clear(keyImages)
				if focus {
					s.scene.ClearSelection()
				}
			}
			return
		}
		if !s.current.Commit(curTok, snap) {
			return
		}
		if focus {
			c := globe.GeoCoordinate{Lat: snap.Location.Lat, Lng: snap.Location.Lon}
			if err := s.scene.Select(c, s.clock()); err != nil {
				s.log.Warn("cannot focus globe", zap.Error(err))
			}
		}

		place := snap.Location.Place()
		if place == "" {
			place = query
		}
		s.loadImages(place)
	}()

	go func() {
		defer s.wg.Done()
		fc, err := s.fetcher.Forecast(fcCtx, query, s.days)
		if err != nil {
			s.fail(s.forecast.Fail, s.forecast.Abandon, fcTok, err)
			return
		}
		s.forecast.Commit(fcTok, fc)
	}()
}

func (s *Session) loadImages(place string) {
	ctx, tok := s.images.Begin(s.ctx, keyImages)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		urls, err := s.fetcher.Images(ctx, place, s.limit)
		if err != nil {
			s.fail(s.images.Fail, s.images.Abandon, tok, err)
			return
		}
		s.images.Commit(tok, urls)
	}()
}

func (s *Session) loadPlace(c globe.GeoCoordinate) {
	ctx, tok := s.place.Begin(s.ctx, keyPlace)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		name, err := s.fetcher.ReverseGeocode(ctx, c)
		if err != nil {
			s.fail(s.place.Fail, s.place.Abandon, tok, err)
			return
		}
		s.place.Commit(tok, name)
	}()
}

// fail clears stale data for a failed load and reports whether the failure
// was recorded. Cancelled and superseded loads leave data untouched.
func (s *Session) fail(record func(store.Token, error) bool, abandon func(store.Token) bool, tok store.Token, err error) bool {
	if isCancelled(err) {
		abandon(tok)
		return false
	}
	if !record(tok, err) {
		return false
	}
	s.log.Warn("dashboard load failed", zap.String("kind", tok.Key), zap.Error(err))
	return true
}

// Wait blocks until every load started so far has settled.
func (s *Session) Wait() {
	s.wg.Wait()
}

// View is a point-in-time copy of the dashboard state.
type View struct {
	Query    string
	Place    string
	Current  *weather.WeatherSnapshot
	Forecast *weather.Forecast
	Images   weather.ImageResult
	Loading  bool
	Errors   map[string]string
	Sun      globe.SunState
}

// Cover returns the cover image, if any.
func (v View) Cover() (string, bool) {
	return v.Images.Cover()
}

// View returns the current dashboard state.
func (s *Session) View() View {
	s.mu.Lock()
	v := View{Query: s.query, Errors: map[string]string{}}
	s.mu.Unlock()

	cur := s.current.Entry(keyCurrent)
	if cur.HasValue {
		v.Current = &cur.Value
	}
	fc := s.forecast.Entry(keyForecast)
	if fc.HasValue {
		v.Forecast = &fc.Value
	}
	img := s.images.Entry(keyImages)
	if img.HasValue {
		v.Images = img.Value
	}
	pl := s.place.Entry(keyPlace)
	if pl.HasValue {
		v.Place = pl.Value
	} else if v.Current != nil {
		v.Place = v.Current.Location.Place()
	}

	for key, err := range map[string]error{
		keyCurrent:  cur.Err,
		keyForecast: fc.Err,
		keyImages:   img.Err,
		keyPlace:    pl.Err,
	} {
		if err != nil {
			v.Errors[key] = err.Error()
		}
	}
	v.Loading = cur.Loading || fc.Loading || img.Loading || pl.Loading
	v.Sun = s.tracker.Current()
	return v
}

// Close tears down the scene and everything it owns: in-flight loads, tweens and the sun tracker.
func (s *Session) Close() error {
	return s.scene.Close()
}
