package globe

import (
	"errors"
	"math"
	"sync"
	"time"
)

// EarthTarget is the pointer target name of the globe mesh.
const EarthTarget = "earth"

// ErrSceneClosed is returned by operations on a torn-down scene.
var ErrSceneClosed = errors.New("scene closed")

// SunSource supplies the most recently computed sun state.
type SunSource interface {
	Current() SunState
}

// RenderFunc draws one frame. A returned error or panic trips the render boundary.
type RenderFunc func(FrameState) error

// SceneOptions configure a Scene.
type SceneOptions struct {
	Animator          AnimatorOptions
	DoubleClickWindow time.Duration
	RetryAfter        time.Duration
	Sun               SunSource
	Render            RenderFunc
	OnSelect          func(GeoCoordinate)
}

// FrameState is everything a renderer needs for one frame.
type FrameState struct {
	Orientation Orientation `json:"orientation"`
	Zoom        float64     `json:"zoom"`
	State       string      `json:"state"`
	Sun         SunState    `json:"sun"`
	Pin         *Vec3       `json:"pin,omitempty"`
	PinScale    float64     `json:"pinScale"`
	Placeholder bool        `json:"placeholder"`
}

// Scene binds the animator, picker, sun source and owned resources of one globe view.
// All methods are safe for concurrent use.
type Scene struct {
	mu        sync.Mutex
	animator  *Animator
	picker    *Picker
	boundary  *RenderBoundary
	resources *ResourceScope
	sun       SunSource
	render    RenderFunc
	onSelect  func(GeoCoordinate)
	selected  *GeoCoordinate
	started   time.Time
	closed    bool
}

func NewScene(now time.Time, opts SceneOptions) *Scene {
	s := &Scene{
		animator:  NewAnimator(now, opts.Animator),
		picker:    NewPicker(opts.DoubleClickWindow),
		boundary:  NewRenderBoundary(opts.RetryAfter),
		resources: NewResourceScope(),
		sun:       opts.Sun,
		render:    opts.Render,
		onSelect:  opts.OnSelect,
		started:   now,
	}
	_, _ = s.resources.Acquire("tweens", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.animator.Cancel()
		return nil
	})
	return s
}

// Resources is the scope torn down with the scene.
func (s *Scene) Resources() *ResourceScope { return s.resources }

// Select marks c on the globe and rotates it into view.
func (s *Scene) Select(c GeoCoordinate, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSceneClosed
	}
	return s.selectLocked(c, now)
}

func (s *Scene) selectLocked(c GeoCoordinate, now time.Time) error {
	if err := s.animator.FocusOn(c, now); err != nil {
		return err
	}
	s.selected = &c
	return nil
}

// Selected returns the current location, if any.
func (s *Scene) Selected() (GeoCoordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return GeoCoordinate{}, false
	}
	return *s.selected, true
}

// ClearSelection drops the pinned location without moving the globe.
func (s *Scene) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

func (s *Scene) ManualRotate(lat, lng float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.SetManualRotation(lat, lng, now)
}

func (s *Scene) Zoom(z float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.SetZoom(z, now)
}

func (s *Scene) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.Reset(now)
}

func (s *Scene) BeginDrag(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.BeginDrag(now)
}

func (s *Scene) Drag(o Orientation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.Drag(o)
}

func (s *Scene) EndDrag(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.EndDrag(now)
}

// worldMatrix maps the globe's local frame to world space: axial tilt, then spin, then zoom.
func (s *Scene) worldMatrix() (mat3, float64) {
	return rotZ(degToRad(AxialTilt)).mul(s.animator.Orientation().matrix()), s.animator.Zoom()
}

// WorldToLocal transforms a world-space hit point into the sphere's local frame.
func (s *Scene) WorldToLocal(p Vec3) Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worldToLocalLocked(p)
}

func (s *Scene) worldToLocalLocked(p Vec3) Vec3 {
	m, zoom := s.worldMatrix()
	if zoom == 0 {
		zoom = 1
	}
	return m.transpose().mulVec(p).Scale(1 / zoom)
}

// LocalToWorld is the inverse of WorldToLocal.
func (s *Scene) LocalToWorld(p Vec3) Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, zoom := s.worldMatrix()
	return m.mulVec(p.Scale(zoom))
}

// PointerDown feeds a world-space pointer-down on target. A completed double click
// on the earth selects the clicked location and invokes OnSelect.
func (s *Scene) PointerDown(target string, world Vec3, now time.Time) (GeoCoordinate, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return GeoCoordinate{}, false
	}
	local := s.worldToLocalLocked(world)
	sel, fired := s.picker.PointerDown(PointerEvent{Target: target, Point: local}, now)
	if fired && target == EarthTarget {
		if err := s.selectLocked(sel.Coordinate, now); err != nil {
			fired = false
		}
	} else {
		fired = false
	}
	cb := s.onSelect
	s.mu.Unlock()

	if fired && cb != nil {
		cb(sel.Coordinate)
	}
	return sel.Coordinate, fired
}

// Frame advances animations to now and renders through the render boundary.
func (s *Scene) Frame(now time.Time) (FrameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return FrameState{}, ErrSceneClosed
	}

	s.picker.Tick(now)
	o := s.animator.Step(now)

	fs := FrameState{
		Orientation: o,
		Zoom:        s.animator.Zoom(),
		State:       s.animator.State().String(),
	}
	if s.sun != nil {
		fs.Sun = s.sun.Current()
	}
	if s.selected != nil {
		pin := LatLngToVector3(s.selected.Lat, s.selected.Lng, DefaultPinRadius)
		fs.Pin = &pin
		fs.PinScale = 0.55 + 0.1*math.Sin(now.Sub(s.started).Seconds())
	}

	if s.render == nil {
		return fs, nil
	}
	ok, err := s.boundary.Run(now, func() error { return s.render(fs) })
	if !ok {
		fs.Placeholder = true
	}
	return fs, err
}

// Close releases every resource owned by the scene. It is idempotent.
func (s *Scene) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.resources.Close()
}
