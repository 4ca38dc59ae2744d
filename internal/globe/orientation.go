package globe

import (
	"fmt"
	"math"
	"time"
)

// Animation defaults taken from the dashboard's earth controls.
const (
	// BaseOffset aligns the equirectangular base texture's seam with geographic zero.
	// It must be recalibrated if the day texture changes.
	BaseOffset = -math.Pi / 2

	TweenDuration = 500 * time.Millisecond
	ZoomDuration  = 300 * time.Millisecond

	// IdleRate is the autonomous spin in radians per second.
	IdleRate = 0.0012

	MinZoom = 0.5
	MaxZoom = 3.0
)

// Orientation is the globe rotation as XYZ Euler angles in radians.
type Orientation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// InitialOrientation is the resting pose before any location is selected.
var InitialOrientation = Orientation{X: 0, Y: BaseOffset, Z: 0}

// TargetFor returns the orientation that faces c towards the camera.
func TargetFor(c GeoCoordinate) Orientation {
	return Orientation{
		X: -degToRad(c.Lat),
		Y: BaseOffset - degToRad(c.Lng),
		Z: 0,
	}
}

func (o Orientation) matrix() mat3 {
	return rotX(o.X).mul(rotY(o.Y)).mul(rotZ(o.Z))
}

func lerpOrientation(a, b Orientation, t float64) Orientation {
	return Orientation{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// nearestAngle returns the angle equivalent to target modulo 2π that is closest to from.
func nearestAngle(from, target float64) float64 {
	d := math.Remainder(target-from, 2*math.Pi)
	return from + d
}

// State of the orientation state machine.
type State int

const (
	StateIdle State = iota
	StateTransitioning
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTransitioning:
		return "transitioning"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

func Linear(t float64) float64 { return t }

// EaseOutQuad decelerates towards the target.
func EaseOutQuad(t float64) float64 { return 1 - (1-t)*(1-t) }

// EaseInOutQuad accelerates then decelerates.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// AnimatorOptions tune an Animator. Zero values pick the package defaults.
type AnimatorOptions struct {
	Easing   Easing
	Duration time.Duration
	IdleRate float64
}

type rotationTween struct {
	from, to Orientation
	start    time.Time
	duration time.Duration
}

type scalarTween struct {
	from, to float64
	start    time.Time
	duration time.Duration
}

// Animator tweens the globe between orientations. At most one rotation tween is active;
// starting a new one cancels the previous. It is not safe for concurrent use.
type Animator struct {
	current Orientation
	state   State
	rot     *rotationTween

	zoom     float64
	zoomTwn  *scalarTween
	last     time.Time
	easing   Easing
	duration time.Duration
	idleRate float64
}

// NewAnimator creates an idle animator at InitialOrientation.
func NewAnimator(now time.Time, opts AnimatorOptions) *Animator {
	a := &Animator{
		current:  InitialOrientation,
		state:    StateIdle,
		zoom:     1,
		last:     now,
		easing:   opts.Easing,
		duration: opts.Duration,
		idleRate: opts.IdleRate,
	}
	if a.easing == nil {
		a.easing = EaseInOutQuad
	}
	if a.duration <= 0 {
		a.duration = TweenDuration
	}
	if a.idleRate == 0 {
		a.idleRate = IdleRate
	}
	return a
}

// Orientation is the pose as of the last Step.
func (a *Animator) Orientation() Orientation { return a.current }

// State reports whether the globe is idle, tweening or being dragged.
func (a *Animator) State() State { return a.state }

// Zoom is the current globe scale, 1 by default.
func (a *Animator) Zoom() float64 { return a.zoom }

// FocusOn starts a tween that brings c to the front of the globe.
func (a *Animator) FocusOn(c GeoCoordinate, now time.Time) error {
	if err := c.Validate(); err != nil {
		return err
	}
	a.RotateTo(TargetFor(c), now)
	return nil
}

// SetManualRotation applies slider input in degrees.
func (a *Animator) SetManualRotation(lat, lng float64, now time.Time) {
	a.RotateTo(TargetFor(GeoCoordinate{Lat: lat, Lng: lng}), now)
}

// RotateTo cancels any in-flight tween and starts a new one from the current pose.
// Y is unwrapped so accumulated idle spin never causes extra full turns.
func (a *Animator) RotateTo(target Orientation, now time.Time) {
	a.Step(now)
	target.Y = nearestAngle(a.current.Y, target.Y)
	a.rot = &rotationTween{
		from:     a.current,
		to:       target,
		start:    now,
		duration: a.duration,
	}
	a.state = StateTransitioning
}

// SetZoom tweens the globe scale to z, clamped to [MinZoom, MaxZoom].
func (a *Animator) SetZoom(z float64, now time.Time) {
	a.Step(now)
	if math.IsNaN(z) {
		z = 1
	}
	a.zoomTwn = &scalarTween{
		from:     a.zoom,
		to:       clamp(z, MinZoom, MaxZoom),
		start:    now,
		duration: ZoomDuration,
	}
}

// Reset returns to the neutral pose and unit zoom.
func (a *Animator) Reset(now time.Time) {
	a.SetManualRotation(0, 0, now)
	a.SetZoom(1, now)
}

// BeginDrag hands control to interactive orbit input; tweens and idle spin stop.
func (a *Animator) BeginDrag(now time.Time) {
	a.Step(now)
	a.rot = nil
	a.state = StateDragging
}

// Drag sets the orientation directly while dragging.
func (a *Animator) Drag(o Orientation) {
	if a.state == StateDragging {
		a.current = o
	}
}

func (a *Animator) EndDrag(now time.Time) {
	if a.state != StateDragging {
		return
	}
	a.state = StateIdle
	a.last = now
}

// Cancel drops all tweens and leaves the globe where it is.
func (a *Animator) Cancel() {
	a.rot = nil
	a.zoomTwn = nil
	if a.state == StateTransitioning {
		a.state = StateIdle
	}
}

// Step advances the animation to now and returns the resulting orientation.
func (a *Animator) Step(now time.Time) Orientation {
	dt := now.Sub(a.last)
	if dt < 0 {
		dt = 0
	}
	a.last = now

	switch a.state {
	case StateTransitioning:
		p := progress(a.rot.start, a.rot.duration, now)
		if p >= 1 {
			a.current = a.rot.to
			a.rot = nil
			a.state = StateIdle
		} else {
			a.current = lerpOrientation(a.rot.from, a.rot.to, a.easing(p))
		}
	case StateIdle:
		a.current.Y += a.idleRate * dt.Seconds()
	}

	if a.zoomTwn != nil {
		p := progress(a.zoomTwn.start, a.zoomTwn.duration, now)
		if p >= 1 {
			a.zoom = a.zoomTwn.to
			a.zoomTwn = nil
		} else {
			a.zoom = a.zoomTwn.from + (a.zoomTwn.to-a.zoomTwn.from)*EaseOutQuad(p)
		}
	}

	return a.current
}

func progress(start time.Time, d time.Duration, now time.Time) float64 {
	if d <= 0 {
		return 1
	}
	return clamp(float64(now.Sub(start))/float64(d), 0, 1)
}
