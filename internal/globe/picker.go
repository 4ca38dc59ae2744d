package globe

import "time"

// DoubleClickWindow is the maximum gap between the two pointer-downs of a double click.
const DoubleClickWindow = 300 * time.Millisecond

// PickerState is the double-click detector state.
type PickerState int

const (
	PickerIdle PickerState = iota
	PickerArmed
)

// PointerEvent is a pointer-down on a rendered object. Point is the hit position
// in the target's local frame.
type PointerEvent struct {
	Target string
	Point  Vec3
}

// Selection is raised by a completed double click.
type Selection struct {
	Coordinate GeoCoordinate `json:"coordinate"`
	Point      Vec3          `json:"point"`
}

// Picker detects double clicks: Idle -> Armed(deadline, target) -> fires -> Idle.
type Picker struct {
	window   time.Duration
	state    PickerState
	deadline time.Time
	target   string
}

func NewPicker(window time.Duration) *Picker {
	if window <= 0 {
		window = DoubleClickWindow
	}
	return &Picker{window: window}
}

func (p *Picker) State() PickerState { return p.state }

// PointerDown feeds one pointer-down. It returns a selection when ev completes a double click.
func (p *Picker) PointerDown(ev PointerEvent, now time.Time) (Selection, bool) {
	p.Tick(now)

	if p.state == PickerArmed && ev.Target == p.target {
		p.Reset()
		return Selection{
			Coordinate: Vector3ToLatLng(ev.Point),
			Point:      ev.Point,
		}, true
	}

	p.state = PickerArmed
	p.deadline = now.Add(p.window)
	p.target = ev.Target
	return Selection{}, false
}

// Tick expires an armed picker once its deadline has passed.
func (p *Picker) Tick(now time.Time) {
	if p.state == PickerArmed && !now.Before(p.deadline) {
		p.Reset()
	}
}

func (p *Picker) Reset() {
	p.state = PickerIdle
	p.deadline = time.Time{}
	p.target = ""
}
