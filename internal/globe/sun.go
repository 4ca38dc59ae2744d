package globe

import (
	"math"
	"time"
)

// Lighting bounds. Night never goes fully dark and noon never blows out.
const (
	MinIntensity = 0.35
	MaxIntensity = 1.1

	// AxialTilt is the earth's obliquity in degrees.
	AxialTilt = 23.44
)

// SunState is a sampled sun direction together with the derived light intensity.
type SunState struct {
	Direction  Vec3      `json:"direction"`
	Intensity  float64   `json:"intensity"`
	ComputedAt time.Time `json:"computedAt"`
}

// ComputeSun samples SunDirection and LightingIntensity at t.
func ComputeSun(t time.Time) SunState {
	dir := SunDirection(t)
	return SunState{
		Direction:  dir,
		Intensity:  LightingIntensity(dir),
		ComputedAt: t.UTC(),
	}
}

// SunDirection returns the unit vector from the earth's centre towards the sun at t.
//
// Phase convention: the subsolar longitude is (h-12)·15° for decimal UTC hour h,
// so the sun sits over Greenwich at 12:00 UTC. The subsolar latitude follows a
// cosine approximation of the solar declination over the year.
func SunDirection(t time.Time) Vec3 {
	utc := t.UTC()
	hours := float64(utc.Hour()) +
		float64(utc.Minute())/60 +
		float64(utc.Second())/3600 +
		float64(utc.Nanosecond())/3.6e12

	lng := degToRad((hours - 12) * 15)
	lat := degToRad(solarDeclination(utc.YearDay()))

	sinLat, cosLat := math.Sincos(lat)
	sinLng, cosLng := math.Sincos(lng)

	return Vec3{
		X: cosLat * cosLng,
		Y: sinLat,
		Z: cosLat * sinLng,
	}.Normalize()
}

// solarDeclination approximates the subsolar latitude in degrees for a day of the year.
func solarDeclination(yearDay int) float64 {
	return -AxialTilt * math.Cos(2*math.Pi*float64(yearDay+10)/365)
}

// LightingIntensity maps the sun's vertical component to a directional light intensity
// clamped to [MinIntensity, MaxIntensity]. Degenerate vectors yield MinIntensity.
func LightingIntensity(sun Vec3) float64 {
	up := sun.Normalize().Y
	if math.IsNaN(up) || up <= 0 {
		return MinIntensity
	}
	return clamp(0.6+0.5*up, MinIntensity, MaxIntensity)
}
