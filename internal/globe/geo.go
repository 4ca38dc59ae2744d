package globe

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPinRadius places location markers just above the unit sphere surface.
const DefaultPinRadius = 1.005

// ErrInvalidCoordinate is returned for latitudes/longitudes outside the valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// GeoCoordinate is a geographic position in degrees.
type GeoCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks lat ∈ [-90,90] and lng ∈ [-180,180].
func (c GeoCoordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// String formats the coordinate as "lat,lng", the form upstream weather APIs accept as a query.
func (c GeoCoordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
}

// LatLngToVector3 converts a geographic position to a point on a sphere of the given radius.
// The longitude is offset by 180° so the texture seam sits at ±180°.
func LatLngToVector3(lat, lng, radius float64) Vec3 {
	phi := degToRad(90 - lat)
	theta := degToRad(lng + 180)

	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)

	return Vec3{
		X: -radius * sinPhi * cosTheta,
		Y: radius * cosPhi,
		Z: radius * sinPhi * sinTheta,
	}
}

// Vector3ToLatLng is the inverse of LatLngToVector3. The result longitude is in (-180,180].
// At the poles longitude is undefined; whatever atan2 yields is returned.
func Vector3ToLatLng(p Vec3) GeoCoordinate {
	r := p.Len()
	if r == 0 || math.IsNaN(r) {
		return GeoCoordinate{}
	}

	// y/r can overshoot ±1 by an ulp and make acos return NaN.
	phi := math.Acos(clamp(p.Y/r, -1, 1))
	lat := 90 - radToDeg(phi)

	lng := radToDeg(math.Atan2(p.Z, -p.X)) - 180
	return GeoCoordinate{Lat: lat, Lng: normalizeLng(lng)}
}

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng <= -180 {
		lng += 360
	}
	return lng
}
