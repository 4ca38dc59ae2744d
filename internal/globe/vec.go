// Package globe models the rotating, sun-lit earth globe: coordinate
// conversion, solar lighting, per-point day/night shading and the
// orientation/picking state machines that drive the rendered scene.
package globe

import "math"

// Vec3 is a 3D vector in the globe's right-handed frame (Y up).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector in the same direction as v.
// Degenerate vectors normalize to the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Dot is the scalar product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// mat3 is a row-major 3x3 rotation matrix.
type mat3 [9]float64

func (m mat3) mulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

func (m mat3) mul(o mat3) mat3 {
	var r mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i*3+j] = m[i*3]*o[j] + m[i*3+1]*o[3+j] + m[i*3+2]*o[6+j]
		}
	}
	return r
}

// transpose is the inverse for a pure rotation.
func (m mat3) transpose() mat3 {
	return mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func rotX(a float64) mat3 {
	s, c := math.Sincos(a)
	return mat3{1, 0, 0, 0, c, -s, 0, s, c}
}

func rotY(a float64) mat3 {
	s, c := math.Sincos(a)
	return mat3{c, 0, s, 0, 1, 0, -s, 0, c}
}

func rotZ(a float64) mat3 {
	s, c := math.Sincos(a)
	return mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
