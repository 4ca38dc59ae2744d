package globe

import (
	"image"
	"image/color"
	"math"
)

// Shading constants. These are tuning knobs, not physical quantities.
const (
	TerminatorHalfWidth = 0.15
	SpecularExponent    = 50.0
	AmbientFactor       = 0.1
	DayBoost            = 0.2
	NightGain           = 1.5
)

// Day/night map width bounds in pixels. The height is always half the width.
const (
	MinMapWidth = 64
	MaxMapWidth = 2048
)

var (
	nightTint    = RGB{1.2, 1.1, 1.0}
	specularTint = RGB{0.9, 0.9, 1.0}
)

// RGB is a linear color with components nominally in [0,1].
type RGB struct {
	R, G, B float64
}

func (c RGB) scale(s float64) RGB { return RGB{c.R * s, c.G * s, c.B * s} }

func (c RGB) add(o RGB) RGB { return RGB{c.R + o.R, c.G + o.G, c.B + o.B} }

func (c RGB) mul(o RGB) RGB { return RGB{c.R * o.R, c.G * o.G, c.B * o.B} }

func lerpRGB(a, b RGB, t float64) RGB {
	return RGB{
		a.R + (b.R-a.R)*t,
		a.G + (b.G-a.G)*t,
		a.B + (b.B-a.B)*t,
	}
}

// RGBA is a shaded output color. A is always 1 for the day/night pass.
type RGBA struct {
	R, G, B, A float64
}

// ShadeInput holds one surface sample for the day/night pass.
type ShadeInput struct {
	U, V     float64
	Day      RGB
	Night    RGB
	Specular float64 // water mask, red channel of the specular map
	Sun      Vec3
	View     Vec3
}

// SurfaceNormal reconstructs the geography-locked normal from equirectangular UVs.
// It is independent of the mesh rotation so the terminator stays fixed in solar space.
func SurfaceNormal(u, v float64) Vec3 {
	lon := (u - 0.5) * 2 * math.Pi
	lat := (0.5 - v) * math.Pi

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	return Vec3{cosLat * cosLon, sinLat, cosLat * sinLon}
}

// Smoothstep is the Hermite step between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Shade blends night lights and daylight imagery for one surface point.
func Shade(in ShadeInput) RGBA {
	n := SurfaceNormal(in.U, in.V)
	sun := in.Sun.Normalize()
	sunDot := n.Dot(sun)

	night := in.Night.mul(nightTint).scale(NightGain)
	mix := Smoothstep(-TerminatorHalfWidth, TerminatorHalfWidth, sunDot)
	day := in.Day.scale(1 + DayBoost*math.Max(0, sunDot))

	base := lerpRGB(night, day, mix)
	base = base.add(in.Day.scale(AmbientFactor))

	if sunDot > 0 {
		half := in.View.Normalize().Add(sun).Normalize()
		f := math.Max(0, n.Dot(half))
		spec := math.Pow(f, SpecularExponent) * in.Specular
		base = base.add(specularTint.scale(spec))
	}

	return RGBA{
		R: clamp(base.R, 0, 1),
		G: clamp(base.G, 0, 1),
		B: clamp(base.B, 0, 1),
		A: 1,
	}
}

// Textures are the equirectangular maps sampled by the day/night pass.
// Nil maps fall back to flat colors.
type Textures struct {
	Day      image.Image
	Night    image.Image
	Specular image.Image
}

var (
	fallbackDay   = RGB{0.18, 0.35, 0.62}
	fallbackNight = RGB{0.02, 0.02, 0.05}
)

// RenderDayNightMap shades the whole surface into a width x 2:1 equirectangular image.
// The view direction is taken along the surface normal, i.e. looking straight down.
// width is clamped to MaxMapWidth.
func RenderDayNightMap(tex Textures, sun Vec3, width int) *image.RGBA {
	width = min(max(width, 2), MaxMapWidth)
	height := width / 2
	out := image.NewRGBA(image.Rect(0, 0, width, height))

	for py := 0; py < height; py++ {
		v := (float64(py) + 0.5) / float64(height)
		for px := 0; px < width; px++ {
			u := (float64(px) + 0.5) / float64(width)
			c := Shade(ShadeInput{
				U:        u,
				V:        v,
				Day:      sample(tex.Day, u, v, fallbackDay),
				Night:    sample(tex.Night, u, v, fallbackNight),
				Specular: sample(tex.Specular, u, v, RGB{}).R,
				Sun:      sun,
				View:     SurfaceNormal(u, v),
			})
			out.SetRGBA(px, py, color.RGBA{
				R: uint8(math.Round(c.R * 255)),
				G: uint8(math.Round(c.G * 255)),
				B: uint8(math.Round(c.B * 255)),
				A: uint8(math.Round(c.A * 255)),
			})
		}
	}
	return out
}

// sample is a nearest-neighbour lookup with repeat wrapping.
func sample(img image.Image, u, v float64, fallback RGB) RGB {
	if img == nil {
		return fallback
	}
	b := img.Bounds()
	if b.Empty() {
		return fallback
	}
	u -= math.Floor(u)
	v -= math.Floor(v)
	x := b.Min.X + int(u*float64(b.Dx()))
	y := b.Min.Y + int(v*float64(b.Dy()))
	if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	r, g, bl, _ := img.At(x, y).RGBA()
	return RGB{float64(r) / 0xffff, float64(g) / 0xffff, float64(bl) / 0xffff}
}
