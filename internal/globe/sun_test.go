package globe

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestSunDirectionIsUnitLength(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2*365*24*60/37; i++ {
		ts := start.Add(time.Duration(i) * 37 * time.Minute)
		l := SunDirection(ts).Len()
		if math.Abs(l-1) > 1e-12 {
			t.Fatalf("sun direction at %v has length %v", ts, l)
		}
	}
}

func TestSunDirectionPhase(t *testing.T) {
	noon := SunDirection(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	if noon.X < 0.99 || math.Abs(noon.Z) > 1e-9 {
		t.Fatalf("expected sun over Greenwich at 12:00 UTC, got %+v", noon)
	}

	evening := SunDirection(time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC))
	if evening.Z < 0.99 {
		t.Fatalf("expected sun at +90° phase at 18:00 UTC, got %+v", evening)
	}

	// Non-UTC instants are converted first.
	loc := time.FixedZone("UTC+2", 2*3600)
	local := SunDirection(time.Date(2024, 3, 20, 14, 0, 0, 0, loc))
	if local.Sub(noon).Len() > 1e-12 {
		t.Fatalf("expected same direction for the same instant, got %+v vs %+v", local, noon)
	}
}

func TestSunDirectionSeasons(t *testing.T) {
	june := SunDirection(time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))
	if june.Y < 0.39 {
		t.Fatalf("expected northern subsolar point in June, got y=%v", june.Y)
	}
	december := SunDirection(time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC))
	if december.Y > -0.39 {
		t.Fatalf("expected southern subsolar point in December, got y=%v", december.Y)
	}
}

func TestLightingIntensityBounds(t *testing.T) {
	cases := []Vec3{
		{},
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
		{math.NaN(), 0, 0},
		{0, 1e300, 0},
	}
	for _, v := range cases {
		got := LightingIntensity(v)
		if got < MinIntensity || got > MaxIntensity {
			t.Fatalf("intensity %v for %+v outside [%v,%v]", got, v, MinIntensity, MaxIntensity)
		}
	}

	if got := LightingIntensity(Vec3{}); got != MinIntensity {
		t.Fatalf("expected %v for zero vector, got %v", MinIntensity, got)
	}
	if got := LightingIntensity(Vec3{0, 1, 0}); got != MaxIntensity {
		t.Fatalf("expected %v for zenith sun, got %v", MaxIntensity, got)
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		v := Vec3{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()}
		got := LightingIntensity(v)
		if got < MinIntensity || got > MaxIntensity {
			t.Fatalf("intensity %v for %+v out of bounds", got, v)
		}
	}
}

func TestLightingIntensityMonotonic(t *testing.T) {
	prev := LightingIntensity(Vec3{0, -1, 0})
	for y := -1.0; y <= 1.0; y += 0.01 {
		v := Vec3{math.Sqrt(math.Max(0, 1-y*y)), y, 0}
		got := LightingIntensity(v)
		if got+1e-12 < prev {
			t.Fatalf("intensity decreased at y=%v: %v < %v", y, got, prev)
		}
		prev = got
	}
}

func TestComputeSun(t *testing.T) {
	now := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	s := ComputeSun(now)
	if !s.ComputedAt.Equal(now) {
		t.Fatalf("expected computedAt %v, got %v", now, s.ComputedAt)
	}
	if s.Intensity != LightingIntensity(s.Direction) {
		t.Fatalf("intensity does not match direction")
	}
}
