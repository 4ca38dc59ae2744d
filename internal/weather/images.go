package weather

import "math"

const (
	// PreferredWidth is the minimum width of an exact cover match.
	PreferredWidth = 1920
	// PreferredAspect is the aspect ratio a cover should have.
	PreferredAspect = 16.0 / 9.0
	// AspectTolerance is the accepted absolute deviation from PreferredAspect.
	AspectTolerance = 0.03

	DefaultImageLimit = 5
	MaxImageLimit     = 20
)

// SkylineTerm builds the search term used for a place's cover image.
func SkylineTerm(place string) string {
	return place + " skyline"
}

// RankImages returns the URLs of the best non-empty tier, in upstream order,
// truncated to limit. Tiers are: wide 16:9 images at least PreferredWidth wide,
// then any 16:9 image, then everything.
func RankImages(candidates []ImageCandidate, limit int) ImageResult {
	if limit <= 0 {
		limit = DefaultImageLimit
	}

	var exact, aspect, rest ImageResult
	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		switch {
		case matchesAspect(c) && c.Width >= PreferredWidth:
			exact = append(exact, c.URL)
		case matchesAspect(c):
			aspect = append(aspect, c.URL)
		default:
			rest = append(rest, c.URL)
		}
	}

	best := rest
	if len(exact) > 0 {
		best = exact
	} else if len(aspect) > 0 {
		best = aspect
	}

	if best == nil {
		return ImageResult{}
	}
	if len(best) > limit {
		best = best[:limit]
	}
	return best
}

func matchesAspect(c ImageCandidate) bool {
	if c.Width <= 0 || c.Height <= 0 {
		return false
	}
	return math.Abs(float64(c.Width)/float64(c.Height)-PreferredAspect) < AspectTolerance
}
