package playback

import (
	"math"
	"slices"
	"strconv"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// DefaultRate is normal speed.
const DefaultRate = 1.0

// rates is the closed set of playback speeds, ascending.
var rates = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0}

// Rates returns the supported playback speeds in ascending order.
func Rates() []float64 {
	return slices.Clone(rates)
}

// ValidateRate returns an INVALID_RATE error unless r is a supported speed.
func ValidateRate(r float64) error {
	if slices.Contains(rates, r) {
		return nil
	}
	return apperr.InvalidRatef("unsupported playback rate %s", FormatRate(r))
}

// NextRate returns the next faster rate, wrapping around to the slowest one.
func NextRate(r float64) float64 {
	i := slices.Index(rates, r)
	return rates[(i+1)%len(rates)]
}

// StepRate moves one step up (dir > 0) or down (dir < 0), clamping at both ends.
// A non-canonical r steps from DefaultRate.
func StepRate(r float64, dir int) float64 {
	i := slices.Index(rates, r)
	if i < 0 {
		i = slices.Index(rates, DefaultRate)
	}
	switch {
	case dir > 0:
		i = min(i+1, len(rates)-1)
	case dir < 0:
		i = max(i-1, 0)
	}
	return rates[i]
}

// NearestRate returns the supported speed closest to r, preferring the slower
// one on ties. NaN maps to DefaultRate.
func NearestRate(r float64) float64 {
	if math.IsNaN(r) {
		return DefaultRate
	}
	best := rates[0]
	for _, c := range rates[1:] {
		if math.Abs(c-r) < math.Abs(best-r) {
			best = c
		}
	}
	return best
}

// FormatRate renders a rate the way the speed button shows it, e.g. "1.25x".
func FormatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64) + "x"
}
