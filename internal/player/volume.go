package player

import "math"

// silentVolume is the beep volume used for level 0.
const silentVolume = -10

// clampLevel limits a volume level to [0, 1]. NaN maps to ok=false.
func clampLevel(level float64) (float64, bool) {
	if math.IsNaN(level) {
		return 0, false
	}
	return min(max(level, 0), 1), true
}

// levelToVolume converts a 0.0-1.0 level to the exponent of an effects.Volume with Base 2.
// 1.0 -> 0 (unchanged), 0.5 -> -1, 0.25 -> -2, 0 -> silentVolume.
func levelToVolume(level float64) float64 {
	switch {
	case level <= 0:
		return silentVolume
	case level >= 1:
		return 0
	}
	return max(math.Log2(level), silentVolume)
}
