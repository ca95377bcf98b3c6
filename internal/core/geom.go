package core

// Size is a surface size in pixels (or cells, for terminal hosts).
type Size struct {
	W, H int
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Normalize maps a surface-relative position to [0, 1] on both axes.
// Returns false when the size is not valid.
func (s Size) Normalize(x, y float64) (nx, ny float64, ok bool) {
	if !s.Valid() {
		return 0, 0, false
	}
	return ClampF(x/float64(s.W), 0, 1), ClampF(y/float64(s.H), 0, 1), true
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
