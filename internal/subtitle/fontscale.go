package subtitle

import "slices"

// DefaultFontSizes is the ordered set of subtitle sizes offered to the user.
var DefaultFontSizes = []int{14, 16, 18, 20, 24}

// DefaultFontSize is the initial subtitle size.
const DefaultFontSize = 16

// FontScale steps through an ordered set of font sizes, clamping at both ends.
type FontScale struct {
	sizes []int
	idx   int
}

// NewFontScale builds a scale over sizes (sorted, deduplicated, non-positive values
// dropped; DefaultFontSizes when nothing is left) starting at the size closest to current.
func NewFontScale(sizes []int, current int) *FontScale {
	clean := slices.DeleteFunc(slices.Clone(sizes), func(s int) bool { return s <= 0 })
	slices.Sort(clean)
	clean = slices.Compact(clean)
	if len(clean) == 0 {
		clean = slices.Clone(DefaultFontSizes)
	}

	f := &FontScale{sizes: clean}
	f.Set(current)
	return f
}

// Size returns the current font size.
func (f *FontScale) Size() int {
	return f.sizes[f.idx]
}

// Sizes returns the available sizes in ascending order.
func (f *FontScale) Sizes() []int {
	return slices.Clone(f.sizes)
}

// Set moves to the available size closest to size, preferring the smaller on ties.
func (f *FontScale) Set(size int) int {
	best := 0
	for i, s := range f.sizes {
		if abs(s-size) < abs(f.sizes[best]-size) {
			best = i
		}
	}
	f.idx = best
	return f.Size()
}

// Larger steps up one size. It stays at the largest size.
func (f *FontScale) Larger() int {
	f.idx = min(f.idx+1, len(f.sizes)-1)
	return f.Size()
}

// Smaller steps down one size. It stays at the smallest size.
func (f *FontScale) Smaller() int {
	f.idx = max(f.idx-1, 0)
	return f.Size()
}

// CanGrow reports whether Larger would change the size.
func (f *FontScale) CanGrow() bool { return f.idx < len(f.sizes)-1 }

// CanShrink reports whether Smaller would change the size.
func (f *FontScale) CanShrink() bool { return f.idx > 0 }

// Level returns the position of the current size, 0 for the smallest.
func (f *FontScale) Level() int { return f.idx }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
