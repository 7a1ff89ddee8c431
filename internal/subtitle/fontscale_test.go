package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFontScale_StepsAndClamps(t *testing.T) {
	f := NewFontScale(DefaultFontSizes, DefaultFontSize)
	assert.Equal(t, 16, f.Size())

	assert.Equal(t, 18, f.Larger())
	assert.Equal(t, 20, f.Larger())
	assert.Equal(t, 24, f.Larger())
	assert.Equal(t, 24, f.Larger())
	assert.False(t, f.CanGrow())

	for range 10 {
		f.Smaller()
	}
	assert.Equal(t, 14, f.Size())
	assert.False(t, f.CanShrink())
	assert.Equal(t, 0, f.Level())
}

func TestFontScale_SnapsToNearest(t *testing.T) {
	f := NewFontScale(DefaultFontSizes, 22)
	assert.Equal(t, 20, f.Size(), "ties prefer the smaller size")

	assert.Equal(t, 24, f.Set(100))
	assert.Equal(t, 14, f.Set(0))
}

func TestFontScale_NormalizesSizes(t *testing.T) {
	f := NewFontScale([]int{20, 12, 0, 12, -3}, 12)
	assert.Equal(t, []int{12, 20}, f.Sizes())

	empty := NewFontScale(nil, 16)
	assert.Equal(t, DefaultFontSizes, empty.Sizes())
}
