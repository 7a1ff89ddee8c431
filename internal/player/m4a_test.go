package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleavedToStereo(t *testing.T) {
	pcm := []float64{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	at := func(i int) float64 { return pcm[i] }

	stereo := interleavedToStereo(len(pcm), 2, at)
	assert.Equal(t, [][2]float64{{0.1, -0.1}, {0.2, -0.2}, {0.3, -0.3}}, stereo)

	mono := interleavedToStereo(3, 1, at)
	assert.Equal(t, [][2]float64{{0.1, 0.1}, {-0.1, -0.1}, {0.2, 0.2}}, mono)

	surround := interleavedToStereo(len(pcm), 3, at)
	assert.Equal(t, [][2]float64{{0.1, -0.1}, {-0.2, 0.3}}, surround, "extra channels are dropped")

	assert.Nil(t, interleavedToStereo(4, 0, at))
}

func TestDecode_BrokenM4A(t *testing.T) {
	data := []byte("\x00\x00\x00\x20ftypM4A \x00\x00\x02\x00isomM4A mp42\x00\x00\x00\x08free")
	_, err := decode(&media{data: data, ext: ".m4a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode M4A")
}
