// Package timestretch changes the tempo of a beep stream without changing its pitch.
//
// The Stretcher implements WSOLA (waveform-similarity overlap-add): the output is built
// from Hann-windowed input frames placed at a fixed synthesis hop, while the analysis
// position advances by hop*ratio. Each new frame is shifted within a small tolerance so
// that it lines up with the natural continuation of the previous one, which keeps the
// waveform periodicity (and therefore the pitch) intact.
//
// Like beep.Ctrl, a Stretcher is not safe for concurrent use: when it is playing on the
// speaker, callers must hold speaker.Lock() around SetRatio and Reset.
package timestretch

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

const (
	frameDuration     = 40 * time.Millisecond
	toleranceDuration = 10 * time.Millisecond
	readChunk         = 512
)

var _ beep.Streamer = (*Stretcher)(nil)

// Stretcher is a tempo-changing beep.Streamer.
type Stretcher struct {
	src   beep.Streamer
	ratio float64

	frame  int
	hop    int
	tol    int
	window []float64

	in       [][2]float64
	pos      float64
	template [][2]float64
	acc      [][2]float64
	pending  [][2]float64
	readBuf  [][2]float64
	eof      bool
	flushed  bool
}

// New wraps src, which must produce samples at sampleRate. The initial ratio is 1.
func New(src beep.Streamer, sampleRate beep.SampleRate) *Stretcher {
	frame := max(sampleRate.N(frameDuration)&^1, 64)
	hop := frame / 2

	window := make([]float64, frame)
	for i := range window {
		// Periodic Hann: windows spaced by frame/2 sum to exactly 1.
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(frame))
	}

	return &Stretcher{
		src:      src,
		ratio:    1,
		frame:    frame,
		hop:      hop,
		tol:      max(sampleRate.N(toleranceDuration), 1),
		window:   window,
		template: make([][2]float64, 0, hop),
		acc:      make([][2]float64, frame),
		readBuf:  make([][2]float64, readChunk),
	}
}

// Ratio returns the current tempo multiplier.
func (s *Stretcher) Ratio() float64 {
	return s.ratio
}

// SetRatio changes the tempo multiplier. Values <= 0 are ignored.
func (s *Stretcher) SetRatio(r float64) {
	if r <= 0 || math.IsNaN(r) || r == s.ratio {
		return
	}
	if r == 1 {
		// Input already pulled from src but not yet rendered must still be heard.
		if start := int(s.pos); start < len(s.in) {
			s.pending = append(s.pending, s.in[start:]...)
		}
		s.resetStretch()
	}
	s.ratio = r
}

// Reset drops all buffered audio. Call it after seeking the underlying source.
func (s *Stretcher) Reset() {
	s.resetStretch()
	s.pending = s.pending[:0]
	s.eof = false
	s.flushed = false
}

// Buffered returns the number of source samples read ahead of what has been emitted.
func (s *Stretcher) Buffered() int {
	ahead := len(s.in) - int(s.pos)
	ahead += int(float64(len(s.pending)) * s.ratio)
	return max(ahead, 0)
}

// Stream implements beep.Streamer.
func (s *Stretcher) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if len(s.pending) > 0 {
			c := copy(samples[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.ratio == 1 {
			m, srcOK := s.src.Stream(samples[n:])
			n += m
			if !srcOK || m == 0 {
				break
			}
			continue
		}
		if !s.synthesize() {
			break
		}
	}
	return n, n > 0
}

// Err implements beep.Streamer.
func (s *Stretcher) Err() error {
	return s.src.Err()
}

func (s *Stretcher) resetStretch() {
	s.in = s.in[:0]
	s.pos = 0
	s.template = s.template[:0]
	clear(s.acc)
}

// synthesize renders one hop of output into pending. It returns false once the
// source is exhausted and the overlap tail has been flushed.
func (s *Stretcher) synthesize() bool {
	start := int(s.pos)
	s.fill(start + s.tol + s.frame)

	if s.eof && start >= len(s.in) {
		if s.flushed {
			return false
		}
		s.pending = append(s.pending[:0], s.acc[:s.hop]...)
		clear(s.acc)
		s.flushed = true
		return true
	}

	best := start
	if len(s.template) > 0 {
		best = s.bestOffset(start)
	}

	for i := range s.frame {
		j := best + i
		if j >= len(s.in) {
			break
		}
		w := s.window[i]
		s.acc[i][0] += s.in[j][0] * w
		s.acc[i][1] += s.in[j][1] * w
	}

	s.pending = append(s.pending[:0], s.acc[:s.hop]...)
	copy(s.acc, s.acc[s.hop:])
	clear(s.acc[s.frame-s.hop:])

	// The next frame should resemble what naturally follows the frame just placed.
	s.template = s.template[:0]
	for i := range s.hop {
		j := best + s.hop + i
		if j < len(s.in) {
			s.template = append(s.template, s.in[j])
		} else {
			s.template = append(s.template, [2]float64{})
		}
	}

	s.pos += float64(s.hop) * s.ratio
	s.trim()
	return true
}

// bestOffset searches [start-tol, start+tol] for the candidate frame start whose
// leading hop best matches the template (normalized cross-correlation on the mono mix).
func (s *Stretcher) bestOffset(start int) int {
	lo := max(start-s.tol, 0)
	hi := min(start+s.tol, len(s.in)-s.hop)
	if hi < lo {
		return start
	}

	best, bestScore := start, math.Inf(-1)
	for c := lo; c <= hi; c++ {
		var corr, energy float64
		for i := 0; i < s.hop; i += 2 {
			x := s.in[c+i][0] + s.in[c+i][1]
			t := s.template[i][0] + s.template[i][1]
			corr += x * t
			energy += x * x
		}
		score := corr / math.Sqrt(energy+1e-9)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func (s *Stretcher) fill(need int) {
	for len(s.in) < need && !s.eof {
		n, ok := s.src.Stream(s.readBuf)
		s.in = append(s.in, s.readBuf[:n]...)
		if !ok || n == 0 {
			s.eof = true
		}
	}
}

// trim discards input that no future frame can reach.
func (s *Stretcher) trim() {
	drop := int(s.pos) - s.tol
	if drop < s.frame {
		return
	}
	drop = min(drop, len(s.in))
	s.in = s.in[:copy(s.in, s.in[drop:])]
	s.pos -= float64(drop)
}
