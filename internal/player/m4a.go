package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	faad2 "github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// alacFrameSize is the frames-per-packet ALAC encoders use unless told otherwise.
const alacFrameSize = 4096

// frameDecoder turns one container sample into stereo frames.
type frameDecoder interface {
	decode(sample []byte) ([][2]float64, error)
	close()
}

// m4aStreamer plays the audio track of an MP4 container. Output is always stereo.
type m4aStreamer struct {
	box    *m4a.Reader
	codec  frameDecoder
	closer io.Closer
	rate   int
	length int // frames

	next    int // next container sample to decode
	pending [][2]float64
	err     error
}

// decodeM4A opens an MP4/M4A container holding AAC or ALAC audio. The returned
// name is the codec, which is what listeners recognize rather than the container.
func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, string, error) {
	box, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, "", err
	}

	rate := int(box.SampleRate())
	channels := int(box.Channels())
	bits := int(box.SampleSize())

	var codec frameDecoder
	switch box.Codec() {
	case m4a.CodecAAC:
		codec, err = newAACFrames(box.CodecConfig(), channels)
	case m4a.CodecALAC:
		codec, err = newALACFrames(rate, bits, channels)
	default:
		err = errors.New("no AAC or ALAC track in container")
	}
	if err != nil {
		return nil, beep.Format{}, "", err
	}

	precision := 2
	if box.Codec() == m4a.CodecALAC && bits == 24 {
		precision = 3
	}
	s := &m4aStreamer{
		box:    box,
		codec:  codec,
		closer: rc,
		rate:   rate,
		length: int(box.Duration().Seconds() * float64(rate)),
	}
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: precision}
	return s, format, box.Codec().String(), nil
}

func (s *m4aStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) && s.err == nil {
		if len(s.pending) > 0 {
			c := copy(samples[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.next >= s.box.SampleCount() {
			break
		}
		raw, err := s.box.ReadSample(s.next)
		if err != nil {
			s.err = fmt.Errorf("read sample %d: %w", s.next, err)
			break
		}
		s.next++
		if s.pending, err = s.codec.decode(raw); err != nil {
			s.err = err
		}
	}
	return n, n > 0
}

func (s *m4aStreamer) Err() error { return s.err }

func (s *m4aStreamer) Len() int { return s.length }

func (s *m4aStreamer) Position() int {
	return int(s.box.SampleTime(s.next).Seconds() * float64(s.rate))
}

// Seek lands on the container sample holding frame p; packets are not split.
func (s *m4aStreamer) Seek(p int) error {
	p = min(max(p, 0), s.length)
	at := time.Duration(float64(p) / float64(s.rate) * float64(time.Second))
	s.next = s.box.SeekToTime(at)
	s.pending = nil
	s.err = nil
	return nil
}

func (s *m4aStreamer) Close() error {
	s.codec.close()
	return s.closer.Close()
}

type aacFrames struct {
	dec      *faad2.Decoder
	channels int
}

func newAACFrames(config []byte, channels int) (*aacFrames, error) {
	ctx := context.Background()
	dec, err := faad2.NewDecoder(ctx)
	if err != nil {
		return nil, err
	}
	if err := dec.Init(ctx, config); err != nil {
		dec.Close(ctx)
		return nil, fmt.Errorf("init AAC decoder: %w", err)
	}
	return &aacFrames{dec: dec, channels: channels}, nil
}

func (a *aacFrames) decode(sample []byte) ([][2]float64, error) {
	pcm, err := a.dec.Decode(context.Background(), sample)
	if err != nil {
		return nil, fmt.Errorf("decode AAC: %w", err)
	}
	return interleavedToStereo(len(pcm), a.channels, func(i int) float64 {
		return float64(pcm[i]) / (1 << 15)
	}), nil
}

func (a *aacFrames) close() { a.dec.Close(context.Background()) }

type alacFrames struct {
	dec      *alac.Alac
	bytes    int // per sample
	channels int
}

func newALACFrames(rate, bits, channels int) (*alacFrames, error) {
	dec, err := alac.NewWithConfig(alac.Config{
		SampleRate:  rate,
		SampleSize:  bits,
		NumChannels: channels,
		FrameSize:   alacFrameSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init ALAC decoder: %w", err)
	}
	return &alacFrames{dec: dec, bytes: bits / 8, channels: channels}, nil
}

func (a *alacFrames) decode(sample []byte) ([][2]float64, error) {
	raw := a.dec.Decode(sample)
	if a.bytes == 3 {
		return interleavedToStereo(len(raw)/3, a.channels, func(i int) float64 {
			o := i * 3
			v := int32(raw[o]) | int32(raw[o+1])<<8 | int32(int8(raw[o+2]))<<16
			return float64(v) / (1 << 23)
		}), nil
	}
	return interleavedToStereo(len(raw)/2, a.channels, func(i int) float64 {
		v := int16(raw[i*2]) | int16(raw[i*2+1])<<8
		return float64(v) / (1 << 15)
	}), nil
}

func (a *alacFrames) close() {}

// interleavedToStereo builds frames from count interleaved samples. Mono is
// duplicated to both sides and channels past the second are dropped.
func interleavedToStereo(count, channels int, sample func(i int) float64) [][2]float64 {
	if channels <= 0 {
		return nil
	}
	frames := make([][2]float64, count/channels)
	for f := range frames {
		base := f * channels
		left := sample(base)
		right := left
		if channels > 1 {
			right = sample(base + 1)
		}
		frames[f] = [2]float64{left, right}
	}
	return frames
}
