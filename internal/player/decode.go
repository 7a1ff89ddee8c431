package player

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"
	extOGG  = ".ogg"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
)

const (
	formatMP3  = "MP3"
	formatFLAC = "FLAC"
	formatWAV  = "WAV"
	formatOGG  = "VORBIS"
)

// decoded is a media stream ready to be played.
type decoded struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	name     string // MP3, FLAC, WAV, VORBIS, AAC or ALAC
}

func (d *decoded) duration() time.Duration {
	return d.format.SampleRate.D(d.streamer.Len())
}

// memFile adapts an in-memory buffer to the io.ReadSeekCloser the decoders expect.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// decode picks a decoder from the leading bytes, falling back to the extension.
func decode(m *media) (*decoded, error) {
	kind := sniff(m.data)
	if kind == "" {
		kind = m.ext
	}

	r := memFile{bytes.NewReader(m.data)}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		name     string
		err      error
	)
	switch kind {
	case extMP3:
		streamer, format, err = decodeGoMP3(r)
		name = formatMP3
	case extFLAC:
		// Some taggers prepend an ID3v2 tag to FLAC files.
		if err := skipID3v2(r); err != nil {
			return nil, err
		}
		streamer, format, err = flac.Decode(r)
		name = formatFLAC
	case extWAV:
		streamer, format, err = wav.Decode(r)
		name = formatWAV
	case extOGG:
		streamer, format, err = vorbis.Decode(r)
		name = formatOGG
	case extM4A, extMP4:
		streamer, format, name, err = decodeM4A(r)
		if err != nil {
			name = "M4A"
		}
	default:
		return nil, fmt.Errorf("unsupported format: %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if format.SampleRate <= 0 {
		streamer.Close()
		return nil, fmt.Errorf("decode %s: invalid sample rate", name)
	}

	return &decoded{streamer: streamer, format: format, name: name}, nil
}

// sniff recognizes the container from magic bytes. It returns "" when unsure.
func sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("fLaC")):
		return extFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return extOGG
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return extWAV
	case len(data) >= 8 && bytes.Equal(data[4:8], []byte("ftyp")):
		return extM4A
	case bytes.HasPrefix(data, []byte("ID3")):
		if off := id3v2Size(data); off > 0 && off+4 <= len(data) && bytes.Equal(data[off:off+4], []byte("fLaC")) {
			return extFLAC
		}
		return extMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return extMP3
	}
	return ""
}

// id3v2Size returns the total size of a leading ID3v2 tag, header included, or 0.
func id3v2Size(data []byte) int {
	if len(data) < 10 || string(data[0:3]) != "ID3" {
		return 0
	}
	// Syncsafe integer: each byte only uses 7 bits.
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	return 10 + size
}

// skipID3v2 positions r after a leading ID3v2 tag, or at the start if there is none.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	skip := int64(0)
	if n == len(header) {
		skip = int64(id3v2Size(header))
	}
	_, err = r.Seek(skip, io.SeekStart)
	return err
}
