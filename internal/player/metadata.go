package player

import (
	"bytes"
	"net/url"
	"path"

	"github.com/dhowden/tag"
)

// readTrackInfo builds a TrackInfo from embedded tags and the decoded format.
// Missing or unreadable tags fall back to the file name as title.
func readTrackInfo(rawURL string, m *media, d *decoded) *TrackInfo {
	info := &TrackInfo{
		URL:        rawURL,
		Title:      baseName(rawURL),
		Format:     d.name,
		SampleRate: int(d.format.SampleRate),
		Size:       int64(len(m.data)),
		Duration:   d.duration(),
	}

	md, err := tag.ReadFrom(bytes.NewReader(m.data))
	if err != nil {
		return info
	}
	if t := md.Title(); t != "" {
		info.Title = t
	}
	info.Artist = md.Artist()
	if info.Artist == "" {
		info.Artist = md.AlbumArtist()
	}
	info.Album = md.Album()
	return info
}

func baseName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}
