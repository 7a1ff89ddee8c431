package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrTooLarge is returned when media exceeds the configured size limit.
var ErrTooLarge = errors.New("media exceeds size limit")

// media is a fetched, not yet decoded, media file.
type media struct {
	data        []byte
	ext         string // lowercased extension from the URL path, e.g. ".mp3"
	contentType string
}

// fetcher retrieves media bytes over http(s) or from the filesystem.
type fetcher struct {
	client   *http.Client
	fs       afero.Fs
	maxBytes int64
}

func (f *fetcher) fetch(ctx context.Context, rawURL string) (*media, error) {
	if isDrivePath(rawURL) {
		return f.fetchFile(ctx, rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse media url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, u)
	case "file":
		return f.fetchFile(ctx, u.Path)
	case "":
		return f.fetchFile(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported media scheme %q", u.Scheme)
	}
}

func (f *fetcher) fetchHTTP(ctx context.Context, u *url.URL) (*media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, ErrTooLarge
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, err
	}

	return &media{
		data:        data,
		ext:         strings.ToLower(path.Ext(u.Path)),
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (f *fetcher) fetchFile(ctx context.Context, name string) (*media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := f.readLimited(ctxReader{ctx: ctx, r: file})
	if err != nil {
		return nil, err
	}
	return &media{data: data, ext: strings.ToLower(path.Ext(name))}, nil
}

func (f *fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// isDrivePath reports whether name starts with a Windows drive letter, such as
// C:\lessons\a.mp3, which url.Parse would take for a one-letter scheme.
func isDrivePath(name string) bool {
	if len(name) < 3 || name[1] != ':' || (name[2] != '\\' && name[2] != '/') {
		return false
	}
	c := name[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// ctxReader stops a read loop once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
