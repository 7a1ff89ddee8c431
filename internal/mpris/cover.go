package mpris

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// coverNames lists common cover art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindCoverArt looks for cover art next to a local media file. mediaURL may be
// a plain path or a file:// URL. Remote media never has cover art.
// Returns the path to the art file, or empty string if not found.
func FindCoverArt(mediaURL string) string {
	mediaPath, ok := localPath(mediaURL)
	if !ok {
		return ""
	}

	// Lesson-specific art such as lesson01.jpg wins over folder art.
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	candidates := []string{base + ".jpg", base + ".png"}

	dir := filepath.Dir(mediaPath)
	for _, name := range coverNames {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func localPath(mediaURL string) (string, bool) {
	if mediaURL == "" {
		return "", false
	}
	u, err := url.Parse(mediaURL)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "file":
		return u.Path, true
	case "":
		return mediaURL, true
	default:
		// Windows drive letters parse as a one-letter scheme.
		if len(u.Scheme) == 1 {
			return mediaURL, true
		}
		return "", false
	}
}
