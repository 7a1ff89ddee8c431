// Package icons holds the glyphs the player draws for its status and cue markers.
package icons

import "sync"

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleASCII   Style = "ascii"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Playing string
	Paused  string
	Loading string
	Ended   string
	Failed  string
	Idle    string

	Loop      string // precedes the loop points in the info row; may be empty
	ActiveCue string // one cell
	Selected  string // one cell
	InLoop    string // one cell
}

var (
	nerdIcons = Icons{
		Playing:   "\uf04b", // nf-fa-play
		Paused:    "\uf04c", // nf-fa-pause
		Loading:   "\uf110", // nf-fa-spinner
		Ended:     "\uf04d", // nf-fa-stop
		Failed:    "\uf00d", // nf-fa-times
		Idle:      "·",
		Loop:      "\U000f0456", // nf-md-repeat
		ActiveCue: "\uf0da",     // nf-fa-caret_right
		Selected:  "›",
		InLoop:    "┃",
	}

	unicodeIcons = Icons{
		Playing:   "▶",
		Paused:    "⏸",
		Loading:   "…",
		Ended:     "■",
		Failed:    "✗",
		Idle:      "·",
		Loop:      "↻",
		ActiveCue: "▶",
		Selected:  "›",
		InLoop:    "┃",
	}

	asciiIcons = Icons{
		Playing:   ">",
		Paused:    "||",
		Loading:   "...",
		Ended:     "[]",
		Failed:    "x",
		Idle:      "-",
		Loop:      "",
		ActiveCue: ">",
		Selected:  "-",
		InLoop:    "|",
	}

	mu      sync.RWMutex
	current = unicodeIcons
)

// Init selects the icon set from the config value. Unknown values keep
// the unicode set, which every terminal font the player targets can draw.
func Init(style string) Style {
	mu.Lock()
	defer mu.Unlock()
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
		return StyleNerd
	case StyleASCII:
		current = asciiIcons
		return StyleASCII
	default:
		current = unicodeIcons
		return StyleUnicode
	}
}

// Current returns the active icon set.
func Current() Icons {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithLoop prefixes label with the loop icon when the set has one.
func WithLoop(label string) string {
	if icon := Current().Loop; icon != "" {
		return icon + " " + label
	}
	return label
}
