package subtitle

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// lastCueLength closes the final LRC cue when no end is known.
const lastCueLength = 5 * time.Second

var (
	// Matches timestamps like [00:12.34] or [00:12:34] or [00:12]
	timestampRe = regexp.MustCompile(`\[(\d+):(\d+)(?:[.:](\d+))?\]`)

	// Matches metadata tags like [ar:Artist Name]
	metadataRe = regexp.MustCompile(`^\[([a-z]+):(.+)\]$`)
)

type lrcLine struct {
	at   time.Duration
	text string
}

// ParseLRC reads timestamped LRC lines. Each cue lasts until the next timestamp; a
// timestamp with no text only ends the previous cue. end closes the final cue; if it
// does not come after the last timestamp, the final cue lasts lastCueLength.
// A "primary / secondary" separator splits bilingual lines.
func ParseLRC(r io.Reader, end time.Duration) (*Track, error) {
	var lines []lrcLine
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || metadataRe.MatchString(line) {
			continue
		}

		// LRC can have multiple timestamps for the same text: [00:12.34][00:45.67]Text
		matches := timestampRe.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 || matches[0][0] != 0 {
			continue
		}

		text := strings.TrimSpace(line[matches[len(matches)-1][1]:])
		for _, m := range matches {
			at, err := parseTimestamp(line[m[0]:m[1]])
			if err != nil {
				continue
			}
			lines = append(lines, lrcLine{at: at, text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].at < lines[j].at
	})

	cues := make([]Cue, 0, len(lines))
	for i, l := range lines {
		if l.text == "" {
			continue
		}
		cueEnd := end
		if i+1 < len(lines) {
			cueEnd = lines[i+1].at
		} else if cueEnd <= l.at {
			cueEnd = l.at + lastCueLength
		}
		if cueEnd <= l.at {
			// Duplicate timestamp: the later line wins.
			continue
		}
		primary, secondary := splitBilingual(l.text)
		cues = append(cues, Cue{Start: l.at, End: cueEnd, Primary: primary, Secondary: secondary})
	}
	return NewTrack(cues)
}

func splitBilingual(text string) (primary, secondary string) {
	if p, s, ok := strings.Cut(text, " / "); ok {
		return strings.TrimSpace(p), strings.TrimSpace(s)
	}
	return text, ""
}

// parseTimestamp parses a timestamp like [00:12.34] into a Duration.
func parseTimestamp(s string) (time.Duration, error) {
	matches := timestampRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, nil
	}

	minutes, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, err
	}

	var millis int
	if frac := matches[3]; frac != "" {
		millis, err = strconv.Atoi(frac)
		if err != nil {
			return 0, err
		}
		switch len(frac) {
		case 1:
			millis *= 100
		case 2:
			millis *= 10 // centiseconds
		}
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}
