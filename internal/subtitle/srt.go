package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// Matches "00:00:01,000 --> 00:00:04,000" (a dot is accepted for the comma).
var srtTimingRe = regexp.MustCompile(
	`^(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`)

// ParseSRT reads SubRip blocks. Text lines containing Han characters become the
// secondary line; the others form the primary line.
func ParseSRT(r io.Reader) (*Track, error) {
	var (
		cues    []Cue
		current *Cue
		lineNo  int
	)
	flush := func() {
		if current != nil {
			cues = append(cues, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		switch {
		case line == "":
			flush()
		case current == nil:
			m := srtTimingRe.FindStringSubmatch(line)
			if m == nil {
				// Cue number, or a stray line between blocks.
				continue
			}
			start, err := srtTime(m[1:5])
			if err != nil {
				return nil, apperr.InvalidTrackf("line %d: %v", lineNo, err)
			}
			end, err := srtTime(m[5:9])
			if err != nil {
				return nil, apperr.InvalidTrackf("line %d: %v", lineNo, err)
			}
			current = &Cue{Start: start, End: end}
		case hasHan(line):
			current.Secondary = joinLine(current.Secondary, line)
		default:
			current.Primary = joinLine(current.Primary, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return NewTrack(cues)
}

func srtTime(parts []string) (time.Duration, error) {
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q", strings.Join(parts, ":"))
		}
		n[i] = v
	}
	millis := n[3]
	switch len(parts[3]) {
	case 1:
		millis *= 100
	case 2:
		millis *= 10
	}
	return time.Duration(n[0])*time.Hour +
		time.Duration(n[1])*time.Minute +
		time.Duration(n[2])*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func joinLine(have, line string) string {
	if have == "" {
		return line
	}
	return have + " " + line
}
