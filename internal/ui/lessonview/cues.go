package lessonview

import (
	"strings"

	"github.com/llehouerou/k12listen/internal/icons"
	"github.com/llehouerou/k12listen/internal/lessonplayer"
	"github.com/llehouerou/k12listen/internal/subtitle"
	"github.com/llehouerou/k12listen/internal/ui/render"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

// markerWidth covers the active-cue arrow and the loop bar.
const markerWidth = 2

// renderCues renders the cues in the viewport, at most height lines.
func renderCues(s lessonplayer.Snapshot, selected int, l cueLayout, innerWidth, height int) []string {
	sty := styles.T().S()
	if s.Track.Empty() {
		msg := s.SubtitleStatus
		if msg == "" {
			msg = subtitle.NoSubtitles
		}
		return []string{sty.Muted.Render(render.Center(msg, innerWidth))}
	}

	cw := clockWidth(s.Track)
	indent := strings.Repeat(" ", markerWidth+1+cw+1)
	end := min(s.ViewOffset+s.ViewHeight, s.Track.Len())

	var lines []string
	for i := s.ViewOffset; i < end; i++ {
		cue := s.Track.Cue(i)
		active := i == s.ActiveCue
		chosen := i == selected

		textStyle := sty.Base
		if active {
			textStyle = sty.ActiveCue
		}
		if l.bold {
			textStyle = textStyle.Bold(true)
		}
		if chosen {
			textStyle = textStyle.Inherit(sty.Selected)
		}

		primary := render.Wrap(cue.Primary, l.textWidth)
		if len(primary) > l.primaryLines {
			primary = primary[:l.primaryLines]
			last := l.primaryLines - 1
			primary[last] = render.TruncateEllipsis(primary[last]+" …", l.textWidth)
		}
		if len(primary) == 0 {
			primary = []string{""}
		}

		block := make([]string, 0, l.linesPerCue())
		for j, text := range primary {
			prefix := indent
			if j == 0 {
				prefix = marker(active, chosen, inLoop(s, cue)) + " " + sty.Muted.Render(render.Pad(render.Clock(cue.Start), cw)) + " "
			}
			block = append(block, prefix+textStyle.Render(render.Pad(text, l.textWidth)))
		}
		if l.translation && cue.Secondary != "" {
			block = append(block, indent+sty.Translation.Render(render.TruncateAndPad(cue.Secondary, l.textWidth)))
		}
		if l.spacer {
			block = append(block, "")
		}
		lines = append(lines, block...)
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}

func marker(active, selected, looped bool) string {
	sty := styles.T().S()
	ic := icons.Current()
	arrow := " "
	switch {
	case active:
		arrow = sty.ActiveCue.Render(ic.ActiveCue)
	case selected:
		arrow = sty.Base.Render(ic.Selected)
	}
	bar := " "
	if looped {
		bar = sty.Loop.Render(ic.InLoop)
	}
	return arrow + bar
}

// inLoop reports whether cue overlaps the armed AB loop.
func inLoop(s lessonplayer.Snapshot, cue subtitle.Cue) bool {
	loop := s.Loop
	return loop.Enabled && cue.Start < loop.B && cue.End > loop.A
}
