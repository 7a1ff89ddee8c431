package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/muesli/reflow/indent"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/k12listen/internal/lesson"
	"github.com/llehouerou/k12listen/internal/subtitle"
	"github.com/llehouerou/k12listen/internal/ui/render"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

const defaultCueWidth = 80

type cuesOptions struct {
	at    []float64
	find  string
	end   float64
	width int
}

func newCuesCmd(a *app) *cobra.Command {
	var opts cuesOptions

	cmd := &cobra.Command{
		Use:   "cues FILE",
		Short: "Print the cues of a subtitle file",
		Long: "Print the cues of an SRT, LRC or JSON subtitle file. --at shows which cue\n" +
			"is active at the given positions and --find searches the cue text.",
		Example: "  k12listen cues lesson2.srt\n  k12listen cues lesson2.lrc --at 12.5 --at 40\n  k12listen cues lesson2.json --find \"how are you\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Duration(opts.end * float64(time.Second))
			track, err := lesson.NewLoader(nil).ParseSubtitles(args[0], end)
			if err != nil {
				return err
			}
			a.logger.Debug("subtitles parsed", "file", args[0], "cues", track.Len())

			out := cmd.OutOrStdout()
			switch {
			case len(opts.at) > 0:
				printActive(out, track, opts.at, opts.width)
			case opts.find != "":
				printMatches(out, track, opts.find, opts.width)
			default:
				printCues(out, track, lo.Range(track.Len()), opts.width)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64SliceVar(&opts.at, "at", nil, "Show the cue active at this position in seconds (repeatable)")
	f.StringVarP(&opts.find, "find", "f", "", "Show cues whose text fuzzily matches")
	f.Float64Var(&opts.end, "end", 0, "Media length in seconds, closes the last LRC line")
	f.IntVarP(&opts.width, "width", "w", defaultCueWidth, "Wrap cue text to this many columns")
	cmd.MarkFlagsMutuallyExclusive("at", "find")
	return cmd
}

// cueHeader is "  12  0:04-0:09  " for cue index 11.
func cueHeader(track *subtitle.Track, i int) string {
	c := track.Cue(i)
	return fmt.Sprintf("%4d  %s-%s  ", i+1, render.Clock(c.Start), render.Clock(c.End))
}

func printCues(out io.Writer, track *subtitle.Track, indices []int, width int) {
	if track.Empty() {
		_, _ = fmt.Fprintln(out, styles.T().S().Muted.Render(subtitle.NoSubtitles))
		return
	}
	for _, i := range indices {
		printCue(out, track, i, width)
	}
}

func printCue(out io.Writer, track *subtitle.Track, i int, width int) {
	header := cueHeader(track, i)
	pad := len(header)
	textWidth := max(width-pad, 10)
	c := track.Cue(i)

	lines := render.Wrap(c.Primary, textWidth)
	if len(lines) == 0 {
		lines = []string{""}
	}
	_, _ = fmt.Fprintln(out, header+lines[0])
	if rest := lines[1:]; len(rest) > 0 {
		_, _ = fmt.Fprintln(out, indent.String(strings.Join(rest, "\n"), uint(pad)))
	}
	if c.Secondary != "" {
		translated := strings.Join(render.Wrap(c.Secondary, textWidth), "\n")
		_, _ = fmt.Fprintln(out, styles.T().S().Translation.Render(indent.String(translated, uint(pad))))
	}
}

func printActive(out io.Writer, track *subtitle.Track, positions []float64, width int) {
	for _, sec := range positions {
		pos := time.Duration(sec * float64(time.Second))
		i := track.FindActive(pos)
		label := fmt.Sprintf("@ %s (%gs)", render.Clock(pos), sec)
		if i < 0 {
			_, _ = fmt.Fprintln(out, label+"  "+styles.T().S().Muted.Render("no cue"))
			continue
		}
		_, _ = fmt.Fprintln(out, label)
		printCue(out, track, i, width)
	}
}

// printMatches lists cues whose primary or translated text fuzzily contains
// query, best matches first.
func printMatches(out io.Writer, track *subtitle.Track, query string, width int) {
	targets := lo.Map(track.Cues(), func(c subtitle.Cue, _ int) string {
		return strings.TrimSpace(c.Primary + " " + c.Secondary)
	})
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	if len(ranks) == 0 {
		_, _ = fmt.Fprintln(out, styles.T().S().Muted.Render(fmt.Sprintf("No cue matches %q.", query)))
		return
	}
	sort.Stable(ranks)
	printCues(out, track, lo.Map(ranks, func(r fuzzy.Rank, _ int) int { return r.OriginalIndex }), width)
}
