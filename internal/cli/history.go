package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/state"
	"github.com/llehouerou/k12listen/internal/ui/render"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

const (
	defaultHistoryLimit = 20
	lessonColumnWidth   = 32
	positionColumnWidth = 9
	playsColumnWidth    = 6
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently played lessons and where they were left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.History(limit)
			if err != nil {
				return fmt.Errorf("%s: %w", errmsg.OpHistoryLoad, err)
			}
			printHistory(cmd, records, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of lessons to show (0 for all)")
	return cmd
}

func printHistory(cmd *cobra.Command, records []state.PlayRecord, now time.Time) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, styles.T().S().Muted.Render("No lessons played yet."))
		return
	}

	header := render.Pad("Lesson", lessonColumnWidth) +
		render.Pad("Position", positionColumnWidth) +
		render.Pad("Plays", playsColumnWidth) +
		"Last played"
	_, _ = fmt.Fprintln(out, styles.T().S().Title.Render(header))

	lines := lo.Map(records, func(r state.PlayRecord, _ int) string {
		name := lo.CoalesceOrEmpty(r.LessonName, r.LessonID)
		return render.TruncateAndPad(render.Sanitize(name), lessonColumnWidth-1) + " " +
			render.Pad(render.Clock(r.Position), positionColumnWidth) +
			render.Pad(strconv.Itoa(r.PlayCount), playsColumnWidth) +
			humanize.RelTime(r.PlayedAt, now, "ago", "from now")
	})
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}
}
