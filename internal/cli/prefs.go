package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/state"
	"github.com/llehouerou/k12listen/internal/subtitle"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

var prefKeys = []string{"rate", "font", "volume"}

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the stored listening preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			printPrefs(cmd, store.Preferences(), a.cfg.GetSubtitleConfig().FontSizes)
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set {rate|font|volume} VALUE",
		Short:     "Change a stored preference",
		Example:   "  k12listen prefs set rate 0.75\n  k12listen prefs set font 20\n  k12listen prefs set volume 80%",
		Args:      cobra.ExactArgs(2),
		ValidArgs: prefKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setPref(cmd, args[0], args[1])
		},
	}
	cmd.AddCommand(set)
	return cmd
}

func (a *app) setPref(cmd *cobra.Command, name, value string) (err error) {
	name = strings.ToLower(name)
	if !lo.Contains(prefKeys, name) {
		return fmt.Errorf("unknown preference %q (want one of %s)", name, strings.Join(prefKeys, ", "))
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%s: %w", errmsg.OpPrefsSave, cerr)
		}
	}()

	sizes := a.cfg.GetSubtitleConfig().FontSizes
	switch name {
	case "rate":
		r, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		if err != nil {
			return fmt.Errorf("rate %q is not a number", value)
		}
		if err := playback.ValidateRate(r); err != nil {
			return err
		}
		store.SetRate(r)
	case "font":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("font size %q is not a whole number", value)
		}
		size := subtitle.NewFontScale(sizes, n).Size()
		if size != n {
			a.logger.Info("font size snapped to an available size", "requested", n, "size", size)
		}
		store.SetFontSize(size)
	case "volume":
		v, err := parseVolume(value)
		if err != nil {
			return err
		}
		store.SetVolume(v)
	}

	printPrefs(cmd, store.Preferences(), sizes)
	return nil
}

// parseVolume accepts a fraction in (0, 1] or a percentage such as "80%".
func parseVolume(s string) (float64, error) {
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("volume %q is not a number", s)
	}
	if pct {
		v /= 100
	}
	if v <= 0 || v > 1 {
		return 0, fmt.Errorf("volume %s is out of range (0-100%%)", s)
	}
	return v, nil
}

func printPrefs(cmd *cobra.Command, p state.Preferences, sizes []int) {
	label := styles.T().S().Muted.Render
	out := cmd.OutOrStdout()
	sizeList := strings.Join(lo.Map(sizes, func(s int, _ int) string { return strconv.Itoa(s) }), " ")

	_, _ = fmt.Fprintf(out, "%s %s\n", label("Speed: "), playback.FormatRate(p.Rate))
	_, _ = fmt.Fprintf(out, "%s %d (%s)\n", label("Text:  "), p.FontSize, sizeList)
	_, _ = fmt.Fprintf(out, "%s %d%%\n", label("Volume:"), int(p.Volume*100+0.5))
}
