package ui

// Layout constants for consistent sizing across UI components.
const (
	// BorderHeight is the vertical space consumed by a standard panel border.
	BorderHeight = 2

	// PanelHorizontalOverhead is the border plus one column of padding per side.
	PanelHorizontalOverhead = 4

	// HeaderHeight is the title row plus the lesson info row.
	HeaderHeight = 2

	// ProgressHeight is the progress bar plus the loop marker row.
	ProgressHeight = 2

	// StatusHeight is the message line under the subtitles.
	StatusHeight = 1

	// MinProgressBarWidth is the minimum width for a usable progress bar.
	MinProgressBarWidth = 5

	// MinCueRows is the smallest subtitle viewport.
	MinCueRows = 1
)
