// Package ui holds what the terminal views share: sizing and layout constants.
package ui

// Base tracks the terminal size a view was last given. Embed it in a
// tea.Model and call SetSize on every tea.WindowSizeMsg.
type Base struct {
	width, height int
}

// SetSize records the terminal dimensions.
func (b *Base) SetSize(width, height int) {
	b.width = max(width, 0)
	b.height = max(height, 0)
}

func (b Base) Width() int { return b.width }

func (b Base) Height() int { return b.height }

// InnerWidth is the text width inside a bordered panel with one column of
// padding on each side.
func (b Base) InnerWidth() int {
	return max(b.width-PanelHorizontalOverhead, 0)
}
