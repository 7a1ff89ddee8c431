// Package testutil provides common testing utilities for UI components.
package testutil

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ansiRe       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripANSI removes SGR escape codes so rendered output can be compared
// without style interference.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// NormalizeWhitespace collapses whitespace runs to one space and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// MeasureWidth returns the visual width of a string, accounting for
// wide characters (CJK, emoji) and stripping ANSI codes.
func MeasureWidth(s string) int {
	return lipgloss.Width(StripANSI(s))
}

// PlainLines strips styling and splits output into lines, dropping trailing
// blank lines.
func PlainLines(output string) []string {
	lines := strings.Split(StripANSI(output), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// FindLine returns the first unstyled line containing substr, or "".
func FindLine(output, substr string) string {
	for _, line := range PlainLines(output) {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

// LineIndex returns the index of the first unstyled line containing substr, or -1.
func LineIndex(output, substr string) int {
	for i, line := range PlainLines(output) {
		if strings.Contains(line, substr) {
			return i
		}
	}
	return -1
}
