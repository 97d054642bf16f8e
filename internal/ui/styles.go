package ui

import (
	"fmt"

	"github.com/Fato07/knowledge-base/internal/model"
)

// ANSI256 color codes.
const (
	colorHigh   = 203 // red-orange, high-importance events
	colorMedium = 179 // amber, medium importance
	colorLow    = 245 // gray, low importance
	colorAccent = 74  // blue, ids and paths
	colorMuted  = 245 // gray, secondary text
	colorOK     = 114 // green, approved / delivered
)

var noColor bool

// RenderImportance returns the importance score colored by its bucket.
func RenderImportance(importance int) string {
	s := fmt.Sprintf("%2d", importance)
	if noColor {
		return s
	}
	color := colorLow
	switch model.BucketFor(importance) {
	case model.BucketHigh:
		color = colorHigh
	case model.BucketMedium:
		color = colorMedium
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderState returns a review state, green when the event is settled.
func RenderState(state model.ReviewState) string {
	s := state.String()
	if noColor {
		return s
	}
	color := colorMuted
	if state == model.ReviewApproved || state == model.ReviewEdited {
		color = colorOK
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
