// Package termview draws a widget.View for a terminal using lipgloss.
package termview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/chatwidget/internal/widget"
)

const (
	defaultWidth = 48
	minWidth     = 24
	bubbleRatio  = 0.75
)

var (
	launcherStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color(widget.ColorLauncher)).
			Bold(true).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(widget.ColorBotText)).
			Background(lipgloss.Color(widget.ColorHeader)).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(widget.ColorPanelBorder))

	bubbleStyle = lipgloss.NewStyle().Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(widget.ColorThinkingDot))
)

// Options controls terminal layout.
type Options struct {
	// Width is the outer panel width in cells.
	Width int
	// InputLine replaces the plain input rendering, typically a bubbles textinput view.
	InputLine string
}

// Render draws the launcher and, when visible, the panel.
func Render(view widget.View, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	if width < minWidth {
		width = minWidth
	}

	launcher := lipgloss.PlaceHorizontal(width, lipgloss.Right, launcherStyle.Render("💬 "+view.Launcher.Label))
	if !view.Panel.Visible {
		return launcher
	}

	return lipgloss.JoinVertical(lipgloss.Left, renderPanel(view.Panel, width, opts.InputLine), launcher)
}

func renderPanel(panel widget.Panel, width int, inputLine string) string {
	inner := width - 2

	lines := make([]string, 0, len(panel.Rows)+3)
	lines = append(lines, headerStyle.Width(inner).Render(panel.Title))
	for _, row := range panel.Rows {
		lines = append(lines, renderRow(row, inner))
	}

	if inputLine == "" {
		inputLine = panel.Input
		if inputLine == "" {
			inputLine = hintStyle.Render(panel.Placeholder)
		}
		inputLine = "> " + inputLine
	}
	lines = append(lines, strings.Repeat("─", inner))
	lines = append(lines, inputLine+"  "+hintStyle.Render("[enter] "+panel.SendLabel))

	return panelStyle.Width(inner).Render(strings.Join(lines, "\n"))
}

func renderRow(row widget.Row, width int) string {
	style := bubbleStyle.
		Background(lipgloss.Color(row.Background)).
		Foreground(lipgloss.Color(row.Foreground))

	text := row.Text
	if row.Kind == widget.RowThinking {
		text = strings.TrimSpace(strings.Repeat("● ", row.Dots))
	}

	// Long text wraps inside the bubble; short bubbles keep their natural width.
	maxBubble := int(float64(width) * bubbleRatio)
	if lipgloss.Width(text)+style.GetHorizontalPadding() > maxBubble {
		style = style.Width(maxBubble)
	}

	bubble := style.Render(text)
	if row.Align == widget.AlignRight {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble)
}
