// Package tui holds the terminal presentation pieces: markdown rendering,
// the typing indicator, and the banner.
package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/parleyhq/parley/internal/runtime"
)

// NewMarkdownRenderer returns a function that renders markdown using
// glamour, word-wrapped to the given width.
func NewMarkdownRenderer(width int) func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// TypingIndicator returns a SleepFunc that shows an animated ellipsis for
// the node's declared delay, so the pause reads as the AI composing rather
// than the program hanging.
func TypingIndicator(out io.Writer) runtime.SleepFunc {
	return func(ctx context.Context, d time.Duration) {
		if d <= 0 {
			return
		}
		o := termenv.NewOutput(out)
		o.HideCursor()
		defer o.ShowCursor()

		dots := termenv.String("···").Faint()
		fmt.Fprint(out, dots)

		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}

		o.ClearLine()
		fmt.Fprint(out, "\r")
	}
}

// PrintBanner writes the startup banner.
func PrintBanner(out io.Writer) {
	p := termenv.ColorProfile()
	lines := []string{
		`                     _            `,
		`  _ __   __ _ _ __ | | ___ _   _ `,
		` | '_ \ / _' | '__|| |/ _ \ | | |`,
		` | |_) | (_| | |   | |  __/ |_| |`,
		` | .__/ \__,_|_|   |_|\___|\__, |`,
		` |_|                       |___/ `,
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

	fmt.Fprintln(out)
	for i, line := range lines {
		fmt.Fprintln(out, termenv.String(line).Foreground(p.Color(colors[i])))
	}
	fmt.Fprintln(out)
}
