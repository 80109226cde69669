// Package historyview renders a history listing.
//
// Applied steps are listed oldest first and numbered, followed by a marker
// for the current position and then the steps Redo would reapply.
package historyview

import (
	"fmt"
	"iter"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/stepwise/internal/engine/history"
)

// CurrentMarker is the text of the current position line.
const CurrentMarker = "-- current --"

// Line is one rendered history row.
type Line struct {
	Kind history.EntryKind
	Text string
}

// Lines formats entries as rows.
func Lines(entries iter.Seq[history.Entry]) []Line {
	var lines []Line
	n := 0
	for e := range entries {
		switch e.Kind {
		case history.EntryCurrent:
			lines = append(lines, Line{Kind: e.Kind, Text: CurrentMarker})
		case history.EntryApplied:
			n++
			lines = append(lines, Line{Kind: e.Kind, Text: fmt.Sprintf("%3d %s", n, describe(e))})
		default:
			lines = append(lines, Line{Kind: e.Kind, Text: "    " + describe(e)})
		}
	}
	return lines
}

// Format returns the listing as plain text, one row per line.
func Format(entries iter.Seq[history.Entry]) string {
	var b strings.Builder
	for _, line := range Lines(entries) {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func describe(e history.Entry) string {
	if e.Description == "" {
		return fmt.Sprintf("(%d operators)", e.Operators)
	}
	return e.Description
}

// Rect is a screen region.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Styles holds the style for each entry kind.
type Styles struct {
	Title     tcell.Style
	Applied   tcell.Style
	Current   tcell.Style
	Unapplied tcell.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:     tcell.StyleDefault.Bold(true),
		Applied:   tcell.StyleDefault,
		Current:   tcell.StyleDefault.Foreground(tcell.ColorYellow),
		Unapplied: tcell.StyleDefault.Dim(true),
	}
}

// View draws a history panel.
type View struct {
	Title  string
	Styles Styles
}

// New creates a view with default styles.
func New(title string) *View {
	return &View{Title: title, Styles: DefaultStyles()}
}

// Draw renders entries into rect. The title takes the first row. When the
// listing does not fit, it scrolls to keep the current marker visible.
func (v *View) Draw(screen tcell.Screen, rect Rect, entries iter.Seq[history.Entry]) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return
	}

	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		for x := rect.X; x < rect.X+rect.Width; x++ {
			screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}

	y := rect.Y
	rows := rect.Height
	if v.Title != "" {
		drawString(screen, rect.X, y, rect.Width, v.Title, v.Styles.Title)
		y++
		rows--
	}

	lines := Lines(entries)
	start := scrollStart(lines, rows)
	for i := start; i < len(lines) && i-start < rows; i++ {
		drawString(screen, rect.X, y+i-start, rect.Width, lines[i].Text, v.style(lines[i].Kind))
	}
}

func (v *View) style(kind history.EntryKind) tcell.Style {
	switch kind {
	case history.EntryCurrent:
		return v.Styles.Current
	case history.EntryUnapplied:
		return v.Styles.Unapplied
	default:
		return v.Styles.Applied
	}
}

// scrollStart returns the first line to show so that the current marker
// sits as close to the middle of rows as the listing allows.
func scrollStart(lines []Line, rows int) int {
	if rows <= 0 || len(lines) <= rows {
		return 0
	}

	current := 0
	for i, line := range lines {
		if line.Kind == history.EntryCurrent {
			current = i
			break
		}
	}

	start := current - rows/2
	return max(0, min(start, len(lines)-rows))
}

// drawString draws s at (x, y), clipped to width cells.
func drawString(screen tcell.Screen, x, y, width int, s string, style tcell.Style) {
	col := 0
	for _, r := range s {
		if col >= width {
			return
		}
		screen.SetContent(x+col, y, r, nil, style)
		col++
	}
}
