package app

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/stepwise/internal/historyview"
)

// historyWidth is the width of the history panel.
const historyWidth = 32

// Draw renders the text area, history panel and status line.
func (app *Application) Draw() {
	app.screen.Clear()
	w, h := app.screen.Size()
	if w <= 0 || h <= 1 {
		app.screen.Show()
		return
	}

	textWidth := w
	if w > historyWidth*2 {
		textWidth = w - historyWidth - 1
		for y := 0; y < h-1; y++ {
			app.screen.SetContent(textWidth, y, tcell.RuneVLine, nil, tcell.StyleDefault)
		}
		app.view.Draw(app.screen, historyview.Rect{X: textWidth + 1, Y: 0, Width: historyWidth, Height: h - 1}, app.history.History())
	}

	app.drawText(textWidth, h-1)
	app.drawStatus(w, h-1)
	app.screen.Show()
}

// drawText renders the document and places the terminal cursor.
func (app *Application) drawText(width, height int) {
	x, y := 0, 0
	cursorX, cursorY := 0, 0
	head := app.editor.Cursor.Head
	sel := app.editor.Cursor.Selection()
	selStyle := tcell.StyleDefault.Reverse(true)

	for i, r := range app.editor.Doc.Text() {
		if i == head {
			cursorX, cursorY = x, y
		}
		if r == '\n' {
			x, y = 0, y+1
			continue
		}
		if x >= width {
			x, y = 0, y+1
		}
		if y >= height {
			break
		}
		style := tcell.StyleDefault
		if app.editor.Cursor.HasSelection() && i >= sel.Start && i < sel.End {
			style = selStyle
		}
		if r == '\t' {
			r = ' '
		}
		app.screen.SetContent(x, y, r, nil, style)
		x++
	}
	if head == app.editor.Doc.Len() {
		cursorX, cursorY = x, y
	}

	if cursorY < height {
		app.screen.ShowCursor(cursorX, cursorY)
	} else {
		app.screen.HideCursor()
	}
}

// drawStatus renders the status line on row y.
func (app *Application) drawStatus(width, y int) {
	line := app.status
	if line == "" {
		line = app.summary()
	}

	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range line {
		if col >= width {
			break
		}
		app.screen.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < width; col++ {
		app.screen.SetContent(col, y, ' ', nil, style)
	}
}

// summary describes the undo and redo positions.
func (app *Application) summary() string {
	undo, ok := app.history.UndoDescription()
	if !ok {
		undo = "-"
	}
	redo, ok := app.history.RedoDescription()
	if !ok {
		redo = "-"
	}
	return fmt.Sprintf(" undo: %s | redo: %s | %d/%d ", undo, redo, app.history.UndoCount(), app.history.UndoCount()+app.history.RedoCount())
}
