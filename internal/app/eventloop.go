package app

import (
	"errors"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/stepwise/internal/config/watcher"
	"github.com/dshills/stepwise/internal/engine/history"
	"github.com/dshills/stepwise/internal/textdoc"
)

// HandleEvent processes one screen event.
// Returns ErrQuit if the application should exit.
func (app *Application) HandleEvent(ev tcell.Event) error {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return app.handleKeyEvent(e)
	case *tcell.EventResize:
		app.screen.Sync()
	case *tcell.EventInterrupt:
		if we, ok := e.Data().(watcher.Event); ok {
			app.handleConfigChange(we)
		}
	}
	return nil
}

// handleKeyEvent maps keys to edits and history commands.
func (app *Application) handleKeyEvent(ev *tcell.EventKey) error {
	app.status = ""

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return ErrQuit
	case tcell.KeyCtrlZ:
		app.undo()
	case tcell.KeyCtrlY:
		app.redo()
	case tcell.KeyCtrlS:
		if err := app.Save(); err != nil {
			app.status = "save failed: " + err.Error()
		} else {
			app.status = "saved"
		}
	case tcell.KeyLeft:
		app.moveLeft()
	case tcell.KeyRight:
		app.moveRight()
	case tcell.KeyHome:
		app.editor.MoveTo(0)
	case tcell.KeyEnd:
		app.editor.MoveTo(app.editor.Doc.Len())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		app.edit(app.editor.Backspace())
	case tcell.KeyEnter:
		app.edit(app.editor.TypeText("\n"))
	case tcell.KeyTab:
		app.edit(app.editor.TypeText("\t"))
	case tcell.KeyRune:
		app.edit(app.editor.TypeText(string(ev.Rune())))
	}
	return nil
}

// edit records op as a step. Failures are reported through the AfterAdd
// subscription.
func (app *Application) edit(op textdoc.Operator) {
	if op == nil {
		return
	}
	if err := app.history.AddStep(textdoc.Describe(op), []textdoc.Operator{op}); err != nil {
		app.log.Debug("edit failed: %v", err)
	}
}

func (app *Application) undo() {
	desc, _ := app.history.UndoDescription()
	switch err := app.history.Undo(); {
	case errors.Is(err, history.ErrNothingToUndo):
		app.status = "nothing to undo"
	case err == nil:
		app.status = "undid " + desc
	}
}

func (app *Application) redo() {
	desc, _ := app.history.RedoDescription()
	switch err := app.history.Redo(); {
	case errors.Is(err, history.ErrNothingToRedo):
		app.status = "nothing to redo"
	case err == nil:
		app.status = "redid " + desc
	}
}

func (app *Application) moveLeft() {
	head := app.editor.Cursor.Head
	if head == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(app.editor.Doc.Text()[:head])
	app.editor.MoveTo(head - size)
}

func (app *Application) moveRight() {
	head := app.editor.Cursor.Head
	text := app.editor.Doc.Text()
	if head >= len(text) {
		return
	}
	_, size := utf8.DecodeRuneInString(text[head:])
	app.editor.MoveTo(head + size)
}
