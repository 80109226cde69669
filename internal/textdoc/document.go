// Package textdoc is a small text editing context for the history engine.
//
// A Document holds the text, a Cursor holds the caret and selection anchor,
// and an Editor bundles both as the context operators act on. The cursor is
// auxiliary state: operators move it as a side effect, and the CursorMemento
// strategy puts it back exactly on undo and redo.
package textdoc

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an offset or range falls outside the document.
var ErrOutOfRange = errors.New("offset out of range")

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

// IsEmpty returns true if the range covers no bytes.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Len returns the number of bytes covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// Document is a mutable text buffer addressed by byte offsets.
type Document struct {
	text    string
	version int
}

// NewDocument creates a document with the given initial text.
func NewDocument(text string) *Document {
	return &Document{text: text}
}

// Text returns the full document text.
func (d *Document) Text() string {
	return d.text
}

// Len returns the document length in bytes.
func (d *Document) Len() int {
	return len(d.text)
}

// Version increases with every modification.
func (d *Document) Version() int {
	return d.version
}

// TextRange returns the text in r.
func (d *Document) TextRange(r Range) (string, error) {
	if err := d.check(r); err != nil {
		return "", err
	}
	return d.text[r.Start:r.End], nil
}

// Insert inserts text at offset.
func (d *Document) Insert(offset int, text string) error {
	return d.Replace(Range{Start: offset, End: offset}, text)
}

// Delete removes the text in r.
func (d *Document) Delete(r Range) error {
	return d.Replace(r, "")
}

// Replace replaces the text in r with text.
func (d *Document) Replace(r Range, text string) error {
	if err := d.check(r); err != nil {
		return err
	}
	d.text = d.text[:r.Start] + text + d.text[r.End:]
	d.version++
	return nil
}

func (d *Document) check(r Range) error {
	if r.Start < 0 || r.End < r.Start || r.End > len(d.text) {
		return fmt.Errorf("%w: [%d,%d) in document of length %d", ErrOutOfRange, r.Start, r.End, len(d.text))
	}
	return nil
}

// Cursor is a caret with an optional selection anchor.
// When Anchor equals Head there is no selection.
type Cursor struct {
	Head   int
	Anchor int
}

// CursorAt returns a cursor without selection at offset.
func CursorAt(offset int) Cursor {
	return Cursor{Head: offset, Anchor: offset}
}

// HasSelection returns true if the cursor selects text.
func (c Cursor) HasSelection() bool {
	return c.Head != c.Anchor
}

// Selection returns the selected range, ordered.
func (c Cursor) Selection() Range {
	if c.Anchor < c.Head {
		return Range{Start: c.Anchor, End: c.Head}
	}
	return Range{Start: c.Head, End: c.Anchor}
}

// clamp limits the cursor to [0, n].
func (c Cursor) clamp(n int) Cursor {
	return Cursor{Head: clampInt(c.Head, 0, n), Anchor: clampInt(c.Anchor, 0, n)}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Editor is the context operators act on.
type Editor struct {
	Doc    *Document
	Cursor Cursor
}

// NewEditor creates an editor over text with the cursor at the end.
func NewEditor(text string) *Editor {
	return &Editor{
		Doc:    NewDocument(text),
		Cursor: CursorAt(len(text)),
	}
}

// MoveTo places the cursor at offset, dropping any selection.
func (e *Editor) MoveTo(offset int) {
	e.Cursor = CursorAt(offset).clamp(e.Doc.Len())
}

// Select selects [anchor, head).
func (e *Editor) Select(anchor, head int) {
	e.Cursor = Cursor{Head: head, Anchor: anchor}.clamp(e.Doc.Len())
}
