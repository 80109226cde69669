package textdoc

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dshills/stepwise/internal/engine/history"
)

// Operator is a history operator over an Editor.
type Operator = history.Operator[*Editor]

// ErrNotPrepared is returned when a cursor-relative operator is applied
// before Prepare resolved its target.
var ErrNotPrepared = errors.New("operator applied before prepare")

// InsertOp inserts Text at Offset.
type InsertOp struct {
	Offset int
	Text   string
}

// NewInsert creates an insert operator.
func NewInsert(offset int, text string) *InsertOp {
	return &InsertOp{Offset: offset, Text: text}
}

// Prepare checks that the offset is inside the document.
func (o *InsertOp) Prepare(e *Editor) error {
	if o.Offset < 0 || o.Offset > e.Doc.Len() {
		return fmt.Errorf("insert at offset %d: %w", o.Offset, ErrOutOfRange)
	}
	return nil
}

// Apply inserts the text and moves the cursor after it.
func (o *InsertOp) Apply(e *Editor) error {
	if err := e.Doc.Insert(o.Offset, o.Text); err != nil {
		return fmt.Errorf("insert at offset %d: %w", o.Offset, err)
	}
	e.Cursor = CursorAt(o.Offset + len(o.Text))
	return nil
}

// Unapply removes the inserted text.
func (o *InsertOp) Unapply(e *Editor) error {
	r := Range{Start: o.Offset, End: o.Offset + len(o.Text)}
	if err := e.Doc.Delete(r); err != nil {
		return fmt.Errorf("undo insert: %w", err)
	}
	e.Cursor = CursorAt(o.Offset)
	return nil
}

// Description returns a human-readable description.
func (o *InsertOp) Description() string {
	return DescribeInsert(o.Text)
}

// DeleteOp removes the text in Range. The removed text is captured in
// Prepare so Unapply can put it back.
type DeleteOp struct {
	Range    Range
	removed  string
	captured bool
}

// NewDelete creates a delete operator.
func NewDelete(r Range) *DeleteOp {
	return &DeleteOp{Range: r}
}

// Prepare captures the text that will be removed.
func (o *DeleteOp) Prepare(e *Editor) error {
	text, err := e.Doc.TextRange(o.Range)
	if err != nil {
		return fmt.Errorf("delete at range [%d,%d): %w", o.Range.Start, o.Range.End, err)
	}
	o.removed, o.captured = text, true
	return nil
}

// Apply removes the range and leaves the cursor at its start.
func (o *DeleteOp) Apply(e *Editor) error {
	if err := e.Doc.Delete(o.Range); err != nil {
		return fmt.Errorf("delete at range [%d,%d): %w", o.Range.Start, o.Range.End, err)
	}
	e.Cursor = CursorAt(o.Range.Start)
	return nil
}

// Unapply reinserts the removed text.
func (o *DeleteOp) Unapply(e *Editor) error {
	if err := e.Doc.Insert(o.Range.Start, o.removed); err != nil {
		return fmt.Errorf("undo delete: %w", err)
	}
	e.Cursor = CursorAt(o.Range.End)
	return nil
}

// Removed returns the text captured by Prepare.
func (o *DeleteOp) Removed() string {
	return o.removed
}

// Description returns a human-readable description. Characters are counted
// once the removed text is known; before that the byte length is used.
func (o *DeleteOp) Description() string {
	n := o.Range.Len()
	if o.captured {
		n = utf8.RuneCountInString(o.removed)
	}
	if n == 1 {
		return "Delete"
	}
	return fmt.Sprintf("Delete %d characters", n)
}

// ReplaceOp replaces the text in Range with NewText.
type ReplaceOp struct {
	Range    Range
	NewText  string
	oldText  string
	captured bool
}

// NewReplace creates a replace operator.
func NewReplace(r Range, newText string) *ReplaceOp {
	return &ReplaceOp{Range: r, NewText: newText}
}

// Prepare captures the text being replaced.
func (o *ReplaceOp) Prepare(e *Editor) error {
	text, err := e.Doc.TextRange(o.Range)
	if err != nil {
		return fmt.Errorf("replace at range [%d,%d): %w", o.Range.Start, o.Range.End, err)
	}
	o.oldText, o.captured = text, true
	return nil
}

// Apply replaces the range and moves the cursor after the new text.
func (o *ReplaceOp) Apply(e *Editor) error {
	if err := e.Doc.Replace(o.Range, o.NewText); err != nil {
		return fmt.Errorf("replace at range [%d,%d): %w", o.Range.Start, o.Range.End, err)
	}
	e.Cursor = CursorAt(o.Range.Start + len(o.NewText))
	return nil
}

// Unapply restores the original text.
func (o *ReplaceOp) Unapply(e *Editor) error {
	r := Range{Start: o.Range.Start, End: o.Range.Start + len(o.NewText)}
	if err := e.Doc.Replace(r, o.oldText); err != nil {
		return fmt.Errorf("undo replace: %w", err)
	}
	e.Cursor = Cursor{Head: o.Range.End, Anchor: o.Range.Start}
	return nil
}

// Description returns a human-readable description.
func (o *ReplaceOp) Description() string {
	oldLen := o.Range.Len()
	if o.captured {
		oldLen = utf8.RuneCountInString(o.oldText)
	}
	newLen := utf8.RuneCountInString(o.NewText)
	if oldLen == 0 {
		return fmt.Sprintf("Insert %d characters", newLen)
	}
	if newLen == 0 {
		return fmt.Sprintf("Delete %d characters", oldLen)
	}
	return fmt.Sprintf("Replace %d with %d characters", oldLen, newLen)
}

// TypeOp types Text at the cursor as it stands when the operator is
// prepared, replacing the selection if there is one. Several TypeOps in one
// step therefore type one after another.
type TypeOp struct {
	Text string
	edit *ReplaceOp
}

// NewType creates a cursor-relative typing operator.
func NewType(text string) *TypeOp {
	return &TypeOp{Text: text}
}

// Prepare resolves the target range from the current cursor.
func (o *TypeOp) Prepare(e *Editor) error {
	r := Range{Start: e.Cursor.Head, End: e.Cursor.Head}
	if e.Cursor.HasSelection() {
		r = e.Cursor.Selection()
	}
	o.edit = NewReplace(r, o.Text)
	return o.edit.Prepare(e)
}

// Apply types the text.
func (o *TypeOp) Apply(e *Editor) error {
	if o.edit == nil {
		return ErrNotPrepared
	}
	return o.edit.Apply(e)
}

// Unapply removes the typed text and restores any replaced selection.
func (o *TypeOp) Unapply(e *Editor) error {
	if o.edit == nil {
		return ErrNotPrepared
	}
	return o.edit.Unapply(e)
}

// Description returns a human-readable description.
func (o *TypeOp) Description() string {
	if o.edit == nil || o.edit.Range.IsEmpty() {
		return DescribeInsert(o.Text)
	}
	return o.edit.Description()
}

// BackspaceOp deletes the selection, or the character before the cursor, as
// they stand when the operator is prepared. At the start of the document it
// deletes nothing.
type BackspaceOp struct {
	edit *DeleteOp
}

// NewBackspace creates a cursor-relative backspace operator.
func NewBackspace() *BackspaceOp {
	return &BackspaceOp{}
}

// Prepare resolves the range to delete from the current cursor.
func (o *BackspaceOp) Prepare(e *Editor) error {
	r, ok := e.backspaceRange()
	if !ok {
		r = Range{Start: e.Cursor.Head, End: e.Cursor.Head}
	}
	o.edit = NewDelete(r)
	return o.edit.Prepare(e)
}

// Apply deletes the resolved range.
func (o *BackspaceOp) Apply(e *Editor) error {
	if o.edit == nil {
		return ErrNotPrepared
	}
	return o.edit.Apply(e)
}

// Unapply restores the deleted text.
func (o *BackspaceOp) Unapply(e *Editor) error {
	if o.edit == nil {
		return ErrNotPrepared
	}
	return o.edit.Unapply(e)
}

// Description returns a human-readable description.
func (o *BackspaceOp) Description() string {
	if o.edit == nil || o.edit.Range.IsEmpty() {
		return "Backspace"
	}
	return o.edit.Description()
}

// DescribeInsert returns the description used for typed text.
func DescribeInsert(text string) string {
	n := utf8.RuneCountInString(text)
	if n == 1 {
		switch text {
		case "\n":
			return "Insert newline"
		case "\t":
			return "Insert tab"
		}
		return fmt.Sprintf("Type '%s'", text)
	}
	if n <= 20 {
		return fmt.Sprintf("Insert \"%s\"", text)
	}
	return fmt.Sprintf("Insert %d characters", n)
}

// TypeText returns the operator for typing text at the cursor: a replace if
// text is selected, an insert otherwise. The target is fixed now, so the
// operator must be submitted before the cursor moves.
func (e *Editor) TypeText(text string) Operator {
	if e.Cursor.HasSelection() {
		return e.ReplaceRange(e.Cursor.Selection(), text)
	}
	return NewInsert(e.Cursor.Head, text)
}

// Backspace returns the operator deleting the selection or the character
// before the cursor, or nil if there is nothing to delete.
func (e *Editor) Backspace() Operator {
	r, ok := e.backspaceRange()
	if !ok {
		return nil
	}
	return e.DeleteRange(r)
}

// DeleteRange returns a delete operator for r whose description already
// counts the characters currently in r.
func (e *Editor) DeleteRange(r Range) *DeleteOp {
	op := NewDelete(r)
	if text, err := e.Doc.TextRange(r); err == nil {
		op.removed, op.captured = text, true
	}
	return op
}

// ReplaceRange returns a replace operator for r whose description already
// counts the characters currently in r.
func (e *Editor) ReplaceRange(r Range, text string) *ReplaceOp {
	op := NewReplace(r, text)
	if old, err := e.Doc.TextRange(r); err == nil {
		op.oldText, op.captured = old, true
	}
	return op
}

// backspaceRange returns the selection, or the last character before the
// cursor. It reports false when the cursor is at the start with nothing
// selected.
func (e *Editor) backspaceRange() (Range, bool) {
	if e.Cursor.HasSelection() {
		return e.Cursor.Selection(), true
	}
	head := e.Cursor.Head
	if head <= 0 || head > e.Doc.Len() {
		return Range{}, false
	}
	_, size := utf8.DecodeLastRuneInString(e.Doc.text[:head])
	return Range{Start: head - size, End: head}, true
}

// Describe returns the description of op if it has one.
func Describe(op Operator) string {
	if d, ok := op.(interface{ Description() string }); ok {
		return d.Description()
	}
	return ""
}
