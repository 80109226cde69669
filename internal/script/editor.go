package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stepwise/internal/textdoc"
)

const editorTypeName = "stepwise.editor"

// BindEditor exposes e to Lua as a userdata with these methods. Offsets are
// zero-based byte offsets, matching textdoc.
//
//	ed:text()                   full text
//	ed:len()                    length in bytes
//	ed:sub(start, end)          text in [start, end)
//	ed:insert(offset, s)        insert s, cursor after it
//	ed:delete(start, end)       delete [start, end), cursor at start
//	ed:replace(start, end, s)   replace [start, end) with s
//	ed:set(s)                   replace the whole text
//	ed:cursor()                 head, anchor
//	ed:move(offset)             place the cursor
func BindEditor(L *lua.LState, e *textdoc.Editor) lua.LValue {
	ud := L.NewUserData()
	ud.Value = e
	L.SetMetatable(ud, editorMetatable(L))
	return ud
}

func editorMetatable(L *lua.LState) *lua.LTable {
	mt := L.NewTypeMetatable(editorTypeName)
	if mt.RawGetString("__index") != lua.LNil {
		return mt
	}
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"text":    editorText,
		"len":     editorLen,
		"sub":     editorSub,
		"insert":  editorInsert,
		"delete":  editorDelete,
		"replace": editorReplace,
		"set":     editorSet,
		"cursor":  editorCursor,
		"move":    editorMove,
	}))
	return mt
}

func checkEditor(L *lua.LState) *textdoc.Editor {
	ud := L.CheckUserData(1)
	e, ok := ud.Value.(*textdoc.Editor)
	if !ok {
		L.ArgError(1, "editor expected")
		return nil
	}
	return e
}

func checkRange(L *lua.LState, n int) textdoc.Range {
	return textdoc.Range{Start: L.CheckInt(n), End: L.CheckInt(n + 1)}
}

func editorText(L *lua.LState) int {
	e := checkEditor(L)
	L.Push(lua.LString(e.Doc.Text()))
	return 1
}

func editorLen(L *lua.LState) int {
	e := checkEditor(L)
	L.Push(lua.LNumber(e.Doc.Len()))
	return 1
}

func editorSub(L *lua.LState) int {
	e := checkEditor(L)
	text, err := e.Doc.TextRange(checkRange(L, 2))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(text))
	return 1
}

func editorInsert(L *lua.LState) int {
	e := checkEditor(L)
	offset := L.CheckInt(2)
	text := L.CheckString(3)
	if err := e.Doc.Insert(offset, text); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	e.Cursor = textdoc.CursorAt(offset + len(text))
	return 0
}

func editorDelete(L *lua.LState) int {
	e := checkEditor(L)
	r := checkRange(L, 2)
	if err := e.Doc.Delete(r); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	e.Cursor = textdoc.CursorAt(r.Start)
	return 0
}

func editorReplace(L *lua.LState) int {
	e := checkEditor(L)
	r := checkRange(L, 2)
	text := L.CheckString(4)
	if err := e.Doc.Replace(r, text); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	e.Cursor = textdoc.CursorAt(r.Start + len(text))
	return 0
}

func editorSet(L *lua.LState) int {
	e := checkEditor(L)
	text := L.CheckString(2)
	if err := e.Doc.Replace(textdoc.Range{Start: 0, End: e.Doc.Len()}, text); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	e.MoveTo(e.Cursor.Head)
	return 0
}

func editorCursor(L *lua.LState) int {
	e := checkEditor(L)
	L.Push(lua.LNumber(e.Cursor.Head))
	L.Push(lua.LNumber(e.Cursor.Anchor))
	return 2
}

func editorMove(L *lua.LState) int {
	e := checkEditor(L)
	e.MoveTo(L.CheckInt(2))
	return 0
}
