package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stepwise/internal/logging"
)

// Globals removed from the base library. They load code from disk or from
// strings outside the state's control.
var dangerousGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"module",
	"require",
}

// openSafeLibraries opens only the libraries scripts may use.
// io, os, debug and package are intentionally not opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes dangerous globals and redirects print to log.
func installSandbox(L *lua.LState, log *logging.Logger) {
	for _, name := range dangerousGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		log.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
}
