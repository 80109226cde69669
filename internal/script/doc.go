// Package script runs history operators written in Lua.
//
// A script defines an operator as a global table with apply and unapply
// functions and an optional prepare function. Each function is called as a
// method, so the table can keep state between Apply and Unapply in its own
// fields:
//
//	upper = {
//	    prepare = function(self, ed) self.old = ed:text() end,
//	    apply   = function(self, ed) ed:set(string.upper(self.old)) end,
//	    unapply = function(self, ed) ed:set(self.old) end,
//	}
//
// When the global is a function instead of a table it is treated as a
// factory and called once per operator to produce a fresh table, so the same
// script can be submitted any number of times.
//
// Scripts run in a sandbox that exposes only the base, table, string and
// math libraries. Every call is bounded by the state's execution timeout.
package script
