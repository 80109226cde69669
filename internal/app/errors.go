package app

import "errors"

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrNoFile indicates a save was requested for a session without a file.
	ErrNoFile = errors.New("no file to save to")
)
