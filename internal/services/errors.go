package services

import "errors"

var (
	// ErrNotFound means an item, price or metadata record is absent both
	// locally and remotely. Callers skip the item rather than abort.
	ErrNotFound = errors.New("not found")

	// ErrRemoteUnavailable means the catalog service answered non-2xx, timed
	// out, or returned a malformed payload after retries were exhausted.
	ErrRemoteUnavailable = errors.New("remote catalog unavailable")

	// ErrSessionActive is returned when a session start is attempted while
	// an update loop is already running. Rotation goes through Reset.
	ErrSessionActive = errors.New("session already active")

	// ErrNoSession is returned when a rotation is requested before any
	// session was started.
	ErrNoSession = errors.New("no active session")
)
