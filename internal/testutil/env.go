package testutil

import "sync"

// RecordingEnv is a test environment that remembers the last value passed
// to UpdateLastAppend and counts calls.
//
// Thread-safety: all methods are safe for concurrent use, since effects run
// on executor goroutines.
type RecordingEnv struct {
	mu         sync.Mutex
	lastAppend string
	calls      int
}

// NewRecordingEnv creates an empty RecordingEnv.
func NewRecordingEnv() *RecordingEnv {
	return &RecordingEnv{}
}

// UpdateLastAppend records value.
func (e *RecordingEnv) UpdateLastAppend(value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAppend = value
	e.calls++
}

// LastAppend returns the last recorded value, or "" if none.
func (e *RecordingEnv) LastAppend() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAppend
}

// Calls returns how many times UpdateLastAppend was called.
func (e *RecordingEnv) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
