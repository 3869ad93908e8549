package demo

import (
	"log/slog"
	"sync"
)

// Environment is the production Env. It remembers the last appended value.
//
// Thread-safety: safe for concurrent use; commands call it from executor
// goroutines.
type Environment struct {
	logger *slog.Logger

	mu         sync.Mutex
	lastAppend string
	appends    int
}

// NewEnvironment creates an Environment. A nil logger uses slog.Default().
func NewEnvironment(logger *slog.Logger) *Environment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Environment{logger: logger}
}

// UpdateLastAppend records value.
func (e *Environment) UpdateLastAppend(value string) {
	e.mu.Lock()
	e.lastAppend = value
	e.appends++
	n := e.appends
	e.mu.Unlock()

	e.logger.Debug("last append updated", "value", value, "appends", n)
}

// LastAppend returns the last recorded value.
func (e *Environment) LastAppend() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAppend
}

// Appends returns how many values were recorded.
func (e *Environment) Appends() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.appends
}
