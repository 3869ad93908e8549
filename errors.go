package tea

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrEmptyHandler is raised when a MessageHandler is built from zero
	// functions, or when a zero-value handler is run.
	ErrEmptyHandler = errors.New("tea: message handler requires at least one function")

	// ErrEmptyReducer is raised when a Reducer is built from zero functions.
	ErrEmptyReducer = errors.New("tea: reducer requires at least one function")

	// ErrClosed is returned by operations on a closed Program.
	ErrClosed = errors.New("tea: program closed")
)

// ConfigError reports an integrator misconfiguration detected at runtime,
// such as an environment that cannot be narrowed for a lifted handler or a
// message that cannot be widened back to the enclosing message type.
//
// ConfigError is raised with panic. It is a programming error, not part of
// the steady-state error surface.
type ConfigError struct {
	// Op names the operation that failed ("narrow environment", "widen message").
	Op string

	// Want is the type the operation required.
	Want string

	// Got is the type it received.
	Got string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("tea: %s: %s cannot be converted to %s", e.Op, e.Got, e.Want)
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configPanic[W any](op string, got any) {
	panic(&ConfigError{
		Op:   op,
		Want: reflect.TypeFor[W]().String(),
		Got:  fmt.Sprintf("%T", got),
	})
}
