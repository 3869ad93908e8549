// Package tea implements a unidirectional state runtime in the style of The
// Elm Architecture.
//
// A Program holds one state value. Callers Dispatch messages; a
// MessageHandler computes the next state and a Command for each message;
// the Command runs against an injected environment and may publish further
// messages back into the loop.
//
// ARCHITECTURE:
//
// Single-Writer Update Loop:
// Every message passes through one goroutine that runs the middleware chain
// and the handler. State reads use a read lock and never queue behind
// dispatches.
//
// Message Processing Flow:
//  1. Dispatch enqueues the message on an unbounded FIFO mailbox
//  2. The update loop dequeues messages one at a time
//  3. The middleware chain runs, outermost first, around the core dispatcher
//  4. The core dispatcher runs the handler, commits the new state and bumps
//     the version
//  5. The committed state is queued for subscribers (notifier goroutine)
//  6. The command's effects are submitted to the executor
//
// Effects publish through Dispatch, so a follow-up message is a new arrival,
// not a continuation of the message that produced it. Effects of one Batch
// have no ordering among themselves.
//
// Composition:
//
// Handlers and reducers compose by concatenation with Merge, running left to
// right over the progressively updated state. Lift scopes a handler written
// for a substate and submessage into the enclosing program using a Lens and
// a Prism; messages that do not narrow are silent no-ops.
//
// Failure model:
//
// Handlers are pure and total. Fallible work belongs in commands, which turn
// failures into messages. Panics in handlers or effects are not recovered.
// Misconfigured lifts panic with a *ConfigError.
package tea
