// Package demo is the reference application driven by the CLI and the
// scenario harness.
//
// It composes two independent slices into one program:
//   - math: an int counter with Increment, Decrement, Multiply and Divide
//   - strings: a list with Append, Augment and Noop; Append records the
//     value in the environment and publishes Noop from a command
//
// Each slice is written against its own state, message and environment
// types and lifted into State/Message/Env with tea.Lift.
package demo
