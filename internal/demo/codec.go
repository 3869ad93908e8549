package demo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownKind is returned when decoding a kind the codec does not know.
var ErrUnknownKind = errors.New("demo: unknown message kind")

// Message kinds as they appear in journals and scenario files.
const (
	KindIncrement = "increment"
	KindDecrement = "decrement"
	KindMultiply  = "multiply"
	KindDivide    = "divide"
	KindNoop      = "noop"
	KindAppend    = "append"
	KindAugment   = "augment"
)

var factories = map[string]func() Message{
	KindIncrement: func() Message { return &Increment{} },
	KindDecrement: func() Message { return &Decrement{} },
	KindMultiply:  func() Message { return &Multiply{} },
	KindDivide:    func() Message { return &Divide{} },
	KindNoop:      func() Message { return &Noop{} },
	KindAppend:    func() Message { return &Append{} },
	KindAugment:   func() Message { return &Augment{} },
}

// Kinds returns every known kind, sorted.
func Kinds() []string {
	return slices.Sorted(maps.Keys(factories))
}

// Kind returns the kind of msg, or "" for a message the codec does not know.
func Kind(msg Message) string {
	switch msg.(type) {
	case Increment:
		return KindIncrement
	case Decrement:
		return KindDecrement
	case Multiply:
		return KindMultiply
	case Divide:
		return KindDivide
	case Noop:
		return KindNoop
	case Append:
		return KindAppend
	case Augment:
		return KindAugment
	default:
		return ""
	}
}

// Encode returns the kind and JSON payload of msg. It has the shape of
// middleware.EncodeFunc.
func Encode(msg Message) (string, []byte, error) {
	kind := Kind(msg)
	if kind == "" {
		return "", nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", nil, fmt.Errorf("demo: encode %s: %w", kind, err)
	}
	return kind, payload, nil
}

// Decode rebuilds a message from its kind and JSON payload. Unknown fields
// are rejected.
func Decode(kind string, payload []byte) (Message, error) {
	factory, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	ptr := factory()
	if len(payload) > 0 {
		if err := decodeStrict(payload, ptr); err != nil {
			return nil, fmt.Errorf("demo: decode %s: %w", kind, err)
		}
	}
	return deref(ptr), nil
}

// FromArgs builds a message from a kind and loosely typed arguments, as
// found in scenario files.
func FromArgs(kind string, args map[string]any) (Message, error) {
	if len(args) == 0 {
		return Decode(kind, nil)
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("demo: args for %s: %w", kind, err)
	}
	return Decode(kind, payload)
}

func decodeStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// deref turns the pointer produced by a factory back into a value message,
// which is what the handlers match on.
func deref(ptr Message) Message {
	switch m := ptr.(type) {
	case *Increment:
		return *m
	case *Decrement:
		return *m
	case *Multiply:
		return *m
	case *Divide:
		return *m
	case *Noop:
		return *m
	case *Append:
		return *m
	case *Augment:
		return *m
	default:
		return ptr
	}
}
