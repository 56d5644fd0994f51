package jhash

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get, Update and Delete when the key is absent.
	ErrNotFound = errors.New("jhash: key not found")

	// ErrAlreadyExists is returned by Create when the key is already present.
	ErrAlreadyExists = errors.New("jhash: key already exists")

	// ErrClosed is returned when a Hash is used after Free or an Iter after Close.
	ErrClosed = errors.New("jhash: use of freed handle")

	// StopMap can be returned by a MapFunc to end a Map walk early.
	// Map then returns nil.
	StopMap = errors.New("jhash: stop map")

	// ErrInvalidInput matches engine errors caused by a key or value the
	// engine cannot store. They are returned to the caller but never
	// handed to the ErrorPolicy.
	ErrInvalidInput = errors.New("jhash: invalid key or value")
)

// InputError is an engine error caused by the caller's key or value.
// It matches ErrInvalidInput.
type InputError string

func (e InputError) Error() string { return string(e) }

// Is reports whether target is ErrInvalidInput.
func (e InputError) Is(target error) bool { return target == ErrInvalidInput }

// EngineError reports a fault raised by the wrapped engine.
//
// API names the Hash operation that failed, Message describes what the
// adapter was doing, and the engine's own error is available through
// errors.Unwrap.
type EngineError struct {
	API     string
	Message string
	cause   error
}

func (e *EngineError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("jhash: %s: %s", e.API, e.Message)
	}
	return fmt.Sprintf("jhash: %s: %s: %v", e.API, e.Message, e.cause)
}

func (e *EngineError) Unwrap() error { return e.cause }
