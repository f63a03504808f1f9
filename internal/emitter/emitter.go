// Package emitter publishes emitted letters to external consumers.
package emitter

import (
	"errors"

	"github.com/ayusman/signbridge/internal/gesture"
)

// Emitter receives every letter a session emits.
type Emitter interface {
	Publish(event gesture.LetterEvent) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(gesture.LetterEvent) error { return nil }
func (Nop) Close() error                      { return nil }

// Func adapts a function to an Emitter.
type Func func(event gesture.LetterEvent)

func (f Func) Publish(event gesture.LetterEvent) error {
	f(event)
	return nil
}

func (f Func) Close() error { return nil }

// Fanout publishes to every emitter and joins their errors.
type Fanout []Emitter

func (f Fanout) Publish(event gesture.LetterEvent) error {
	var errs []error
	for _, e := range f {
		if err := e.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, e := range f {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
