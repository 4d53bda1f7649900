// Package cascade evaluates an ordered list of alternatives and keeps the
// first one that succeeds.
package cascade

import (
	"context"
	"errors"
	"fmt"
)

// ErrExhausted is returned when every step failed.
var ErrExhausted = errors.New("cascade: all steps failed")

// Step is one named alternative.
type Step[T any] struct {
	Name string
	Try  func(ctx context.Context) (T, error)
}

// First runs steps in order and returns the value and index of the first
// step that returns a nil error. Later steps are never attempted once one
// succeeds. When all steps fail the error matches ErrExhausted and wraps the
// last step's error. A cancelled ctx stops the cascade before the next step.
func First[T any](ctx context.Context, steps []Step[T]) (T, int, error) {
	var zero T
	var last error
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return zero, -1, errors.Join(ErrExhausted, err)
		}
		v, err := s.Try(ctx)
		if err == nil {
			return v, i, nil
		}
		last = fmt.Errorf("%s: %w", s.Name, err)
	}
	if last == nil {
		return zero, -1, ErrExhausted
	}
	return zero, -1, errors.Join(ErrExhausted, last)
}
