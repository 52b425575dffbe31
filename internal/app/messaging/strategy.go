/*
Package messaging is the guest chat facade. Each operation is an ordered list of strategies
against the remote API: the guest endpoints first, the anonymous endpoints as fallback.
*/
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"studiosite/internal/pkg/logx"
)

// Strategy is one way of performing an operation.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

type haltError struct {
	err error
}

func (e *haltError) Error() string { return e.err.Error() }

func (e *haltError) Unwrap() error { return e.err }

// Halt marks err as final. Attempt returns it without running the remaining strategies.
func Halt(err error) error {
	return &haltError{err: err}
}

// Attempt runs strategies in order and returns the first success together with the name
// of the strategy that produced it. When every strategy fails, or one halts, the error is a
// *multierror.Error holding one entry per attempt.
func Attempt[T any](ctx context.Context, strategies ...Strategy[T]) (T, string, error) {
	var zero T
	var result error

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		out, err := s.Run(ctx)
		if err == nil {
			return out, s.Name, nil
		}

		var halt *haltError
		if errors.As(err, &halt) {
			result = multierror.Append(result, fmt.Errorf("%s: %w", s.Name, halt.err))
			break
		}

		logx.Ctx(ctx).Debug().Err(err).Str("strategy", s.Name).Msg("Messaging strategy failed")
		result = multierror.Append(result, fmt.Errorf("%s: %w", s.Name, err))
	}

	if result == nil {
		result = multierror.Append(result, fmt.Errorf("no strategies to attempt"))
	}
	return zero, "", result
}
