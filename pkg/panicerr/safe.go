// Package panicerr folds panic recovery into ordinary error returns so
// long-lived background loops survive a panicking callback.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Safe returns fn with recovery attached: if fn panics, the recovered value
// comes back as the error instead of tearing down the goroutine. fn's own
// error wins when both happen.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext is Safe for context-taking functions.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}
