package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// SafeGo executes a function in a goroutine with:
// - Detachment from the parent's cancellation (values are kept)
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// The returned channel is closed once fn has finished.
//
// Example:
//
//	async.SafeGo(r.Context(), logger, 10*time.Second, "notification dispatch", func(ctx context.Context) error {
//	    dispatcher.Dispatch(ctx, trigger, job)
//	    return nil
//	})
func SafeGo(parentCtx context.Context, logger logrus.FieldLogger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	ctx := context.WithoutCancel(parentCtx)

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("task", taskName).Warn("Background task failed")
		}
	}()

	return done
}

// SafeGoNoError is like SafeGo but for functions that don't return errors.
func SafeGoNoError(parentCtx context.Context, logger logrus.FieldLogger, timeout time.Duration, taskName string, fn func(context.Context)) <-chan struct{} {
	return SafeGo(parentCtx, logger, timeout, taskName, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}
