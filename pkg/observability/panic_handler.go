package observability

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanicWithCallback recovers from a panic, logs it, and executes a
// callback. The callback only runs when a panic occurred.
func RecoverPanicWithCallback(logger logrus.FieldLogger, context string, callback func(r interface{})) {
	if r := recover(); r != nil {
		logPanic(logger, context, r)
		if callback != nil {
			callback(r)
		}
	}
}

func logPanic(logger logrus.FieldLogger, context string, r interface{}) {
	logger.WithFields(logrus.Fields{
		"panic":   r,
		"stack":   string(debug.Stack()),
		"context": context,
	}).Error("PANIC recovered")
}
