package recovery

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Safe invokes fn and swallows any panic, logging it with a stack trace.
// Subscriber callbacks run user code; a panicking handler must not take the
// connection loops down with it.
func Safe(logger *zap.Logger, location string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic recovered",
				zap.String("location", location),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	fn()
}

// Go runs fn on a new goroutine with panic recovery.
func Go(logger *zap.Logger, name string, fn func()) {
	go Safe(logger, name, fn)
}
