package runtime

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals end a service or CLI run.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SignalContext is canceled on the first shutdown signal.
func SignalContext() (context.Context, context.CancelFunc) {
	return SignalContextFrom(context.Background())
}

// SignalContextFrom derives from parent so callers can layer deadlines.
func SignalContextFrom(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, ShutdownSignals...)
}
