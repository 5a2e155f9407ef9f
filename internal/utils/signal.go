package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// SetupSignalHandling returns a context cancelled on SIGINT or SIGTERM.
// A second signal exits the process immediately.
func SetupSignalHandling(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			return
		}
		sig := <-sigCh
		logger.Error("received second signal, exiting", zap.String("signal", sig.String()))
		os.Exit(1)
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
