package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupHandler returns a context that is cancelled on the first SIGINT or
// SIGTERM. Long passes check it between files, so an interrupt never lands
// in the middle of a relocation. A second signal exits immediately.
func SetupHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}

		<-sigChan
		os.Exit(130)
	}()

	return ctx, cancel
}
