package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
)

// SetupHandler returns a context cancelled on SIGINT or SIGTERM. A second
// signal after cancellation exits immediately. Call stop to release the
// signal registration.
func SetupHandler(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	stopped := make(chan struct{})

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-stopped:
			return
		}
		select {
		case <-sigChan:
			os.Exit(130)
		case <-stopped:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(stopped)
			cancel()
		})
	}
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Decoding is CPU bound and cgo loaders misbehave under heavy fan-out.
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}

// WorkerCount returns configured when positive, otherwise GetOptimalProcs.
func WorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return GetOptimalProcs()
}
