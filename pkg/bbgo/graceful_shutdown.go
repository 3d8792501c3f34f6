package bbgo

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type ShutdownHandler func(ctx context.Context, wg *sync.WaitGroup)

type GracefulShutdown struct {
	mu                sync.Mutex
	shutdownCallbacks []ShutdownHandler
}

func (g *GracefulShutdown) OnShutdown(cb ShutdownHandler) {
	g.mu.Lock()
	g.shutdownCallbacks = append(g.shutdownCallbacks, cb)
	g.mu.Unlock()
}

func (g *GracefulShutdown) EmitShutdown(ctx context.Context, wg *sync.WaitGroup) {
	g.mu.Lock()
	callbacks := append([]ShutdownHandler(nil), g.shutdownCallbacks...)
	g.mu.Unlock()

	for _, cb := range callbacks {
		go cb(ctx, wg)
	}
}

// Shutdown is a blocking call to emit all shutdown callbacks at the same time.
// Each callback must call wg.Done when it finishes.
func (g *GracefulShutdown) Shutdown(ctx context.Context, timeout time.Duration) {
	logrus.Infof("shutting down...")

	g.mu.Lock()
	n := len(g.shutdownCallbacks)
	g.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(n)

	shtCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g.EmitShutdown(shtCtx, &wg)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shtCtx.Done():
		logrus.Warnf("graceful shutdown timed out after %s", timeout)
	}
}
