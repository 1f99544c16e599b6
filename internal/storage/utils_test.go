package storage

import (
	"context"
	"sync"
	"testing"
	"time"
)

// blockingChecker holds each health check open until released.
type blockingChecker struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingChecker) CheckHealth(context.Context) *Health {
	b.started <- struct{}{}
	<-b.release
	return CreateHealthData(StatusHealthy, "ok", nil)
}

func TestHealthMonitorJoinsWaitGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	hm := NewHealthManager()
	checker := &blockingChecker{started: make(chan struct{}, 1), release: make(chan struct{})}

	StartHealthMonitor(ctx, &wg, hm, "sqlite", checker, time.Hour)

	select {
	case <-checker.started:
	case <-time.After(time.Second):
		t.Fatal("health check never started")
	}
	cancel()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("wait group released while a health check was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(checker.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("health monitor did not stop after cancellation")
	}

	if h, ok := hm.GetHealth("sqlite"); !ok || h.Status != StatusHealthy {
		t.Errorf("GetHealth = %+v, %v", h, ok)
	}
}
