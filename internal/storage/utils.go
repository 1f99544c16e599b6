package storage

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/types"
)

// StartHealthMonitor checks a storage backend immediately and then every
// interval, recording the results in hm until ctx is cancelled. The monitor
// is tracked by wg.
func StartHealthMonitor(ctx context.Context, wg *sync.WaitGroup, hm *HealthManager, storageType string, checker HealthChecker, interval time.Duration) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		updateHealth := func() {
			health := checker.CheckHealth(ctx)
			hm.UpdateHealth(storageType, health)
			log.Debugf("updated %s health status: %s", storageType, health.Status)
		}

		updateHealth()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				updateHealth()
			case <-ctx.Done():
				log.Infof("stopping %s health monitor", storageType)
				return
			}
		}
	}()
}

// ProcessReadings hands each reading from readingChan to processor until
// ctx is cancelled. Processor errors are logged and the reading dropped.
// The caller must have added this goroutine to wg.
func ProcessReadings(ctx context.Context, wg *sync.WaitGroup, readingChan <-chan types.Reading, processor func(context.Context, types.Reading) error, name string) {
	defer wg.Done()

	for {
		select {
		case r := <-readingChan:
			if err := processor(ctx, r); err != nil {
				log.Errorf("%s reading processor error: %v", name, err)
			}
		case <-ctx.Done():
			log.Infof("cancellation request received. Cancelling %s readings processor", name)
			return
		}
	}
}

// CreateHealthData creates a health record stamped with the current time
func CreateHealthData(status, message string, err error) *Health {
	health := &Health{
		LastCheck: time.Now(),
		Status:    status,
		Message:   message,
	}
	if err != nil {
		health.Error = err.Error()
	}
	return health
}
