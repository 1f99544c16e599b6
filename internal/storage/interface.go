// Package storage defines the contract storage backends implement and the
// plumbing they share: reading processors and health monitoring.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/weatherlink/internal/types"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.Reading
}

// HealthChecker is implemented by storage backends that can report on the
// state of their connection.
type HealthChecker interface {
	CheckHealth(ctx context.Context) *Health
}
