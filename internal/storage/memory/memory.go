// Package memory keeps the most recent reading from each station so the
// REST server can answer without a database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/storage"
	"github.com/chrissnell/weatherlink/internal/types"
)

// ErrNoReading is returned for a station that has not reported yet.
var ErrNoReading = errors.New("no reading for station")

// Storage is the latest-reading cache
type Storage struct {
	mu     sync.RWMutex
	latest map[string]types.Reading
}

func New() *Storage {
	return &Storage{
		latest: make(map[string]types.Reading),
	}
}

// StartStorageEngine starts consuming readings
func (m *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	log.Info("starting in-memory storage engine...")
	readingChan := make(chan types.Reading, 10)
	wg.Add(1)
	go storage.ProcessReadings(ctx, wg, readingChan, m.StoreReading, "memory")
	return readingChan
}

// StoreReading replaces the station's latest reading unless r is older.
func (m *Storage) StoreReading(_ context.Context, r types.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.latest[r.StationName]; ok && r.Timestamp.Before(prev.Timestamp) {
		return nil
	}
	m.latest[r.StationName] = r
	return nil
}

// Latest returns the newest reading from station.
func (m *Storage) Latest(_ context.Context, station string) (types.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.latest[station]
	if !ok {
		return types.Reading{}, ErrNoReading
	}
	return r, nil
}

// Stations lists the stations that have reported, sorted by name.
func (m *Storage) Stations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.latest))
	for name := range m.latest {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Storage) CheckHealth(context.Context) *storage.Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return storage.CreateHealthData(storage.StatusHealthy, fmt.Sprintf("holding latest readings for %d stations", len(m.latest)), nil)
}
