package managers

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/storage"
	"github.com/chrissnell/weatherlink/internal/storage/memory"
	"github.com/chrissnell/weatherlink/internal/storage/sqlite"
	"github.com/chrissnell/weatherlink/internal/storage/timescaledb"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/chrissnell/weatherlink/pkg/config"
	"go.uber.org/zap"
)

const healthCheckInterval = 60 * time.Second

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines            []StorageEngine
	ReadingDistributor chan types.Reading
	// Latest is the in-memory engine every manager carries; the REST
	// server answers from it.
	Latest *memory.Storage
	Health *storage.HealthManager

	logger *zap.SugaredLogger
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing readings to the engine
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
	C      chan<- types.Reading
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c config.StorageData, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := &StorageManager{
		ReadingDistributor: make(chan types.Reading, 20),
		Latest:             memory.New(),
		Health:             storage.NewHealthManager(),
		logger:             log.OrNop(logger),
	}

	s.addEngine(ctx, wg, "memory", s.Latest)

	if c.SQLite != nil {
		engine, err := sqlite.New(c.SQLite.Path, s.logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
		s.addEngine(ctx, wg, "sqlite", engine)
	}

	if c.TimescaleDB != nil {
		engine, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.addEngine(ctx, wg, "timescaledb", engine)
	}

	// Start our reading distributor to distribute received readings to storage
	// backends
	wg.Add(1)
	go s.startReadingDistributor(ctx, wg)

	return s, nil
}

// addEngine starts engine and, when it can report its health, a monitor for it
func (s *StorageManager) addEngine(ctx context.Context, wg *sync.WaitGroup, name string, engine storage.StorageEngineInterface) {
	s.Engines = append(s.Engines, StorageEngine{
		Name:   name,
		Engine: engine,
		C:      engine.StartStorageEngine(ctx, wg),
	})

	if checker, ok := engine.(storage.HealthChecker); ok {
		storage.StartHealthMonitor(ctx, wg, s.Health, name, checker, healthCheckInterval)
	}
}

// GetReadingDistributor returns the reading distributor channel
func (s *StorageManager) GetReadingDistributor() chan<- types.Reading {
	return s.ReadingDistributor
}

// startReadingDistributor receives readings from stations and fans them out
// to the storage backends
func (s *StorageManager) startReadingDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case r := <-s.ReadingDistributor:
			for _, e := range s.Engines {
				select {
				case e.C <- r:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the engines that hold connections. Call it after the
// engines' goroutines have stopped.
func (s *StorageManager) Close() {
	for _, e := range s.Engines {
		closer, ok := e.Engine.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			s.logger.Errorf("error closing %s storage: %v", e.Name, err)
		}
	}
}
