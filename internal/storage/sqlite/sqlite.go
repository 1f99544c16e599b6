// Package sqlite stores readings in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/storage"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/chrissnell/weatherlink/pkg/migrate"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNoReading is returned for a station with no stored readings.
var ErrNoReading = errors.New("no reading for station")

// Decimals are kept as TEXT so they come back exactly as stored. Times are
// UTC RFC 3339, which sorts lexically.
const (
	insertReadingSQL = `
INSERT INTO readings (
    id, station, station_type, time,
    temperature_outside, humidity_outside, barometric_pressure, wind_speed, wind_direction,
    rain_rate, rain_today, rain_storm, uv_index, evapotranspiration,
    record, derived
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectReadingSQL = `
SELECT id, station, station_type, time, rain_rate, rain_today, rain_storm, uv_index, evapotranspiration, record, derived
FROM readings`
)

const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Storage holds the SQLite connection
type Storage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New opens (creating if needed) the database at path and brings its schema
// up to date.
func New(path string, logger *zap.SugaredLogger) (*Storage, error) {
	logger = log.OrNop(logger)

	logger.Infof("opening SQLite database %s...", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes serialized
	db.SetMaxOpenConns(1)

	if err := NewMigrator(db, logger).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate SQLite database: %w", err)
	}

	return &Storage{db: db, logger: logger}, nil
}

// NewMigrator returns a migrator for the readings schema on db.
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return migrate.NewMigrator(db, migrate.NewFSProvider(sub, "schema_migrations", "sqlite"), logger)
}

// StartStorageEngine creates a goroutine loop to receive readings and store
// them in SQLite
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	s.logger.Info("starting SQLite storage engine...")
	readingChan := make(chan types.Reading, 10)
	wg.Add(1)
	go storage.ProcessReadings(ctx, wg, readingChan, s.StoreReading, "sqlite")
	return readingChan
}

// StoreReading inserts one reading
func (s *Storage) StoreReading(ctx context.Context, r types.Reading) error {
	record, err := json.Marshal(r.Record)
	if err != nil {
		return fmt.Errorf("could not encode record: %w", err)
	}
	derived, err := json.Marshal(r.Derived)
	if err != nil {
		return fmt.Errorf("could not encode derived values: %w", err)
	}

	_, err = s.db.ExecContext(ctx, insertReadingSQL,
		r.ID.String(), r.StationName, r.StationType, r.Timestamp.UTC().Format(timeFormat),
		r.Record.TemperatureOutside, r.Record.HumidityOutside, r.Record.BarometricPressure,
		r.Record.WindSpeed, r.Record.WindSpeedDirection,
		r.RainRate, r.DayRain, r.StormRain, r.UV, r.DayET,
		string(record), string(derived),
	)
	if err != nil {
		return fmt.Errorf("could not store reading: %w", err)
	}
	return nil
}

// Latest returns the newest reading stored for station.
func (s *Storage) Latest(ctx context.Context, station string) (types.Reading, error) {
	row := s.db.QueryRowContext(ctx, selectReadingSQL+" WHERE station = ? ORDER BY time DESC LIMIT 1", station)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Reading{}, ErrNoReading
	}
	return r, err
}

// Readings returns the readings from station in [from, to), oldest first.
func (s *Storage) Readings(ctx context.Context, station string, from, to time.Time) ([]types.Reading, error) {
	rows, err := s.db.QueryContext(ctx, selectReadingSQL+" WHERE station = ? AND time >= ? AND time < ? ORDER BY time",
		station, from.UTC().Format(timeFormat), to.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("could not query readings: %w", err)
	}
	defer rows.Close()

	var readings []types.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner) (types.Reading, error) {
	var (
		r               types.Reading
		id, ts          string
		record, derived string
	)
	err := row.Scan(&id, &r.StationName, &r.StationType, &ts,
		&r.RainRate, &r.DayRain, &r.StormRain, &r.UV, &r.DayET,
		&record, &derived)
	if err != nil {
		return types.Reading{}, err
	}

	if r.ID, err = uuid.Parse(id); err != nil {
		return types.Reading{}, fmt.Errorf("bad reading id %q: %w", id, err)
	}
	if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return types.Reading{}, fmt.Errorf("bad reading time %q: %w", ts, err)
	}
	if err := json.Unmarshal([]byte(record), &r.Record); err != nil {
		return types.Reading{}, fmt.Errorf("bad stored record: %w", err)
	}
	if err := json.Unmarshal([]byte(derived), &r.Derived); err != nil {
		return types.Reading{}, fmt.Errorf("bad stored derived values: %w", err)
	}
	return r, nil
}

func (s *Storage) CheckHealth(ctx context.Context) *storage.Health {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&n); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "SQLite query failed", err)
	}
	return storage.CreateHealthData(storage.StatusHealthy, fmt.Sprintf("%d readings stored", n), nil)
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}
