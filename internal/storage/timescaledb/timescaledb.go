// Package timescaledb stores readings in a TimescaleDB hypertable.
package timescaledb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/internal/database"
	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/storage"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// readingRow is one reading as stored. The primary key includes time, as
// hypertables require.
type readingRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Time        time.Time `gorm:"primaryKey;not null"`
	StationName string    `gorm:"index;not null"`
	StationType string

	TemperatureOutside decimal.NullDecimal `gorm:"type:numeric"`
	TemperatureInside  decimal.NullDecimal `gorm:"type:numeric"`
	HumidityOutside    decimal.NullDecimal `gorm:"type:numeric"`
	HumidityInside     decimal.NullDecimal `gorm:"type:numeric"`
	BarometricPressure decimal.NullDecimal `gorm:"type:numeric"`
	WindSpeed          decimal.NullDecimal `gorm:"type:numeric"`
	WindDirection      string
	WindSpeedHigh      decimal.NullDecimal `gorm:"type:numeric"`
	SolarRadiation     decimal.NullDecimal `gorm:"type:numeric"`
	RainRate           decimal.NullDecimal `gorm:"type:numeric"`
	RainToday          decimal.NullDecimal `gorm:"type:numeric"`
	RainStorm          decimal.NullDecimal `gorm:"type:numeric"`
	UVIndex            decimal.NullDecimal `gorm:"type:numeric"`
	Evapotranspiration decimal.NullDecimal `gorm:"type:numeric"`

	Derived string `gorm:"type:jsonb"`
}

// TableName implements gorm's Tabler
func (readingRow) TableName() string {
	return "weatherlink_readings"
}

func newReadingRow(r types.Reading) (readingRow, error) {
	derived, err := json.Marshal(r.Derived)
	if err != nil {
		return readingRow{}, fmt.Errorf("could not encode derived values: %w", err)
	}

	rec := r.Record
	return readingRow{
		ID:                 r.ID,
		Time:               r.Timestamp,
		StationName:        r.StationName,
		StationType:        r.StationType,
		TemperatureOutside: rec.TemperatureOutside,
		TemperatureInside:  rec.TemperatureInside,
		HumidityOutside:    rec.HumidityOutside,
		HumidityInside:     rec.HumidityInside,
		BarometricPressure: rec.BarometricPressure,
		WindSpeed:          rec.WindSpeed,
		WindDirection:      rec.WindSpeedDirection,
		WindSpeedHigh:      rec.WindSpeedHigh,
		SolarRadiation:     rec.SolarRadiation,
		RainRate:           r.RainRate,
		RainToday:          r.DayRain,
		RainStorm:          r.StormRain,
		UVIndex:            r.UV,
		Evapotranspiration: r.DayET,
		Derived:            string(derived),
	}, nil
}

// StartStorageEngine creates a goroutine loop to receive readings and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	log.Info("starting TimescaleDB storage engine...")
	readingChan := make(chan types.Reading, 10)
	wg.Add(1)
	go storage.ProcessReadings(ctx, wg, readingChan, t.StoreReading, "timescaledb")
	return readingChan
}

// StoreReading stores a reading value in TimescaleDB
func (t *Storage) StoreReading(ctx context.Context, r types.Reading) error {
	row, err := newReadingRow(r)
	if err != nil {
		return err
	}
	if err := t.TimescaleDBConn.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("could not store reading: %w", err)
	}
	return nil
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}
	t := &Storage{TimescaleDBConn: db}

	log.Info("creating TimescaleDB extension...")
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		return nil, fmt.Errorf("could not create TimescaleDB extension: %w", err)
	}

	log.Info("creating database table...")
	if err := db.WithContext(ctx).AutoMigrate(&readingRow{}); err != nil {
		return nil, fmt.Errorf("could not create table: %w", err)
	}

	log.Info("creating hypertable...")
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		return nil, fmt.Errorf("could not create hypertable: %w", err)
	}

	log.Info("creating 1h view...")
	if err := db.WithContext(ctx).Exec(createHourlyViewSQL).Error; err != nil {
		log.Warnf("could not create 1h view, hourly rollups will be unavailable: %v", err)
	}

	return t, nil
}

// CheckHealth pings the database
func (t *Storage) CheckHealth(ctx context.Context) *storage.Health {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Failed to get underlying database connection", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Database ping failed", err)
	}

	var result int
	if err := t.TimescaleDBConn.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Database query failed", err)
	}
	return storage.CreateHealthData(storage.StatusHealthy, "TimescaleDB connection active", nil)
}

// Close closes the connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
