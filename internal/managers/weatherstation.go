package managers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/chrissnell/weatherlink/internal/weatherstations"
	"github.com/chrissnell/weatherlink/internal/weatherstations/davis"
	"github.com/chrissnell/weatherlink/pkg/config"
	"go.uber.org/zap"
)

// WeatherStationManager starts and tracks the configured weather stations
type WeatherStationManager interface {
	StartWeatherStations() error
	GetStation(deviceName string) weatherstations.WeatherStation
	Stations() []string
}

// NewWeatherStationManager creates a WeatherStationManager object, populated with all configured weather stations
func NewWeatherStationManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan<- types.Reading, logger *zap.SugaredLogger) (WeatherStationManager, error) {
	devices, err := configProvider.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	logger = log.OrNop(logger)
	wsm := &weatherStationManager{
		logger:   logger,
		stations: make(map[string]weatherstations.WeatherStation),
	}

	for _, deviceConfig := range devices {
		station, err := createStationFromConfig(ctx, wg, deviceConfig, distributor, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating weather station [%s]: %w", deviceConfig.Name, err)
		}
		wsm.stations[deviceConfig.Name] = station
	}

	return wsm, nil
}

type weatherStationManager struct {
	logger   *zap.SugaredLogger
	stations map[string]weatherstations.WeatherStation
	mu       sync.RWMutex
}

func (w *weatherStationManager) StartWeatherStations() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for name, station := range w.stations {
		w.logger.Infof("Starting weather station [%v]...", name)
		if err := station.StartWeatherStation(); err != nil {
			return fmt.Errorf("failed to start weather station [%s]: %w", name, err)
		}
	}
	return nil
}

// GetStation retrieves a weather station by name.
// Returns nil if the station does not exist.
func (w *weatherStationManager) GetStation(deviceName string) weatherstations.WeatherStation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stations[deviceName]
}

// Stations lists the managed station names, sorted
func (w *weatherStationManager) Stations() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.stations))
	for name := range w.stations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// createStationFromConfig creates the appropriate weather station based on device type
func createStationFromConfig(ctx context.Context, wg *sync.WaitGroup, deviceConfig config.DeviceData, distributor chan<- types.Reading, logger *zap.SugaredLogger) (weatherstations.WeatherStation, error) {
	switch deviceConfig.Type {
	case config.DeviceTypeDavis, "":
		logger.Infof("Initializing Davis weather station [%v]", deviceConfig.Name)
		return davis.NewStation(ctx, wg, deviceConfig, distributor, logger)
	default:
		return nil, fmt.Errorf("unknown weather station type: %s", deviceConfig.Type)
	}
}
