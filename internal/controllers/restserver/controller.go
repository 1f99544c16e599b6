// Package restserver serves station readings and the derived-metrics engine
// over HTTP.
package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/storage"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/chrissnell/weatherlink/pkg/config"
	"github.com/chrissnell/weatherlink/pkg/responseformat"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ReadingSource supplies the latest reading for a station.
type ReadingSource interface {
	Latest(ctx context.Context, station string) (types.Reading, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	Server    http.Server
	Devices   []config.DeviceData
	readings  ReadingSource
	health    *storage.HealthManager
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, devices []config.DeviceData, readings ReadingSource, health *storage.HealthManager, logger *zap.SugaredLogger) (*Controller, error) {
	logger = log.OrNop(logger)

	if readings == nil {
		return nil, errors.New("REST server needs a reading source")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Infof("rest.port not provided; defaulting to %d", config.DefaultHTTPPort)
		rc.Port = config.DefaultHTTPPort
	}

	if health == nil {
		health = storage.NewHealthManager()
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		Devices:   devices,
		readings:  readings,
		health:    health,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.Router()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Router returns the HTTP routes
func (c *Controller) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/stations", c.ListStations).Methods(http.MethodGet)
	router.HandleFunc("/stations/{name}/latest", c.GetStationLatest).Methods(http.MethodGet)
	router.HandleFunc("/derive", c.Derive).Methods(http.MethodPost)
	router.HandleFunc("/wind-average", c.WindAverage).Methods(http.MethodPost)
	router.HandleFunc("/health", c.GetHealth).Methods(http.MethodGet)

	return router
}

// stationExists checks that the station name exists in config
func (c *Controller) stationExists(name string) bool {
	for _, station := range c.Devices {
		if station.Name == name {
			return true
		}
	}
	return false
}
