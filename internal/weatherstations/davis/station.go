package davis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/internal/types"
	"github.com/chrissnell/weatherlink/pkg/config"
	"go.uber.org/zap"
)

const (
	// StationType identifies readings from Davis consoles.
	StationType = "davis"

	maxWakeAttempts = 3
)

// Station polls a Davis console continuously and publishes a Reading for
// every LOOP2 packet. Connection failures are retried until the context is
// cancelled.
type Station struct {
	ctx                context.Context
	wg                 *sync.WaitGroup
	config             config.DeviceData
	transport          Transport
	comm               *Communicator
	configReader       *ConfigReader
	poller             *Poller
	ReadingDistributor chan<- types.Reading
	logger             *zap.SugaredLogger

	rainCollector RainCollectorType
	retryDelay    time.Duration
	wakeDelay     time.Duration
}

// NewStation builds a station for a device reached over its serial port,
// or over TCP when no serial device is configured.
func NewStation(ctx context.Context, wg *sync.WaitGroup, cfg config.DeviceData, distributor chan<- types.Reading, logger *zap.SugaredLogger) (*Station, error) {
	logger = log.OrNop(logger)

	var transport Transport
	switch {
	case cfg.SerialDevice != "":
		logger.Infof("configuring Davis station [%s] via serial port %s", cfg.Name, cfg.SerialDevice)
		transport = NewSerialTransport(cfg.SerialDevice, cfg.Baud, logger)
	case cfg.Hostname != "":
		logger.Infof("configuring Davis station [%s] via TCP/IP", cfg.Name)
		transport = NewIPTransport(cfg.Hostname, cfg.Port, cfg.Timeout, logger)
	default:
		return nil, fmt.Errorf("davis station [%s] must define either a serial device or hostname", cfg.Name)
	}

	return newStation(ctx, wg, cfg, transport, distributor, logger), nil
}

func newStation(ctx context.Context, wg *sync.WaitGroup, cfg config.DeviceData, transport Transport, distributor chan<- types.Reading, logger *zap.SugaredLogger) *Station {
	if cfg.LoopPackets == 0 {
		cfg.LoopPackets = config.DefaultLoopPackets
	}

	comm := NewCommunicator(transport, logger)
	return &Station{
		ctx:                ctx,
		wg:                 wg,
		config:             cfg,
		transport:          transport,
		comm:               comm,
		configReader:       NewConfigReader(comm),
		poller:             NewPoller(comm, logger),
		ReadingDistributor: distributor,
		logger:             log.OrNop(logger),
		retryDelay:         5 * time.Second,
		wakeDelay:          1200 * time.Millisecond,
	}
}

func (s *Station) StationName() string {
	return s.config.Name
}

// StartWeatherStation launches the station-polling goroutine
func (s *Station) StartWeatherStation() error {
	s.logger.Infof("starting Davis weather station [%v]...", s.config.Name)

	s.wg.Add(1)
	go s.run()

	return nil
}

func (s *Station) run() {
	defer s.wg.Done()

	for {
		err := s.session()
		if s.ctx.Err() != nil {
			s.logger.Infof("cancellation request received, stopping Davis station [%s]", s.config.Name)
			return
		}
		if err != nil {
			s.logger.Errorf("Davis station [%s]: %v", s.config.Name, err)
		}

		s.logger.Infof("reconnecting to Davis station [%s] in %v", s.config.Name, s.retryDelay)
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
	}
}

// session runs one connection: wake, learn the rain collector, then poll
// until something fails or the context ends.
func (s *Station) session() error {
	return s.comm.WithConnection(func() error {
		// closing the link is the only way to interrupt a blocked read
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-s.ctx.Done():
				s.transport.Disconnect()
			case <-done:
			}
		}()

		if err := s.WakeStation(); err != nil {
			return err
		}

		rain, err := s.configReader.ReadRainCollectorType()
		if err != nil {
			return fmt.Errorf("error reading rain collector type: %w", err)
		}
		if !rain.Known() {
			s.logger.Warnf("Davis station [%s] reports an unknown rain collector (setup bits %#x); rain amounts will be null", s.config.Name, byte(rain))
		}
		s.rainCollector = rain

		for s.ctx.Err() == nil {
			if err := s.poller.Poll(s.ctx, s.config.LoopPackets, s.publish); err != nil {
				return err
			}
		}
		return nil
	})
}

// WakeStation wakes the console from its power-saving sleep. It sends a
// line feed and expects "\n\r" back, trying up to three times.
func (s *Station) WakeStation() error {
	s.logger.Debug("waking Davis station...")

	for attempt := 1; attempt <= maxWakeAttempts; attempt++ {
		if err := s.comm.SendInstruction([]byte("\n"), false); err != nil {
			return fmt.Errorf("error sending wake command: %w", err)
		}

		response := make([]byte, 2)
		err := s.comm.WithHandle(func(h io.Reader) error {
			_, err := io.ReadFull(h, response)
			return err
		})
		if err != nil {
			return fmt.Errorf("error reading wake response: %w", err)
		}
		if bytes.Equal(response, []byte("\n\r")) {
			s.logger.Debug("Davis station is awake")
			return nil
		}

		s.logger.Debugf("unexpected wake response %q (attempt %d/%d)", response, attempt, maxWakeAttempts)
		time.Sleep(s.wakeDelay)
	}

	return fmt.Errorf("%w: console did not wake after %d attempts", ErrProtocol, maxWakeAttempts)
}

func (s *Station) publish(lr LoopRecord) error {
	reading := types.NewReading(s.config.Name, StationType, lr.Record())
	reading.RainRate = s.rainCollector.Inches(lr.RainRateClicks)
	reading.DayRain = s.rainCollector.Inches(lr.RainClicksToday)
	reading.StormRain = s.rainCollector.Inches(lr.RainClicksThisStorm)
	reading.UV = lr.UVIndex
	reading.DayET = lr.ET

	select {
	case s.ReadingDistributor <- reading:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// ReadConfigSetting connects, wakes the console and reads one EEPROM
// setting. It is meant for one-off queries while the station is not
// polling.
func (s *Station) ReadConfigSetting(address, length int, opts ReadSettingOptions) ([]byte, error) {
	var data []byte
	err := s.comm.WithConnection(func() error {
		if err := s.WakeStation(); err != nil {
			return err
		}
		var err error
		data, err = s.configReader.ReadConfigSetting(address, length, opts)
		return err
	})
	return data, err
}

// RainCollector connects, wakes the console and reports its rain collector.
func (s *Station) RainCollector() (RainCollectorType, error) {
	data, err := s.ReadConfigSetting(SetupBitsAddress, SetupBitsLength, ReadSettingOptions{})
	if err != nil {
		return 0, err
	}
	return RainCollectorType(data[0] & RainCollectorMask), nil
}
