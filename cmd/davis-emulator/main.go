package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/weatherlink/internal/emulator"
	"github.com/chrissnell/weatherlink/internal/log"
)

func main() {
	var (
		port     = flag.Int("port", 22222, "Port to listen on")
		interval = flag.Duration("interval", 2*time.Second, "Pause between LOOP packets")
		debug    = flag.Bool("debug", false, "Turn on debugging output")

		// Flaky hardware simulation flags
		flaky           = flag.Bool("flaky", false, "Enable flaky hardware simulation")
		dropByteRate    = flag.Float64("drop-rate", 0.05, "Probability of dropping bytes from packets (0.0-1.0)")
		corruptByteRate = flag.Float64("corrupt-rate", 0.05, "Probability of corrupting bytes in packets (0.0-1.0)")
		disconnectRate  = flag.Float64("disconnect-rate", 0.02, "Probability of disconnecting during transmission (0.0-1.0)")
		badCRCRate      = flag.Float64("bad-crc-rate", 0.03, "Probability of corrupting CRC (0.0-1.0)")
		noResponseRate  = flag.Float64("no-response-rate", 0.01, "Probability of not responding to commands (0.0-1.0)")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := emulator.Config{
		PacketInterval: *interval,
		Flaky: emulator.FlakyHardwareConfig{
			Enabled:         *flaky,
			DropByteRate:    *dropByteRate,
			CorruptByteRate: *corruptByteRate,
			BadCRCRate:      *badCRCRate,
			DisconnectRate:  *disconnectRate,
			NoResponseRate:  *noResponseRate,
		},
	}

	log.Infof("Starting Davis weather station emulator on port %d", *port)
	if *flaky {
		log.Infof("FLAKY HARDWARE MODE ENABLED: drop %.1f%%, corrupt %.1f%%, bad CRC %.1f%%, disconnect %.1f%%, no response %.1f%%",
			*dropByteRate*100, *corruptByteRate*100, *badCRCRate*100, *disconnectRate*100, *noResponseRate*100)
	}
	log.Infof("Connect weatherlink with: hostname: localhost, port: %d", *port)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console := emulator.New(cfg, log.GetSugaredLogger())
	if err := console.ListenAndServe(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		log.Errorf("emulator stopped: %v", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
