// Package emulator serves a Davis Vantage console over TCP. It speaks the
// subset of the serial protocol this module uses: wake-up, TEST, EEBRD and
// LPS 2, plus optional simulated hardware faults.
package emulator

import (
	"bufio"
	"context"
	"errors"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrissnell/weatherlink/internal/log"
	"github.com/chrissnell/weatherlink/pkg/crc16"
	"go.uber.org/zap"
)

const (
	ack        = 0x06
	nak        = 0x15
	badCommand = '!'

	// EEPROMSize is the size of the console's configuration memory.
	EEPROMSize = 4096

	setupBitsAddress = 0x2B
	maxLoopPackets   = 2048
)

// FlakyHardwareConfig holds configuration for simulating hardware issues
type FlakyHardwareConfig struct {
	Enabled         bool    // Enable flaky hardware simulation
	DropByteRate    float64 // Probability of dropping a byte from a packet (0.0-1.0)
	CorruptByteRate float64 // Probability of corrupting a byte in a packet (0.0-1.0)
	BadCRCRate      float64 // Probability of corrupting a packet's CRC (0.0-1.0)
	DisconnectRate  float64 // Probability of hanging up mid-transmission (0.0-1.0)
	NoResponseRate  float64 // Probability of ignoring a command (0.0-1.0)
}

// Config configures a Console.
type Config struct {
	// PacketInterval is the pause between LOOP packets. Real consoles send
	// one every two seconds.
	PacketInterval time.Duration
	// Sample supplies each LOOP packet's reading. Nil simulates the weather.
	Sample func() Sample
	Flaky  FlakyHardwareConfig
}

// Console is an emulated Vantage console.
type Console struct {
	config Config
	logger *zap.SugaredLogger

	mu     sync.Mutex
	eeprom [EEPROMSize]byte
	rng    *rand.Rand

	corruptCRC atomic.Bool
}

func New(config Config, logger *zap.SugaredLogger) *Console {
	if config.Sample == nil {
		config.Sample = newSimulator().Sample
	}

	c := &Console{
		config: config,
		logger: log.OrNop(logger),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	// setup bits: 0.01 in rain collector
	c.eeprom[setupBitsAddress] = 0b00000110
	return c
}

// SetEEPROM overwrites console memory starting at address.
func (c *Console) SetEEPROM(address int, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.eeprom[address:], data)
}

// SetCorruptCRC makes every following EEBRD and LOOP response carry a bad
// checksum until it is switched off again.
func (c *Console) SetCorruptCRC(corrupt bool) {
	c.corruptCRC.Store(corrupt)
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (c *Console) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return c.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, handling
// each on its own goroutine. The listener is closed on return.
func (c *Console) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	c.logger.Infof("Davis emulator listening on %v", listener.Addr())
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			c.logger.Errorf("failed to accept connection: %v", err)
			continue
		}
		go c.HandleConnection(conn)
	}
}

// HandleConnection answers commands on conn until the peer hangs up.
func (c *Console) HandleConnection(conn net.Conn) {
	defer conn.Close()

	c.logger.Infof("new Davis station connection from %s", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		// a stray \r is how clients interrupt LPS; it is not part of the
		// next command
		command := strings.Trim(scanner.Text(), "\r")
		c.logger.Debugf("received command: %q", command)

		if c.chance(c.config.Flaky.NoResponseRate) {
			c.logger.Info("FLAKY: ignoring command")
			continue
		}

		var err error
		switch {
		case command == "":
			_, err = conn.Write([]byte("\n\r"))
		case command == "TEST":
			_, err = conn.Write([]byte("\n\rTEST\n\r"))
		case strings.HasPrefix(command, "EEBRD"):
			err = c.eebrd(conn, strings.Fields(command)[1:])
		case strings.HasPrefix(command, "LPS"):
			err = c.lps(conn, strings.Fields(command)[1:])
		default:
			c.logger.Infof("unknown command: %q", command)
			_, err = conn.Write([]byte{badCommand})
		}

		if err != nil {
			c.logger.Infof("dropping connection from %s: %v", conn.RemoteAddr(), err)
			return
		}
	}

	c.logger.Infof("Davis station connection from %s closed", conn.RemoteAddr())
}

// eebrd answers "EEBRD <hex address> <hex length>".
func (c *Console) eebrd(conn net.Conn, args []string) error {
	if len(args) != 2 {
		_, err := conn.Write([]byte{nak})
		return err
	}
	address, aerr := strconv.ParseUint(args[0], 16, 16)
	length, lerr := strconv.ParseUint(args[1], 16, 16)
	if aerr != nil || lerr != nil || length == 0 || address+length > EEPROMSize {
		_, err := conn.Write([]byte{nak})
		return err
	}

	c.mu.Lock()
	data := append([]byte{}, c.eeprom[address:address+length]...)
	c.mu.Unlock()

	response := crc16.Append(data)
	if c.corruptCRC.Load() {
		response[len(response)-1] ^= 0xFF
	}

	_, err := conn.Write(append([]byte{ack}, response...))
	return err
}

// lps answers "LPS 2 <n>" with n LOOP2 packets.
func (c *Console) lps(conn net.Conn, args []string) error {
	if len(args) != 2 || args[0] != "2" {
		_, err := conn.Write([]byte{nak})
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 || n > maxLoopPackets {
		_, err := conn.Write([]byte{nak})
		return err
	}

	if _, err := conn.Write([]byte{ack}); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if i > 0 && c.config.PacketInterval > 0 {
			time.Sleep(c.config.PacketInterval)
		}
		if c.chance(c.config.Flaky.DisconnectRate) {
			return errors.New("FLAKY: disconnecting mid-transmission")
		}

		packet := c.config.Sample().LoopPacket()
		if c.corruptCRC.Load() {
			packet[len(packet)-1] ^= 0xFF
		}
		packet = c.simulateHardwareIssues(packet)

		if _, err := conn.Write(packet); err != nil {
			return err
		}
		c.logger.Debugf("sent LOOP2 packet %d/%d", i+1, n)
	}
	return nil
}

func (c *Console) chance(rate float64) bool {
	if !c.config.Flaky.Enabled || rate <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < rate
}

func (c *Console) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

// simulateHardwareIssues damages a packet the way a noisy serial line does.
// The "LOO" header is left intact.
func (c *Console) simulateHardwareIssues(packet []byte) []byte {
	if !c.config.Flaky.Enabled {
		return packet
	}

	if c.chance(c.config.Flaky.DropByteRate) {
		pos := 3 + c.intn(len(packet)-3)
		packet = append(packet[:pos], packet[pos+1:]...)
		c.logger.Infof("FLAKY: dropped byte at position %d", pos)
	}
	if c.chance(c.config.Flaky.CorruptByteRate) {
		pos := 3 + c.intn(len(packet)-3)
		packet[pos] = byte(c.intn(256))
		c.logger.Infof("FLAKY: corrupted byte at position %d", pos)
	}
	if c.chance(c.config.Flaky.BadCRCRate) && len(packet) == 99 {
		packet[97] ^= 0xFF
		c.logger.Info("FLAKY: corrupted CRC")
	}
	return packet
}
