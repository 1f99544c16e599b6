package davis

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/chrissnell/weatherlink/internal/emulator"
	"github.com/chrissnell/weatherlink/pkg/crc16"
)

// startConsole serves an emulated console on a loopback port for the life of
// the test and returns a transport pointed at it.
func startConsole(t *testing.T, cfg emulator.Config) (*emulator.Console, *IPTransport) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	if cfg.Sample == nil {
		cfg.Sample = emulator.FixedSample
	}
	console := emulator.New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		console.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	port := listener.Addr().(*net.TCPAddr).Port
	return console, NewIPTransport("127.0.0.1", port, 5*time.Second, nil)
}

func TestReadConfigSetting(t *testing.T) {
	console, transport := startConsole(t, emulator.Config{})
	console.SetEEPROM(0x10, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	reader := NewConfigReader(connected(t, transport))
	defer reader.Disconnect()

	got, err := reader.ReadConfigSetting(0x10, 4, ReadSettingOptions{})
	if err != nil {
		t.Fatalf("ReadConfigSetting: %v", err)
	}
	if !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("ReadConfigSetting = % x", got)
	}

	withCRC, err := reader.ReadConfigSetting(0x10, 4, ReadSettingOptions{IncludeCRC: true})
	if err != nil {
		t.Fatalf("ReadConfigSetting with CRC: %v", err)
	}
	if len(withCRC) != 6 || !crc16.Valid(withCRC) {
		t.Errorf("ReadConfigSetting with CRC = % x", withCRC)
	}

	console.SetCorruptCRC(true)
	_, err = reader.ReadConfigSetting(0x10, 4, ReadSettingOptions{})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("corrupt response: err = %v, want ErrDataIntegrity", err)
	}
	var crcErr *CRCError
	if !errors.As(err, &crcErr) || len(crcErr.Data) != 6 || crcErr.CRC == 0 {
		t.Errorf("corrupt response: err = %#v", err)
	}

	// the conversation stays in step after a bad checksum
	got, err = reader.ReadConfigSetting(0x10, 4, ReadSettingOptions{SkipCRC: true})
	if err != nil {
		t.Fatalf("ReadConfigSetting skipping CRC: %v", err)
	}
	if !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("ReadConfigSetting skipping CRC = % x", got)
	}
}

func TestReadConfigSettingRejected(t *testing.T) {
	_, transport := startConsole(t, emulator.Config{})

	reader := NewConfigReader(connected(t, transport))
	defer reader.Disconnect()

	_, err := reader.ReadConfigSetting(emulator.EEPROMSize-1, 4, ReadSettingOptions{})
	if !errors.Is(err, ErrNotAcknowledged) {
		t.Errorf("out of range read: err = %v, want ErrNotAcknowledged", err)
	}
}

func TestReadRainCollectorType(t *testing.T) {
	tests := []struct {
		name      string
		setupBits byte
		want      RainCollectorType
		label     string
	}{
		{name: "0.1 mm", setupBits: 0b10101110, want: RainCollector01MM, label: "0.1 mm"},
		{name: "0.2 mm", setupBits: 0b10011110, want: RainCollector02MM, label: "0.2 mm"},
		{name: "0.01 in", setupBits: 0b10001110, want: RainCollector001Inch, label: "0.01 in"},
		{name: "both bits set", setupBits: 0b00110000, want: RainCollectorType(0x30), label: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console, transport := startConsole(t, emulator.Config{})
			console.SetEEPROM(SetupBitsAddress, []byte{tt.setupBits})

			reader := NewConfigReader(connected(t, transport))
			defer reader.Disconnect()

			got, err := reader.ReadRainCollectorType()
			if err != nil {
				t.Fatalf("ReadRainCollectorType: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadRainCollectorType = %#x, want %#x", byte(got), byte(tt.want))
			}
			if got.String() != tt.label {
				t.Errorf("String() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestReadSetupBitFromScript(t *testing.T) {
	response := append([]byte{ACK}, crc16.Append([]byte{0b10011110})...)
	transport := newScriptedTransport(response)

	reader := NewConfigReader(connected(t, transport))
	bits, err := reader.ReadSetupBit(0xFF)
	if err != nil {
		t.Fatalf("ReadSetupBit: %v", err)
	}
	if bits != 0b10011110 {
		t.Errorf("ReadSetupBit = %08b", bits)
	}
	if len(transport.sent) != 1 || string(transport.sent[0]) != "EEBRD 2B 01\n" {
		t.Errorf("sent %q, want EEBRD 2B 01", transport.sent)
	}
}

func TestWriteConfigSetting(t *testing.T) {
	reader := NewConfigReader(connected(t, newScriptedTransport()))
	if err := reader.WriteConfigSetting(SetupBitsAddress, []byte{0}); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("WriteConfigSetting = %v, want ErrNotImplemented", err)
	}
}
