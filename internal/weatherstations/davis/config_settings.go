package davis

import (
	"fmt"
	"io"

	"github.com/chrissnell/weatherlink/pkg/crc16"
)

// EEPROM locations.
const (
	SetupBitsAddress = 0x2B
	SetupBitsLength  = 0x01
)

// ReadSettingOptions adjusts ReadConfigSetting. The zero value verifies the
// checksum and strips it from the result.
type ReadSettingOptions struct {
	// SkipCRC accepts the response without verifying its checksum.
	SkipCRC bool
	// IncludeCRC keeps the two trailing checksum bytes in the result.
	IncludeCRC bool
}

// ConfigReader reads settings from the console EEPROM.
type ConfigReader struct {
	*Communicator
}

func NewConfigReader(c *Communicator) *ConfigReader {
	return &ConfigReader{Communicator: c}
}

// ReadConfigSetting reads length bytes starting at address. The console
// answers with the bytes followed by their checksum.
func (r *ConfigReader) ReadConfigSetting(address, length int, opts ReadSettingOptions) ([]byte, error) {
	instruction := fmt.Sprintf("EEBRD %02X %02X\n", address, length)
	if err := r.SendInstruction([]byte(instruction), true); err != nil {
		return nil, fmt.Errorf("error sending EEBRD: %w", err)
	}

	data := make([]byte, length+2)
	err := r.WithHandle(func(h io.Reader) error {
		_, err := io.ReadFull(h, data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error reading setting %02X: %w", address, err)
	}

	if !opts.SkipCRC {
		if crc := crc16.Crc16(data); crc != 0 {
			return nil, &CRCError{Data: data, CRC: crc}
		}
	}

	if opts.IncludeCRC {
		return data, nil
	}
	return data[:length], nil
}

// WriteConfigSetting is not supported.
func (r *ConfigReader) WriteConfigSetting(address int, value []byte) error {
	return fmt.Errorf("writing setting %02X: %w", address, ErrNotImplemented)
}

// ReadSetupBit returns the setup bits byte masked with mask.
func (r *ConfigReader) ReadSetupBit(mask byte) (byte, error) {
	data, err := r.ReadConfigSetting(SetupBitsAddress, SetupBitsLength, ReadSettingOptions{})
	if err != nil {
		return 0, err
	}
	return data[0] & mask, nil
}

// ReadRainCollectorType returns the rain collector configured on the console.
func (r *ConfigReader) ReadRainCollectorType() (RainCollectorType, error) {
	bits, err := r.ReadSetupBit(RainCollectorMask)
	return RainCollectorType(bits), err
}
