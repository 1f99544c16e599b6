package davis

import (
	"io"

	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

// DefaultBaud is the console's factory serial speed.
const DefaultBaud = 19200

// SerialTransport reaches a console through a serial or USB-serial port.
type SerialTransport struct {
	*streamTransport
}

func NewSerialTransport(device string, baud int, logger *zap.SugaredLogger) *SerialTransport {
	if baud == 0 {
		baud = DefaultBaud
	}

	dial := func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	}

	return &SerialTransport{newStreamTransport(device, dial, logger)}
}
