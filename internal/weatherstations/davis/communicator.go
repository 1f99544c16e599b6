package davis

import (
	"errors"
	"fmt"
	"io"

	"github.com/chrissnell/weatherlink/internal/log"
	"go.uber.org/zap"
)

const (
	// ACK - Acknowledge packet
	ACK byte = 0x06
	// NAK - Not acknowledged, the console wants the instruction resent
	NAK byte = 0x15
	// BadCommand is sent for an instruction the console did not understand
	BadCommand byte = '!'
)

// Communicator runs the request/acknowledge protocol over a Transport and
// tracks whether the link is connected. A Communicator carries one exchange
// at a time; callers sharing one across goroutines must serialize access.
type Communicator struct {
	transport Transport
	logger    *zap.SugaredLogger
	connected bool
}

func NewCommunicator(transport Transport, logger *zap.SugaredLogger) *Communicator {
	return &Communicator{
		transport: transport,
		logger:    log.OrNop(logger),
	}
}

// Connected reports whether Connect has succeeded and Disconnect has not
// been called since.
func (c *Communicator) Connected() bool {
	return c.connected
}

// Connect opens the transport. If that fails the transport is torn down
// before the original error is returned.
func (c *Communicator) Connect() error {
	if c.connected {
		return ErrAlreadyConnected
	}

	if err := c.transport.Connect(); err != nil {
		if cerr := c.transport.Disconnect(); cerr != nil {
			c.logger.Debugf("cleanup after failed connect: %v", cerr)
		}
		return err
	}

	c.connected = true
	return nil
}

// Disconnect closes the transport. The communicator is disconnected
// afterwards even when closing fails.
func (c *Communicator) Disconnect() error {
	if !c.connected {
		return ErrNotConnected
	}
	defer func() { c.connected = false }()

	if err := c.transport.Disconnect(); err != nil {
		return fmt.Errorf("error disconnecting: %w", err)
	}
	return nil
}

// WithConnection connects, runs fn and disconnects however fn exits. A
// disconnect failure is returned only when fn succeeded.
func (c *Communicator) WithConnection(fn func() error) (err error) {
	if err := c.Connect(); err != nil {
		return err
	}
	defer func() {
		if derr := c.Disconnect(); derr != nil && err == nil {
			err = derr
		}
	}()

	return fn()
}

// WithHandle runs fn with a blocking reader over the connection and releases
// the reader afterwards. A release failure is returned only when fn succeeded.
func (c *Communicator) WithHandle(fn func(r io.Reader) error) (err error) {
	if !c.connected {
		return ErrNotConnected
	}

	h, err := c.transport.Handle()
	if err != nil {
		return fmt.Errorf("error acquiring handle: %w", err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error releasing handle: %w", cerr)
		}
	}()

	return fn(h)
}

// SendInstruction writes an instruction and, if confirmACK is set, checks
// that the console acknowledged it. Nothing is retried.
func (c *Communicator) SendInstruction(instruction []byte, confirmACK bool) error {
	if !c.connected {
		return ErrNotConnected
	}

	if err := c.transport.Send(instruction); err != nil {
		return err
	}
	if confirmACK {
		return c.ConfirmACK()
	}
	return nil
}

// ConfirmACK reads one byte and returns an *AckError unless it is ACK.
func (c *Communicator) ConfirmACK() error {
	b, err := c.Read(1)
	switch {
	case len(b) == 1:
		if b[0] != ACK {
			return &AckError{Received: b[0]}
		}
		return nil
	case err == nil, errors.Is(err, io.EOF):
		return &AckError{Missing: true}
	}
	return fmt.Errorf("error reading acknowledgement: %w", err)
}

// Read returns up to n bytes, blocking until at least one is available.
func (c *Communicator) Read(n int) ([]byte, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	return c.transport.Read(n)
}
