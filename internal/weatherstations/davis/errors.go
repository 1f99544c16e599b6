package davis

import (
	"errors"
	"fmt"
)

var (
	// ErrState is returned for operations invalid in the current connection state.
	ErrState            = errors.New("invalid connection state")
	ErrAlreadyConnected = fmt.Errorf("%w: already connected", ErrState)
	ErrNotConnected     = fmt.Errorf("%w: not connected", ErrState)

	// ErrProtocol means the console answered with something the protocol does
	// not allow at that point; the conversation is out of step.
	ErrProtocol = errors.New("protocol error")
	// ErrNotAcknowledged is matched by NAK and bad-command responses.
	ErrNotAcknowledged = fmt.Errorf("%w: instruction not acknowledged", ErrProtocol)

	ErrDataIntegrity  = errors.New("data integrity error")
	ErrNotImplemented = errors.New("not implemented")
)

// AckError describes an unexpected response to an instruction.
type AckError struct {
	Received byte
	// Missing is set when the console sent nothing at all.
	Missing bool
}

func (e *AckError) Error() string {
	switch {
	case e.Missing:
		return "invalid acknowledgement: no response"
	case e.nak():
		return fmt.Sprintf("instruction not acknowledged: received 0x%02x", e.Received)
	}
	return fmt.Sprintf("invalid acknowledgement: received 0x%02x", e.Received)
}

func (e *AckError) nak() bool {
	return !e.Missing && (e.Received == NAK || e.Received == BadCommand)
}

// Is matches ErrProtocol, and ErrNotAcknowledged for a NAK or bad-command byte.
func (e *AckError) Is(target error) bool {
	return target == ErrProtocol || (target == ErrNotAcknowledged && e.nak())
}

// CRCError reports a response whose checksum did not verify.
type CRCError struct {
	Data []byte
	CRC  uint16
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("crc check failed over %d bytes: got 0x%04x, want 0", len(e.Data), e.CRC)
}

// Is matches ErrDataIntegrity.
func (e *CRCError) Is(target error) bool {
	return target == ErrDataIntegrity
}
