package davis

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/chrissnell/weatherlink/internal/log"
	"go.uber.org/zap"
)

// Transport is a byte link to a console. Communicator layers the protocol
// state machine on top of it; implementations only move bytes.
type Transport interface {
	Connect() error
	Disconnect() error
	// Send blocks until all of data is written.
	Send(data []byte) error
	// Read blocks until at least one byte arrives and returns at most n.
	Read(n int) ([]byte, error)
	// Handle returns a blocking byte stream over the open link. Closing the
	// handle releases it without closing the link.
	Handle() (io.ReadCloser, error)
}

var errLinkClosed = errors.New("link is not open")

// streamTransport implements Transport over any io.ReadWriteCloser produced
// by dial. The IP and serial transports differ only in how they dial.
type streamTransport struct {
	name   string
	dial   func() (io.ReadWriteCloser, error)
	logger *zap.SugaredLogger

	mu  sync.Mutex
	rwc io.ReadWriteCloser
}

func newStreamTransport(name string, dial func() (io.ReadWriteCloser, error), logger *zap.SugaredLogger) *streamTransport {
	return &streamTransport{
		name:   name,
		dial:   dial,
		logger: log.OrNop(logger),
	}
}

func (t *streamTransport) String() string {
	return t.name
}

func (t *streamTransport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logger.Infof("connecting to %v ...", t.name)
	rwc, err := t.dial()
	if err != nil {
		return fmt.Errorf("could not connect to %v: %w", t.name, err)
	}
	t.rwc = rwc
	return nil
}

// Disconnect closes the link. The link is forgotten even if Close fails.
func (t *streamTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rwc == nil {
		return nil
	}
	err := t.rwc.Close()
	t.rwc = nil
	return err
}

func (t *streamTransport) conn() (io.ReadWriteCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rwc == nil {
		return nil, errLinkClosed
	}
	return t.rwc, nil
}

func (t *streamTransport) Send(data []byte) error {
	rwc, err := t.conn()
	if err != nil {
		return err
	}

	if len(data) > 0 {
		t.logger.Debugf("writing to Davis station: %s", hex.EncodeToString(data))
	}

	// io.Writer implementations must not return short writes without an error,
	// but serial drivers have been known to.
	for len(data) > 0 {
		n, err := rwc.Write(data)
		if err != nil {
			return fmt.Errorf("error writing to Davis station: %w", err)
		}
		data = data[n:]
	}
	return nil
}

func (t *streamTransport) Read(n int) ([]byte, error) {
	rwc, err := t.conn()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	read, err := io.ReadAtLeast(rwc, buf, min(1, n))
	return buf[:read], err
}

func (t *streamTransport) Handle() (io.ReadCloser, error) {
	rwc, err := t.conn()
	if err != nil {
		return nil, err
	}
	return &handle{r: rwc}, nil
}

// handle is an unbuffered view of the link, so no bytes are lost to
// read-ahead when it is released.
type handle struct {
	r      io.Reader
	closed bool
}

func (h *handle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, errLinkClosed
	}
	return h.r.Read(p)
}

func (h *handle) Close() error {
	if h.closed {
		return errLinkClosed
	}
	h.closed = true
	return nil
}
