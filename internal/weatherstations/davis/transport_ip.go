package davis

import (
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the TCP port of WeatherLinkIP and serial-to-IP bridges.
	DefaultPort = 22222

	defaultDialTimeout = 10 * time.Second
)

// IPTransport reaches a console over TCP.
type IPTransport struct {
	*streamTransport
}

// NewIPTransport returns a transport for host:port. A non-zero timeout bounds
// every individual read and write.
func NewIPTransport(host string, port int, timeout time.Duration, logger *zap.SugaredLogger) *IPTransport {
	if port == 0 {
		port = DefaultPort
	}
	console := net.JoinHostPort(host, strconv.Itoa(port))

	dial := func() (io.ReadWriteCloser, error) {
		conn, err := net.DialTimeout("tcp", console, defaultDialTimeout)
		if err != nil {
			return nil, err
		}
		return &deadlineConn{Conn: conn, timeout: timeout}, nil
	}

	return &IPTransport{newStreamTransport(console, dial, logger)}
}

// deadlineConn pushes the deadline forward before each operation, so a
// silent console fails the read instead of hanging the poller.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		c.Conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return c.Conn.Write(p)
}
