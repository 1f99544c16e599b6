package davis

import (
	"errors"
	"io"
	"net"
	"testing"
)

func pipeTransport(t *testing.T) (*streamTransport, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { remote.Close() })

	transport := newStreamTransport("pipe", func() (io.ReadWriteCloser, error) { return local, nil }, nil)
	if err := transport.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return transport, remote
}

func TestStreamTransportSendAndRead(t *testing.T) {
	transport, console := pipeTransport(t)

	received := make(chan []byte)
	go func() {
		buf := make([]byte, 5)
		io.ReadFull(console, buf)
		received <- buf
		console.Write([]byte{ACK, 'x', 'y'})
	}()

	if err := transport.Send([]byte("TEST\n")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := <-received; string(got) != "TEST\n" {
		t.Errorf("console received %q", got)
	}

	got, err := transport.Read(8)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) == 0 || len(got) > 3 || got[0] != ACK {
		t.Errorf("Read = % x", got)
	}
}

func TestStreamTransportHandle(t *testing.T) {
	transport, console := pipeTransport(t)
	go console.Write([]byte("\n\r"))

	h, err := transport.Handle()
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	buf := make([]byte, 2)
	if _, err := io.ReadFull(h, buf); err != nil || string(buf) != "\n\r" {
		t.Errorf("handle read %q, %v", buf, err)
	}

	if err := h.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, err := h.Read(buf); !errors.Is(err, errLinkClosed) {
		t.Errorf("read after Close = %v, want errLinkClosed", err)
	}
	if err := h.Close(); err == nil {
		t.Error("second Close should fail")
	}
}

func TestStreamTransportDisconnect(t *testing.T) {
	transport, _ := pipeTransport(t)

	if err := transport.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := transport.Disconnect(); err != nil {
		t.Errorf("second Disconnect = %v, want nil", err)
	}
	if err := transport.Send([]byte("\n")); !errors.Is(err, errLinkClosed) {
		t.Errorf("Send after Disconnect = %v, want errLinkClosed", err)
	}
	if _, err := transport.Read(1); !errors.Is(err, errLinkClosed) {
		t.Errorf("Read after Disconnect = %v, want errLinkClosed", err)
	}
	if _, err := transport.Handle(); !errors.Is(err, errLinkClosed) {
		t.Errorf("Handle after Disconnect = %v, want errLinkClosed", err)
	}
}

func TestStreamTransportDialFailure(t *testing.T) {
	dialErr := errors.New("port busy")
	transport := newStreamTransport("busy", func() (io.ReadWriteCloser, error) { return nil, dialErr }, nil)

	if err := transport.Connect(); !errors.Is(err, dialErr) {
		t.Errorf("Connect = %v, want %v", err, dialErr)
	}
	if _, err := transport.Read(1); !errors.Is(err, errLinkClosed) {
		t.Errorf("Read after failed Connect = %v, want errLinkClosed", err)
	}
}
