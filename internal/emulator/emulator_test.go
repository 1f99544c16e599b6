package emulator

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/chrissnell/weatherlink/pkg/crc16"
)

// session connects a client to a console over an in-memory pipe.
func session(t *testing.T, c *Console) net.Conn {
	t.Helper()
	client, server := net.Pipe()
	go c.HandleConnection(server)
	t.Cleanup(func() { client.Close() })
	client.SetDeadline(time.Now().Add(5 * time.Second))
	return client
}

func send(t *testing.T, conn net.Conn, command string) {
	t.Helper()
	if _, err := conn.Write([]byte(command)); err != nil {
		t.Fatalf("write %q: %v", command, err)
	}
}

func expect(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("reading %d bytes: %v", n, err)
	}
	return buf
}

func TestConsoleCommands(t *testing.T) {
	c := New(Config{Sample: FixedSample}, nil)
	conn := session(t, c)

	send(t, conn, "\n")
	if got := expect(t, conn, 2); string(got) != "\n\r" {
		t.Errorf("wake response = %q", got)
	}

	send(t, conn, "TEST\n")
	if got := expect(t, conn, 8); string(got) != "\n\rTEST\n\r" {
		t.Errorf("TEST response = %q", got)
	}

	send(t, conn, "BOGUS\n")
	if got := expect(t, conn, 1); got[0] != badCommand {
		t.Errorf("unknown command response = %q", got)
	}

	send(t, conn, "EEBRD 2B 01\n")
	got := expect(t, conn, 4)
	if got[0] != ack || got[1] != 0b00000110 || !crc16.Valid(got[1:]) {
		t.Errorf("EEBRD response = % x", got)
	}

	send(t, conn, "EEBRD FFF 10\n")
	if got := expect(t, conn, 1); got[0] != nak {
		t.Errorf("out of range EEBRD response = % x", got)
	}

	send(t, conn, "LPS 2 2\n")
	if got := expect(t, conn, 1); got[0] != ack {
		t.Fatalf("LPS response = % x", got)
	}
	want := FixedSample().LoopPacket()
	for i := 0; i < 2; i++ {
		if got := expect(t, conn, len(want)); !bytes.Equal(got, want) {
			t.Errorf("packet %d = % x", i, got)
		}
	}

	send(t, conn, "LPS 1 2\n")
	if got := expect(t, conn, 1); got[0] != nak {
		t.Errorf("LPS 1 response = % x", got)
	}

	// a cancel character ahead of the next command is ignored
	send(t, conn, "\rTEST\n")
	if got := expect(t, conn, 8); string(got) != "\n\rTEST\n\r" {
		t.Errorf("TEST after cancel = %q", got)
	}
}

func TestConsoleCorruptCRC(t *testing.T) {
	c := New(Config{Sample: FixedSample}, nil)
	c.SetEEPROM(0x20, []byte{1, 2, 3})
	c.SetCorruptCRC(true)
	conn := session(t, c)

	send(t, conn, "EEBRD 20 03\n")
	got := expect(t, conn, 6)
	if !bytes.Equal(got[1:4], []byte{1, 2, 3}) {
		t.Errorf("EEBRD data = % x", got[1:4])
	}
	if crc16.Valid(got[1:]) {
		t.Error("EEBRD checksum should be corrupt")
	}

	send(t, conn, "LPS 2 1\n")
	packet := expect(t, conn, 100)[1:]
	if crc16.Valid(packet) {
		t.Error("LOOP2 checksum should be corrupt")
	}
}

func TestLoopPacketLayout(t *testing.T) {
	packet := FixedSample().LoopPacket()

	if len(packet) != 99 {
		t.Fatalf("packet is %d bytes", len(packet))
	}
	if string(packet[:3]) != "LOO" || packet[4] != 1 || string(packet[95:97]) != "\n\r" {
		t.Errorf("packet markers = %q type %d trailer %q", packet[:3], packet[4], packet[95:97])
	}
	if !crc16.Valid(packet) {
		t.Error("packet checksum does not verify")
	}
	// outside temperature, little endian tenths of a degree
	if packet[12] != 0x49 || packet[13] != 0x02 {
		t.Errorf("outside temperature bytes = % x", packet[12:14])
	}
}

func TestSimulatedSampleEncodes(t *testing.T) {
	sim := newSimulator()
	for i := 0; i < 10; i++ {
		s := sim.Sample()
		if s.OutsideHumidity < 10 || s.OutsideHumidity > 95 {
			t.Errorf("humidity %d out of range", s.OutsideHumidity)
		}
		if !crc16.Valid(s.LoopPacket()) {
			t.Error("simulated packet checksum does not verify")
		}
	}
}
