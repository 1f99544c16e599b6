package crc16

import "testing"

func TestTable(t *testing.T) {
	// first and last entries of the table printed in the Vantage serial protocol manual
	head := []uint16{0x0000, 0x1021, 0x2042, 0x3063, 0x4084, 0x50a5, 0x60c6, 0x70e7}
	for i, want := range head {
		if table[i] != want {
			t.Errorf("table[%d] = %#04x, want %#04x", i, table[i], want)
		}
	}
	if table[255] != 0x1ef0 {
		t.Errorf("table[255] = %#04x, want 0x1ef0", table[255])
	}
}

func TestCrc16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0},
		{"check string", []byte("123456789"), 0x31c3},
		{"manual example", []byte{0xc6, 0xce, 0xa2, 0x03}, 0xe2b4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Crc16(tt.data); got != tt.want {
				t.Errorf("Crc16(%x) = %#04x, want %#04x", tt.data, got, tt.want)
			}
		})
	}
}

func TestAppendAndValid(t *testing.T) {
	payload := []byte{0x00, 0x10, 0x20, 0x30}
	framed := Append(append([]byte(nil), payload...))

	if len(framed) != len(payload)+2 {
		t.Fatalf("Append produced %d bytes, want %d", len(framed), len(payload)+2)
	}
	if !Valid(framed) {
		t.Errorf("Valid(%x) = false, want true", framed)
	}

	framed[1] ^= 0x01
	if Valid(framed) {
		t.Errorf("Valid(%x) = true after corruption", framed)
	}

	if Valid([]byte{0x00}) {
		t.Error("a single byte cannot carry a checksum")
	}
}
