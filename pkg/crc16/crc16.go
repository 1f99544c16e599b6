// Package crc16 implements the CRC-CCITT checksum used by Davis Vantage
// consoles: polynomial 0x1021, initial value 0, no reflection, no final XOR.
//
// The console appends the checksum big-endian, so running Crc16 over a
// payload followed by its two checksum bytes yields zero when the data
// arrived intact.
package crc16

import "encoding/binary"

const poly = 0x1021

var table = makeTable(poly)

func makeTable(p uint16) (t [256]uint16) {
	for i := range t {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ p
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Crc16 returns the checksum of data.
func Crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = table[byte(crc>>8)^b] ^ crc<<8
	}
	return crc
}

// Valid reports whether data, including its trailing two checksum bytes,
// checks out.
func Valid(data []byte) bool {
	return len(data) >= 2 && Crc16(data) == 0
}

// Append appends the big-endian checksum of data to data.
func Append(data []byte) []byte {
	return binary.BigEndian.AppendUint16(data, Crc16(data))
}
