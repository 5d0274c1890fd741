package sysex

import "fmt"

// Status bytes delimiting a System-Exclusive message.
const (
	Start byte = 0xF0
	End   byte = 0xF7
)

// Manufacturer IDs used by the codecs in this module.
const (
	ManufacturerYamaha byte = 0x43
)

// Sub-status values carried in the high nibble of the device byte.
const (
	SubStatusBulk      byte = 0x00
	SubStatusParameter byte = 0x10
	SubStatusRequest   byte = 0x20
)

// MaxDevice is the largest device number addressable in the low nibble.
const MaxDevice = 0x0F

// Frame is one complete SysEx message: 0xF0, 7-bit data bytes, 0xF7.
type Frame []byte

// Valid reports whether f satisfies the frame invariant.
func (f Frame) Valid() bool {
	if len(f) < 2 || f[0] != Start || f[len(f)-1] != End {
		return false
	}
	for _, b := range f[1 : len(f)-1] {
		if b > 0x7F {
			return false
		}
	}
	return true
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", []byte(f))
}

// IsRealTime reports whether b is one of the single-byte clocking messages
// that may be interleaved anywhere in the stream, including inside SysEx.
func IsRealTime(b byte) bool {
	switch b {
	case 0xF8, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE:
		return true
	}
	return false
}

// IsStatus reports whether b has the status bit set.
func IsStatus(b byte) bool {
	return b&0x80 != 0
}

// Checksum returns the 7-bit two's-complement checksum of data:
// the value that brings the low seven bits of the sum to zero.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum & 0x7F
}

func allData(p []byte) bool {
	for _, b := range p {
		if b > 0x7F {
			return false
		}
	}
	return true
}
