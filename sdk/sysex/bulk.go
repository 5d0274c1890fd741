package sysex

import "fmt"

// Bulk dump layout:
//
//	F0 mm 0n ff ch cl data... cs F7
//
// mm manufacturer, n device, ff format, ch/cl the 14-bit byte count as two
// 7-bit bytes (big-endian), cs the checksum over data.
const (
	bulkHeaderLen  = 6
	bulkTrailerLen = 2
	bulkOverhead   = bulkHeaderLen + bulkTrailerLen

	// MaxBulkData is the largest payload a 14-bit byte count can describe.
	MaxBulkData = 0x3FFF
)

// BulkDump is a decoded bulk-dump frame.
type BulkDump struct {
	Manufacturer byte
	Device       byte
	Format       byte
	// Data aliases the frame it was decoded from.
	Data []byte
}

// BulkSize returns the frame length of a bulk dump carrying n data bytes.
func BulkSize(n int) int {
	return n + bulkOverhead
}

// EncodeBulk appends a bulk-dump frame to dst. A fresh checksum is always
// computed over data.
func EncodeBulk(dst []byte, manufacturer, device, format byte, data []byte) ([]byte, error) {
	switch {
	case manufacturer > 0x7F:
		return dst, fmt.Errorf("%w: manufacturer 0x%02X", ErrOutOfRange, manufacturer)
	case device > MaxDevice:
		return dst, fmt.Errorf("%w: device %d", ErrOutOfRange, device)
	case format > 0x7F:
		return dst, fmt.Errorf("%w: format 0x%02X", ErrOutOfRange, format)
	case len(data) > MaxBulkData:
		return dst, fmt.Errorf("%w: %d data bytes", ErrOutOfRange, len(data))
	case !allData(data):
		return dst, fmt.Errorf("%w: data byte with the status bit set", ErrOutOfRange)
	}

	n := len(data)
	dst = append(dst, Start, manufacturer, SubStatusBulk|device, format, byte(n>>7)&0x7F, byte(n)&0x7F)
	dst = append(dst, data...)
	return append(dst, Checksum(data), End), nil
}

// DecodeBulk validates a bulk-dump frame from the given manufacturer and
// returns its fields. It fails on a wrong header, length, terminator or
// checksum.
func DecodeBulk(frame []byte, manufacturer byte) (BulkDump, error) {
	const op = "decode bulk dump"

	if len(frame) < bulkOverhead {
		return BulkDump{}, Malformed(op, "frame of %d bytes is shorter than the %d-byte envelope", len(frame), bulkOverhead)
	}
	if frame[0] != Start {
		return BulkDump{}, Malformed(op, "first byte 0x%02X is not 0xF0", frame[0])
	}
	if frame[len(frame)-1] != End {
		return BulkDump{}, Malformed(op, "last byte 0x%02X is not 0xF7", frame[len(frame)-1])
	}
	if !allData(frame[1 : len(frame)-1]) {
		return BulkDump{}, Malformed(op, "data byte with the status bit set")
	}
	if frame[1] != manufacturer {
		return BulkDump{}, Malformed(op, "manufacturer 0x%02X, want 0x%02X", frame[1], manufacturer)
	}
	if frame[2]&0xF0 != SubStatusBulk {
		return BulkDump{}, Malformed(op, "sub-status 0x%02X is not a bulk dump", frame[2]&0xF0)
	}

	count := int(frame[4])<<7 | int(frame[5])
	if len(frame) != BulkSize(count) {
		return BulkDump{}, Malformed(op, "byte count %d does not match frame length %d", count, len(frame))
	}

	data := frame[bulkHeaderLen : bulkHeaderLen+count]
	if want, got := Checksum(data), frame[len(frame)-2]; want != got {
		return BulkDump{}, checksumError(op, want, got)
	}

	return BulkDump{
		Manufacturer: frame[1],
		Device:       frame[2] & 0x0F,
		Format:       frame[3],
		Data:         data,
	}, nil
}
