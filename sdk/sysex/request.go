package sysex

import "fmt"

// Dump request layout:
//
//	F0 mm 2n ff F7
//
// The instrument answers with a bulk dump of format ff.
const DumpRequestLen = 5

// DumpRequest is a decoded dump-request frame.
type DumpRequest struct {
	Manufacturer byte
	Device       byte
	Format       byte
}

// EncodeDumpRequest appends a dump-request frame to dst.
func EncodeDumpRequest(dst []byte, manufacturer, device, format byte) ([]byte, error) {
	switch {
	case manufacturer > 0x7F:
		return dst, fmt.Errorf("%w: manufacturer 0x%02X", ErrOutOfRange, manufacturer)
	case device > MaxDevice:
		return dst, fmt.Errorf("%w: device %d", ErrOutOfRange, device)
	case format > 0x7F:
		return dst, fmt.Errorf("%w: format 0x%02X", ErrOutOfRange, format)
	}
	return append(dst, Start, manufacturer, SubStatusRequest|device, format, End), nil
}

// DecodeDumpRequest validates a dump-request frame from the given manufacturer.
func DecodeDumpRequest(frame []byte, manufacturer byte) (DumpRequest, error) {
	const op = "decode dump request"

	if len(frame) != DumpRequestLen {
		return DumpRequest{}, Malformed(op, "frame of %d bytes, want %d", len(frame), DumpRequestLen)
	}
	if frame[0] != Start || frame[len(frame)-1] != End {
		return DumpRequest{}, Malformed(op, "frame is not delimited by 0xF0..0xF7")
	}
	if !allData(frame[1 : len(frame)-1]) {
		return DumpRequest{}, Malformed(op, "data byte with the status bit set")
	}
	if frame[1] != manufacturer {
		return DumpRequest{}, Malformed(op, "manufacturer 0x%02X, want 0x%02X", frame[1], manufacturer)
	}
	if frame[2]&0xF0 != SubStatusRequest {
		return DumpRequest{}, Malformed(op, "sub-status 0x%02X is not a dump request", frame[2]&0xF0)
	}
	return DumpRequest{
		Manufacturer: frame[1],
		Device:       frame[2] & 0x0F,
		Format:       frame[3],
	}, nil
}
