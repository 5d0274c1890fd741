package sysex

import "fmt"

// Parameter change layout:
//
//	F0 mm 1n gh pp dd F7
//
// gh carries the 5-bit parameter group in bits 6..2 and the two high bits
// of the 9-bit parameter number in bits 1..0; pp holds the low seven bits.
const (
	// ParameterChangeLen is the fixed length of a parameter-change frame.
	ParameterChangeLen = 7

	MaxGroup     = 0x1F
	MaxParameter = 0x1FF
)

// ParameterChange is a decoded addressed parameter-change frame.
type ParameterChange struct {
	Manufacturer byte
	Device       byte
	Group        byte
	Parameter    uint16
	Data         byte
}

// EncodeParameterChange appends a parameter-change frame to dst.
func EncodeParameterChange(dst []byte, manufacturer, device, group byte, parameter uint16, data byte) ([]byte, error) {
	switch {
	case manufacturer > 0x7F:
		return dst, fmt.Errorf("%w: manufacturer 0x%02X", ErrOutOfRange, manufacturer)
	case device > MaxDevice:
		return dst, fmt.Errorf("%w: device %d", ErrOutOfRange, device)
	case group > MaxGroup:
		return dst, fmt.Errorf("%w: group %d", ErrOutOfRange, group)
	case parameter > MaxParameter:
		return dst, fmt.Errorf("%w: parameter %d", ErrOutOfRange, parameter)
	case data > 0x7F:
		return dst, fmt.Errorf("%w: data 0x%02X", ErrOutOfRange, data)
	}

	return append(dst,
		Start,
		manufacturer,
		SubStatusParameter|device,
		group<<2|byte(parameter>>7),
		byte(parameter)&0x7F,
		data,
		End,
	), nil
}

// DecodeParameterChange validates the structure of a parameter-change
// frame from the given manufacturer. Range checks on the data byte belong
// to the caller, who knows the parameter's legal domain.
func DecodeParameterChange(frame []byte, manufacturer byte) (ParameterChange, error) {
	const op = "decode parameter change"

	if len(frame) != ParameterChangeLen {
		return ParameterChange{}, Malformed(op, "frame of %d bytes, want %d", len(frame), ParameterChangeLen)
	}
	if frame[0] != Start || frame[len(frame)-1] != End {
		return ParameterChange{}, Malformed(op, "frame is not delimited by 0xF0..0xF7")
	}
	if !allData(frame[1 : len(frame)-1]) {
		return ParameterChange{}, Malformed(op, "data byte with the status bit set")
	}
	if frame[1] != manufacturer {
		return ParameterChange{}, Malformed(op, "manufacturer 0x%02X, want 0x%02X", frame[1], manufacturer)
	}
	if frame[2]&0xF0 != SubStatusParameter {
		return ParameterChange{}, Malformed(op, "sub-status 0x%02X is not a parameter change", frame[2]&0xF0)
	}

	return ParameterChange{
		Manufacturer: frame[1],
		Device:       frame[2] & 0x0F,
		Group:        frame[3] >> 2,
		Parameter:    uint16(frame[3]&0x03)<<7 | uint16(frame[4]),
		Data:         frame[5],
	}, nil
}
