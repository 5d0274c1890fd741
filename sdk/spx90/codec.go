package spx90

import (
	"fmt"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

const (
	// FormatProgram is the bulk format of a single program dump.
	FormatProgram byte = 0x7E
	// GroupProgram carries per-field parameter changes.
	GroupProgram byte = 9

	maxFields = 16
)

// Validate checks the enumerated fields of p.
func Validate(p Program) error {
	for _, f := range p.fields() {
		if v := f.get(); v > f.max {
			return fmt.Errorf("%s %s: %w", p.Kind(), f.name, &bounded.RangeError{Value: v, Min: 0, Max: f.max})
		}
	}
	return nil
}

func dataSize(fs []field) int {
	n := 1 + sysex.NameWidth
	for _, f := range fs {
		n++
		if f.wide {
			n++
		}
	}
	return n
}

// EncodeProgram returns the bulk dump of p.
func EncodeProgram(dev Device, p Program) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	fs := p.fields()
	data := make([]byte, 0, dataSize(fs))
	data = append(data, byte(p.Kind()))
	for _, f := range fs {
		v := f.get()
		if f.wide {
			data = append(data, byte(v>>7)&0x7F)
		}
		data = append(data, byte(v)&0x7F)
	}
	name := p.programName().Bytes()
	data = append(data, name[:]...)
	return sysex.EncodeBulk(nil, sysex.ManufacturerYamaha, dev.Value(), FormatProgram, data)
}

// EncodeProgramRequest returns the message asking the unit on dev for a
// dump of its current program.
func EncodeProgramRequest(dev Device) []byte {
	frame, _ := sysex.EncodeDumpRequest(nil, sysex.ManufacturerYamaha, dev.Value(), FormatProgram)
	return frame
}

// DecodeProgram parses a program dump, dispatching on its kind tag.
func DecodeProgram(frame []byte) (Device, Program, error) {
	const op = "decode spx90 program"

	dump, err := sysex.DecodeBulk(frame, sysex.ManufacturerYamaha)
	if err != nil {
		return Device{}, nil, err
	}
	if dump.Format != FormatProgram {
		return Device{}, nil, sysex.Malformed(op, "format 0x%02X, want 0x%02X", dump.Format, FormatProgram)
	}
	if len(dump.Data) == 0 {
		return Device{}, nil, sysex.Malformed(op, "empty dump")
	}
	p, err := New(Kind(dump.Data[0]))
	if err != nil {
		return Device{}, nil, sysex.Malformed(op, "unknown program kind %d", dump.Data[0])
	}

	fs := p.fields()
	if want := dataSize(fs); len(dump.Data) != want {
		return Device{}, nil, sysex.Malformed(op, "%s dump of %d bytes, want %d", p.Kind(), len(dump.Data), want)
	}

	rest := dump.Data[1:]
	for _, f := range fs {
		var v uint16
		if f.wide {
			v, rest = uint16(rest[0])<<7, rest[1:]
		}
		v, rest = v|uint16(rest[0]), rest[1:]
		if v > f.max {
			return Device{}, nil, sysex.Malformed(op, "%s %s: %d above %d", p.Kind(), f.name, v, f.max)
		}
		if err := f.set(v); err != nil {
			return Device{}, nil, sysex.Malformed(op, "%s %s: %v", p.Kind(), f.name, err)
		}
	}
	name, err := sysex.NameFromBytes(rest)
	if err != nil {
		return Device{}, nil, sysex.Malformed(op, "%v", err)
	}
	*p.programName() = name
	return bounded.Clamped[uint8, DeviceRange](dump.Device), p, nil
}

// ParameterChange is a decoded per-field program parameter change.
type ParameterChange struct {
	Device Device
	Kind   Kind
	Field  int
	// Value is the wire value: signed fields carry their offset.
	Value uint8
}

func lookupField(k Kind, index int) (field, error) {
	p, err := New(k)
	if err != nil {
		return field{}, err
	}
	fs := p.fields()
	if index < 0 || index >= len(fs) {
		return field{}, fmt.Errorf("%w: %s has no field %d", sysex.ErrOutOfRange, k, index)
	}
	f := fs[index]
	if f.wide {
		return field{}, fmt.Errorf("%w: %s %s is only carried by program dumps", sysex.ErrOutOfRange, k, f.name)
	}
	return f, nil
}

// EncodeProgramParameter returns the message setting field index of a
// program of kind k to the wire value v.
func EncodeProgramParameter(dev Device, k Kind, index int, v uint8) ([]byte, error) {
	f, err := lookupField(k, index)
	if err != nil {
		return nil, err
	}
	if uint16(v) > f.max {
		return nil, fmt.Errorf("%s %s: %w", k, f.name, &bounded.RangeError{Value: v, Min: 0, Max: f.max})
	}
	return sysex.EncodeParameterChange(nil, sysex.ManufacturerYamaha, dev.Value(), GroupProgram, uint16(k)<<4|uint16(index), v)
}

// DecodeProgramParameter validates a program parameter change against the
// addressed kind's field table.
func DecodeProgramParameter(frame []byte) (ParameterChange, error) {
	const op = "decode spx90 parameter"

	raw, err := sysex.DecodeParameterChange(frame, sysex.ManufacturerYamaha)
	if err != nil {
		return ParameterChange{}, err
	}
	if raw.Group != GroupProgram {
		return ParameterChange{}, sysex.Malformed(op, "group %d, want %d", raw.Group, GroupProgram)
	}
	k, index := Kind(raw.Parameter>>4), int(raw.Parameter%maxFields)
	f, err := lookupField(k, index)
	if err != nil {
		return ParameterChange{}, sysex.Malformed(op, "%v", err)
	}
	if uint16(raw.Data) > f.max {
		return ParameterChange{}, sysex.Malformed(op, "%s %s: %d above %d", k, f.name, raw.Data, f.max)
	}
	return ParameterChange{
		Device: bounded.Clamped[uint8, DeviceRange](raw.Device),
		Kind:   k,
		Field:  index,
		Value:  raw.Data,
	}, nil
}

// Apply writes the change into p, which must be of the addressed kind.
// p is unchanged on error.
func (c ParameterChange) Apply(p Program) error {
	if p.Kind() != c.Kind {
		return fmt.Errorf("%w: change for %s applied to %s", sysex.ErrOutOfRange, c.Kind, p.Kind())
	}
	fs := p.fields()
	if c.Field < 0 || c.Field >= len(fs) || fs[c.Field].wide {
		return fmt.Errorf("%w: %s has no field %d", sysex.ErrOutOfRange, c.Kind, c.Field)
	}
	return fs[c.Field].set(uint16(c.Value))
}
