package dx7

import (
	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// Bulk dump formats.
const (
	FormatVoice byte = 0x00
	FormatBank  byte = 0x09
)

// EncodeVoice returns the single-voice bulk dump of p, which loads it into
// the edit buffer.
func EncodeVoice(dev Device, p Patch) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var data [VoiceDataSize]byte
	for n := range data {
		f, op, _ := voiceField(n)
		data[n] = f.get(&p, op)
	}
	return sysex.EncodeBulk(make([]byte, 0, sysex.BulkSize(VoiceDataSize)), sysex.ManufacturerYamaha, dev.Value(), FormatVoice, data[:])
}

// DecodeVoice parses a single-voice bulk dump. On error it returns zero
// values and a *sysex.FrameError.
func DecodeVoice(frame []byte) (Device, Patch, error) {
	const op = "decode dx7 voice"

	dump, err := decodeDump(op, frame, FormatVoice, VoiceDataSize)
	if err != nil {
		return Device{}, Patch{}, err
	}

	var p Patch
	for n, b := range dump.Data {
		f, fop, _ := voiceField(n)
		if err := f.check(b); err != nil {
			return Device{}, Patch{}, sysex.Malformed(op, "%v", err)
		}
		if err := f.set(&p, fop, b); err != nil {
			return Device{}, Patch{}, sysex.Malformed(op, "%v", err)
		}
	}
	return bounded.Clamped[uint8, DeviceRange](dump.Device), p, nil
}

func decodeDump(op string, frame []byte, format byte, size int) (sysex.BulkDump, error) {
	dump, err := sysex.DecodeBulk(frame, sysex.ManufacturerYamaha)
	if err != nil {
		return sysex.BulkDump{}, err
	}
	if dump.Format != format {
		return sysex.BulkDump{}, sysex.Malformed(op, "format %d, want %d", dump.Format, format)
	}
	if len(dump.Data) != size {
		return sysex.BulkDump{}, sysex.Malformed(op, "%d data bytes, want %d", len(dump.Data), size)
	}
	return dump, nil
}
