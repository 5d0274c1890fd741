package dx7

import (
	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

const (
	// PackedVoiceSize is the size of one voice in a bank dump.
	PackedVoiceSize = 128
	// BankDataSize is the payload of a bank dump.
	BankDataSize = 32 * PackedVoiceSize

	packedOperatorSize = 17
)

// bits places the voice parameter number at shift inside a packed byte.
type bits struct {
	number int
	shift  uint
}

// packedOperator lists, per packed byte of an operator block, the
// operator-relative offsets stored in it.
var packedOperator = [packedOperatorSize][]bits{
	{{0, 0}}, {{1, 0}}, {{2, 0}}, {{3, 0}}, // EG rates
	{{4, 0}}, {{5, 0}}, {{6, 0}}, {{7, 0}}, // EG levels
	{{8, 0}}, {{9, 0}}, {{10, 0}},
	{{11, 0}, {12, 2}}, // curves
	{{13, 0}, {20, 3}}, // rate scaling, detune
	{{14, 0}, {15, 2}}, // AMS, KVS
	{{16, 0}},
	{{17, 0}, {18, 1}}, // mode, coarse
	{{19, 0}},
}

// packedGlobal lists the global parameters by voice parameter number.
var packedGlobal = [PackedVoiceSize - 6*packedOperatorSize][]bits{
	{{126, 0}}, {{127, 0}}, {{128, 0}}, {{129, 0}},
	{{130, 0}}, {{131, 0}}, {{132, 0}}, {{133, 0}},
	{{134, 0}},
	{{135, 0}, {136, 3}}, // feedback, osc key sync
	{{137, 0}}, {{138, 0}}, {{139, 0}}, {{140, 0}},
	{{141, 0}, {142, 1}, {143, 4}}, // LFO sync, waveform, PMS
	{{144, 0}},
	{{145, 0}}, {{146, 0}}, {{147, 0}}, {{148, 0}}, {{149, 0}},
	{{150, 0}}, {{151, 0}}, {{152, 0}}, {{153, 0}}, {{154, 0}},
}

// packedLayout is the full 128-byte voice layout, OP6 block first.
var packedLayout = buildPackedLayout()

func buildPackedLayout() [PackedVoiceSize][]bits {
	var out [PackedVoiceSize][]bits
	for block := 0; block < 6; block++ {
		for i, entries := range packedOperator {
			shifted := make([]bits, len(entries))
			for j, e := range entries {
				shifted[j] = bits{number: block*OperatorStride + e.number, shift: e.shift}
			}
			out[block*packedOperatorSize+i] = shifted
		}
	}
	copy(out[6*packedOperatorSize:], packedGlobal[:])
	return out
}

// width returns the number of bits a field needs.
func width(max byte) uint {
	var n uint
	for ; max > 0; max >>= 1 {
		n++
	}
	return n
}

func packVoice(dst []byte, p *Patch) {
	for i, entries := range packedLayout {
		var b byte
		for _, e := range entries {
			f, op, _ := voiceField(e.number)
			b |= f.get(p, op) << e.shift
		}
		dst[i] = b
	}
}

func unpackVoice(src []byte) (Patch, error) {
	const op = "decode dx7 bank"

	var p Patch
	for i, entries := range packedLayout {
		b := src[i]
		var used byte
		for _, e := range entries {
			f, fop, _ := voiceField(e.number)
			mask := byte(1)<<width(f.max) - 1
			used |= mask << e.shift
			v := b >> e.shift & mask
			if err := f.check(v); err != nil {
				return Patch{}, sysex.Malformed(op, "byte %d: %v", i, err)
			}
			if err := f.set(&p, fop, v); err != nil {
				return Patch{}, sysex.Malformed(op, "byte %d: %v", i, err)
			}
		}
		if b&^used != 0 {
			return Patch{}, sysex.Malformed(op, "byte %d: unused bits set in 0x%02X", i, b)
		}
	}
	return p, nil
}

// EncodeBank returns the 32-voice bulk dump of b.
func EncodeBank(dev Device, b *Bank) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	data := make([]byte, BankDataSize)
	for i := range b {
		packVoice(data[i*PackedVoiceSize:], &b[i])
	}
	return sysex.EncodeBulk(make([]byte, 0, sysex.BulkSize(BankDataSize)), sysex.ManufacturerYamaha, dev.Value(), FormatBank, data)
}

// DecodeBank parses a 32-voice bulk dump. Any defect, including a set bit
// no field uses, fails the whole bank.
func DecodeBank(frame []byte) (Device, Bank, error) {
	dump, err := decodeDump("decode dx7 bank", frame, FormatBank, BankDataSize)
	if err != nil {
		return Device{}, Bank{}, err
	}

	var bank Bank
	for i := range bank {
		p, err := unpackVoice(dump.Data[i*PackedVoiceSize : (i+1)*PackedVoiceSize])
		if err != nil {
			return Device{}, Bank{}, err
		}
		bank[i] = p
	}
	return bounded.Clamped[uint8, DeviceRange](dump.Device), bank, nil
}
