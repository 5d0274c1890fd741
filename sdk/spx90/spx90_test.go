package spx90

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// randomize fills every field of p with a random legal value.
func randomize(rng *rand.Rand, p Program) {
	for _, f := range p.fields() {
		if err := f.set(uint16(rng.Intn(int(f.max) + 1))); err != nil {
			panic(err)
		}
	}
	var raw [sysex.NameWidth]byte
	for i := range raw {
		raw[i] = byte(0x20 + rng.Intn(0x5F))
	}
	n, err := sysex.NameFromBytes(raw[:])
	if err != nil {
		panic(err)
	}
	SetName(p, n)
}

func TestProgramRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			for i := 0; i < 50; i++ {
				p, err := New(k)
				if err != nil {
					t.Fatal(err)
				}
				randomize(rng, p)
				dev := bounded.Random[uint8, DeviceRange](rng)

				frame, err := EncodeProgram(dev, p)
				if err != nil {
					t.Fatalf("EncodeProgram: %v", err)
				}
				gotDev, got, err := DecodeProgram(frame)
				if err != nil {
					t.Fatalf("DecodeProgram: %v", err)
				}
				if gotDev != dev || got.Kind() != k || !reflect.DeepEqual(got, p) {
					t.Fatalf("round trip changed %+v into %+v", p, got)
				}
			}
		})
	}
}

func TestPitchChangeWireValues(t *testing.T) {
	p := &PitchChange{
		Coarse: bounded.Must(bounded.New[int8, CoarseRange](-12)),
		Fine:   bounded.Must(bounded.New[int16, FineRange](100)),
		Name:   sysex.MustName("OCTAVE"),
	}
	frame, err := EncodeProgram(Device{}, p)
	if err != nil {
		t.Fatal(err)
	}
	data := frame[6 : len(frame)-2]
	if data[0] != byte(KindPitchChange) {
		t.Errorf("kind tag = %d", data[0])
	}
	if data[1] != 0 {
		t.Errorf("coarse -12 sent as %d, want 0", data[1])
	}
	if data[2] != 0x01 || data[3] != 0x48 {
		t.Errorf("fine +100 sent as % X, want 01 48", data[2:4])
	}
	if data[6] != 99 || data[7] != 99 {
		t.Errorf("balance and output level = %d %d, want the 99 defaults", data[6], data[7])
	}
}

func TestDecodeProgramRejects(t *testing.T) {
	good, err := EncodeProgram(Device{}, &Tremolo{})
	if err != nil {
		t.Fatal(err)
	}
	reencode := func(mutate func(data []byte) []byte) []byte {
		data := append([]byte(nil), good[6:len(good)-2]...)
		frame, err := sysex.EncodeBulk(nil, sysex.ManufacturerYamaha, 0, FormatProgram, mutate(data))
		if err != nil {
			t.Fatal(err)
		}
		return frame
	}

	tests := []struct {
		name  string
		frame []byte
	}{
		{"unknown kind", reencode(func(d []byte) []byte { d[0] = 15; return d })},
		{"wrong length for kind", reencode(func(d []byte) []byte { d[0] = byte(KindChorus); return d })},
		{"field above 99", reencode(func(d []byte) []byte { d[1] = 100; return d })},
		{"empty", reencode(func(d []byte) []byte { return d[:0] })},
		{"bad name", reencode(func(d []byte) []byte { d[len(d)-1] = 0x7F; return d })},
		{"checksum", func() []byte {
			f := append([]byte(nil), good...)
			f[len(f)-2] ^= 0x01
			return f
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, p, err := DecodeProgram(tt.frame)
			if !errors.Is(err, sysex.ErrMalformedFrame) {
				t.Errorf("error = %v, want ErrMalformedFrame", err)
			}
			if p != nil || dev != (Device{}) {
				t.Errorf("failed decode returned a program")
			}
		})
	}

	enumBad := &Delay{Mode: 3}
	if _, err := EncodeProgram(Device{}, enumBad); !errors.Is(err, bounded.ErrOutOfRange) {
		t.Errorf("EncodeProgram(stereo mode 3) = %v", err)
	}
}

func TestProgramParameter(t *testing.T) {
	dev := bounded.Must(bounded.New[uint8, DeviceRange](2))
	frame, err := EncodeProgramParameter(dev, KindEcho, 2, 40)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xF0, 0x43, 0x12, 0x24 | 0x01, 0x42, 40, 0xF7}
	if !reflect.DeepEqual(frame, want) {
		t.Fatalf("frame = % X, want % X", frame, want)
	}

	c, err := DecodeProgramParameter(frame)
	if err != nil {
		t.Fatal(err)
	}
	if c.Device != dev || c.Kind != KindEcho || c.Field != 2 || c.Value != 40 {
		t.Errorf("decoded %+v", c)
	}

	echo := &Echo{}
	if err := c.Apply(echo); err != nil {
		t.Fatal(err)
	}
	if echo.DelayTimeRight.Value() != 40 {
		t.Errorf("delay time right = %d", echo.DelayTimeRight.Value())
	}
	if err := c.Apply(&Delay{}); err == nil {
		t.Errorf("echo change applied to a delay program")
	}
}

func TestProgramParameterRejects(t *testing.T) {
	var dev Device
	tests := []struct {
		name  string
		kind  Kind
		field int
		value uint8
	}{
		{"unknown kind", kindCount, 0, 0},
		{"no such field", KindTremolo, 4, 0},
		{"above range", KindReverbHall, 0, 100},
		{"coarse above 24", KindPitchChange, 0, 25},
		{"fine is dump only", KindPitchChange, 1, 0},
		{"enum above range", KindFreeze, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeProgramParameter(dev, tt.kind, tt.field, tt.value); err == nil {
				t.Errorf("EncodeProgramParameter succeeded")
			}
		})
	}

	raw, _ := sysex.EncodeParameterChange(nil, sysex.ManufacturerYamaha, 0, GroupProgram, uint16(KindTremolo)<<4|7, 0)
	if _, err := DecodeProgramParameter(raw); !errors.Is(err, sysex.ErrMalformedFrame) {
		t.Errorf("DecodeProgramParameter(no such field) = %v", err)
	}
	raw, _ = sysex.EncodeParameterChange(nil, sysex.ManufacturerYamaha, 0, 0, 0, 0)
	if _, err := DecodeProgramParameter(raw); !errors.Is(err, sysex.ErrMalformedFrame) {
		t.Errorf("DecodeProgramParameter(voice group) = %v", err)
	}
}

func TestFields(t *testing.T) {
	names, err := Fields(KindChorus)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"speed", "depth", "delay", "phase", "balance", "output level"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Fields(chorus) = %v", names)
	}
	if _, err := Fields(kindCount); !errors.Is(err, bounded.ErrOutOfRange) {
		t.Errorf("Fields(unknown) = %v", err)
	}
}

func TestProgramRequest(t *testing.T) {
	dev := bounded.Must(bounded.New[uint8, DeviceRange](9))
	frame := EncodeProgramRequest(dev)

	req, err := sysex.DecodeDumpRequest(frame, sysex.ManufacturerYamaha)
	if err != nil {
		t.Fatalf("DecodeDumpRequest: %v", err)
	}
	if req.Device != 9 || req.Format != FormatProgram {
		t.Errorf("request = %+v, want device 9 format 0x%02X", req, FormatProgram)
	}
}
