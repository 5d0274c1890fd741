package sysex

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		data []byte
		want byte
	}{
		{nil, 0x00},
		{[]byte{0x01}, 0x7F},
		{[]byte{0x7F, 0x01}, 0x00},
		{[]byte{0x40, 0x40, 0x40}, 0x40},
	}
	for _, tt := range tests {
		got := Checksum(tt.data)
		if got != tt.want {
			t.Errorf("Checksum(% X) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
		}
		var sum byte
		for _, b := range tt.data {
			sum += b
		}
		if (sum+got)&0x7F != 0 {
			t.Errorf("data plus checksum of % X is not zero mod 128", tt.data)
		}
	}
}

func TestBulkRoundTrip(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i % 128)
	}

	frame, err := EncodeBulk(nil, ManufacturerYamaha, 3, 0x09, data)
	if err != nil {
		t.Fatalf("EncodeBulk: %v", err)
	}
	if len(frame) != BulkSize(len(data)) {
		t.Fatalf("len = %d, want %d", len(frame), BulkSize(len(data)))
	}
	if frame[4] != 0x02 || frame[5] != 0x2C {
		t.Errorf("byte count = % X, want 02 2C", frame[4:6])
	}

	dump, err := DecodeBulk(frame, ManufacturerYamaha)
	if err != nil {
		t.Fatalf("DecodeBulk: %v", err)
	}
	if dump.Device != 3 || dump.Format != 0x09 || !bytes.Equal(dump.Data, data) {
		t.Errorf("DecodeBulk = dev %d fmt %d, data mismatch", dump.Device, dump.Format)
	}
}

func TestDecodeBulkRejects(t *testing.T) {
	good, _ := EncodeBulk(nil, ManufacturerYamaha, 0, 0x00, []byte{0x01, 0x02, 0x03})

	mutate := func(fn func(p []byte) []byte) []byte {
		p := append([]byte(nil), good...)
		return fn(p)
	}

	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{"too short", []byte{0xF0, 0x43, 0xF7}, ErrMalformedFrame},
		{"no start", mutate(func(p []byte) []byte { p[0] = 0x00; return p }), ErrMalformedFrame},
		{"no end", mutate(func(p []byte) []byte { p[len(p)-1] = 0x00; return p }), ErrMalformedFrame},
		{"other manufacturer", mutate(func(p []byte) []byte { p[1] = 0x41; return p }), ErrMalformedFrame},
		{"parameter sub-status", mutate(func(p []byte) []byte { p[2] = 0x10; return p }), ErrMalformedFrame},
		{"byte count mismatch", mutate(func(p []byte) []byte { p[5] = 0x04; return p }), ErrMalformedFrame},
		{"truncated", mutate(func(p []byte) []byte { return append(p[:len(p)-3], p[len(p)-2:]...) }), ErrMalformedFrame},
		{"high bit data", mutate(func(p []byte) []byte { p[6] = 0x81; return p }), ErrMalformedFrame},
		{"data flip", mutate(func(p []byte) []byte { p[7] ^= 0x01; return p }), ErrChecksum},
		{"checksum flip", mutate(func(p []byte) []byte { p[len(p)-2] ^= 0x01; return p }), ErrChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBulk(tt.frame, ManufacturerYamaha)
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeBulk error = %v, want %v", err, tt.want)
			}
			if !IsFrameError(err) {
				t.Errorf("error is not a *FrameError")
			}
		})
	}
}

func TestEncodeBulkRejects(t *testing.T) {
	if _, err := EncodeBulk(nil, ManufacturerYamaha, 16, 0, nil); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("device 16: %v", err)
	}
	if _, err := EncodeBulk(nil, ManufacturerYamaha, 0, 0, []byte{0x80}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("high-bit data: %v", err)
	}
	if _, err := EncodeBulk(nil, ManufacturerYamaha, 0, 0, make([]byte, MaxBulkData+1)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("oversized data: %v", err)
	}
}

func TestParameterChange(t *testing.T) {
	frame, err := EncodeParameterChange(nil, ManufacturerYamaha, 1, 0, 155, 0x3F)
	if err != nil {
		t.Fatalf("EncodeParameterChange: %v", err)
	}
	want := []byte{0xF0, 0x43, 0x11, 0x01, 0x1B, 0x3F, 0xF7}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = % X, want % X", frame, want)
	}

	pc, err := DecodeParameterChange(frame, ManufacturerYamaha)
	if err != nil {
		t.Fatalf("DecodeParameterChange: %v", err)
	}
	if pc.Device != 1 || pc.Group != 0 || pc.Parameter != 155 || pc.Data != 0x3F {
		t.Errorf("decoded %+v", pc)
	}

	frame, _ = EncodeParameterChange(nil, ManufacturerYamaha, 0, 2, 41, 0x7F)
	if frame[3] != 0x08 || frame[4] != 41 {
		t.Errorf("function group frame = % X", frame)
	}
}

func TestParameterChangeRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"short", []byte{0xF0, 0x43, 0x10, 0x00, 0x00, 0xF7}},
		{"long", []byte{0xF0, 0x43, 0x10, 0x00, 0x00, 0x00, 0x00, 0xF7}},
		{"bulk sub-status", []byte{0xF0, 0x43, 0x00, 0x00, 0x00, 0x00, 0xF7}},
		{"wrong manufacturer", []byte{0xF0, 0x42, 0x10, 0x00, 0x00, 0x00, 0xF7}},
		{"unterminated", []byte{0xF0, 0x43, 0x10, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeParameterChange(tt.frame, ManufacturerYamaha); !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("error = %v, want ErrMalformedFrame", err)
			}
		})
	}

	if _, err := EncodeParameterChange(nil, ManufacturerYamaha, 0, 32, 0, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("group 32: %v", err)
	}
	if _, err := EncodeParameterChange(nil, ManufacturerYamaha, 0, 0, 512, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("parameter 512: %v", err)
	}
	if _, err := EncodeParameterChange(nil, ManufacturerYamaha, 0, 0, 0, 0x80); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("data 0x80: %v", err)
	}
}

func TestName(t *testing.T) {
	var blank Name
	if b := blank.Bytes(); string(b[:]) != "          " {
		t.Errorf("zero Name = %q, want blanks", b)
	}

	n, err := NewName("E.PIANO 1")
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}
	if b := n.Bytes(); string(b[:]) != "E.PIANO 1 " {
		t.Errorf("Bytes() = %q", b)
	}
	if n.String() != "E.PIANO 1" {
		t.Errorf("String() = %q", n.String())
	}

	long := MustName("BRASS SECTION 2")
	if long.String() != "BRASS SECT" {
		t.Errorf("truncated = %q", long.String())
	}

	if _, err := NewName("BAD\x01"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("control char: %v", err)
	}
	if _, err := NameFromBytes([]byte("0123456789")[:9]); !errors.Is(err, ErrInvalidName) {
		t.Errorf("short bytes: %v", err)
	}
	if err := n.SetAt(0, 0x7F); !errors.Is(err, ErrInvalidName) {
		t.Errorf("SetAt(DEL): %v", err)
	}
	if err := n.SetAt(0, 'B'); err != nil || n.At(0) != 'B' {
		t.Errorf("SetAt('B') = %v, At(0) = %q", err, n.At(0))
	}

	data, _ := json.Marshal(n)
	var back Name
	if err := json.Unmarshal(data, &back); err != nil || back != n {
		t.Errorf("JSON round trip = %q, %v", back.String(), err)
	}
}

func TestDumpRequest(t *testing.T) {
	frame, err := EncodeDumpRequest(nil, ManufacturerYamaha, 5, 0x09)
	if err != nil {
		t.Fatalf("EncodeDumpRequest: %v", err)
	}
	if want := []byte{0xF0, 0x43, 0x25, 0x09, 0xF7}; !bytes.Equal(frame, want) {
		t.Fatalf("frame = % X, want % X", frame, want)
	}

	req, err := DecodeDumpRequest(frame, ManufacturerYamaha)
	if err != nil {
		t.Fatalf("DecodeDumpRequest: %v", err)
	}
	if req != (DumpRequest{Manufacturer: ManufacturerYamaha, Device: 5, Format: 0x09}) {
		t.Errorf("DecodeDumpRequest = %+v", req)
	}

	for _, bad := range []struct {
		manufacturer, device, format byte
	}{
		{0x80, 0, 0},
		{ManufacturerYamaha, 16, 0},
		{ManufacturerYamaha, 0, 0x80},
	} {
		if _, err := EncodeDumpRequest(nil, bad.manufacturer, bad.device, bad.format); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("EncodeDumpRequest(%+v) = %v, want ErrOutOfRange", bad, err)
		}
	}
}

func TestDecodeDumpRequestRejects(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"short", []byte{0xF0, 0x43, 0x20, 0xF7}},
		{"unterminated", []byte{0xF0, 0x43, 0x20, 0x09, 0x00}},
		{"status in body", []byte{0xF0, 0x43, 0x20, 0x89, 0xF7}},
		{"other manufacturer", []byte{0xF0, 0x41, 0x20, 0x09, 0xF7}},
		{"parameter change", []byte{0xF0, 0x43, 0x10, 0x09, 0xF7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeDumpRequest(tt.frame, ManufacturerYamaha); !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("DecodeDumpRequest(% X) = %v, want ErrMalformedFrame", tt.frame, err)
			}
		})
	}
}
