package sysex

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NameWidth is the number of characters in a voice or program name.
const NameWidth = 10

// NamePad fills the unused tail of a name.
const NamePad byte = ' '

// Name is a fixed-width name of printable ASCII characters (0x20..0x7E).
// The zero Name is blank (all padding).
type Name struct {
	// chars are stored relative to NamePad so the zero value is blank.
	chars [NameWidth]byte
}

// NewName pads s with spaces or truncates it to NameWidth characters.
// It fails when a kept character is not printable ASCII.
func NewName(s string) (Name, error) {
	if len(s) > NameWidth {
		s = s[:NameWidth]
	}
	var raw [NameWidth]byte
	for i := range raw {
		raw[i] = NamePad
	}
	copy(raw[:], s)
	return NameFromBytes(raw[:])
}

// MustName is NewName for literals; it panics on error.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// NameFromBytes builds a Name from exactly NameWidth wire bytes.
func NameFromBytes(p []byte) (Name, error) {
	if len(p) != NameWidth {
		return Name{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidName, len(p), NameWidth)
	}
	var n Name
	for i, c := range p {
		if !printable(c) {
			return Name{}, fmt.Errorf("%w: byte 0x%02X at %d", ErrInvalidName, c, i)
		}
		n.chars[i] = c - NamePad
	}
	return n, nil
}

func printable(c byte) bool {
	return c >= 0x20 && c <= 0x7E
}

// Bytes returns the padded wire representation.
func (n Name) Bytes() [NameWidth]byte {
	var out [NameWidth]byte
	for i, c := range n.chars {
		out[i] = c + NamePad
	}
	return out
}

// At returns the character at position i.
func (n Name) At(i int) byte {
	return n.chars[i] + NamePad
}

// SetAt replaces the character at position i.
func (n *Name) SetAt(i int, c byte) error {
	if i < 0 || i >= NameWidth {
		return fmt.Errorf("%w: position %d", ErrInvalidName, i)
	}
	if !printable(c) {
		return fmt.Errorf("%w: byte 0x%02X at %d", ErrInvalidName, c, i)
	}
	n.chars[i] = c - NamePad
	return nil
}

// String returns the name without trailing padding.
func (n Name) String() string {
	b := n.Bytes()
	return strings.TrimRight(string(b[:]), string(NamePad))
}

func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *Name) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := NewName(s)
	if err != nil {
		return err
	}
	*n = v
	return nil
}
