// Package bounded provides integer values that can only hold numbers inside a
// closed interval declared by their type.
//
// A range is declared once as a zero-size struct type:
//
//	type Percent struct{}
//
//	func (Percent) Min() uint8     { return 0 }
//	func (Percent) Max() uint8     { return 99 }
//	func (Percent) Default() uint8 { return 99 }
//
//	var _ = bounded.MustCheck[uint8, Percent]()
//
// and values are built with New (range-checked), Clamped (saturating) or
// Default. The zero Value holds the range default.
package bounded

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"math/rand"
)

// Integer is the set of underlying types a Value can hold.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Range declares the inclusive bounds and the default of a Value.
type Range[T Integer] interface {
	Min() T
	Max() T
	Default() T
}

// Value holds a T constrained to [R.Min(), R.Max()].
//
// The value is stored as a wrapping offset from R.Default(), so the zero
// Value is the default and every legal number has exactly one
// representation. Values are comparable with == when they share T and R.
type Value[T Integer, R Range[T]] struct {
	off T
}

// Check reports whether the range R is well formed: Min <= Max and the
// default lies inside the bounds.
func Check[T Integer, R Range[T]]() error {
	var r R
	if r.Min() > r.Max() {
		return fmt.Errorf("%w: min %v greater than max %v", ErrInvalidRange, r.Min(), r.Max())
	}
	if r.Default() < r.Min() || r.Default() > r.Max() {
		return fmt.Errorf("%w: default %v outside [%v, %v]", ErrInvalidRange, r.Default(), r.Min(), r.Max())
	}
	return nil
}

// MustCheck is Check for package-level declarations; it panics on a malformed range.
func MustCheck[T Integer, R Range[T]]() struct{} {
	if err := Check[T, R](); err != nil {
		panic(err)
	}
	return struct{}{}
}

// New returns v as a Value, or a *RangeError when v is outside the range.
func New[T Integer, R Range[T]](v T) (Value[T, R], error) {
	var r R
	if v < r.Min() || v > r.Max() {
		return Value[T, R]{}, &RangeError{Value: v, Min: r.Min(), Max: r.Max()}
	}
	return wrap[T, R](v), nil
}

// Clamped returns v saturated to the range. It never fails.
func Clamped[T Integer, R Range[T]](v T) Value[T, R] {
	var r R
	switch {
	case v < r.Min():
		v = r.Min()
	case v > r.Max():
		v = r.Max()
	}
	return wrap[T, R](v)
}

// Default returns the declared default of R.
func Default[T Integer, R Range[T]]() Value[T, R] {
	return Value[T, R]{}
}

// Random returns a value drawn uniformly from the range.
func Random[T Integer, R Range[T]](rng *rand.Rand) Value[T, R] {
	var r R
	// uint64 conversion sign-extends, so the modular difference is the span
	// for signed and unsigned T alike.
	span := uint64(r.Max()) - uint64(r.Min())

	var off uint64
	switch {
	case span == 0:
	case span < math.MaxInt64:
		off = uint64(rng.Int63n(int64(span) + 1))
	default:
		for off = rng.Uint64(); off > span; off = rng.Uint64() {
		}
	}
	return wrap[T, R](T(uint64(r.Min()) + off))
}

// Must unwraps the result of New, panicking on error.
func Must[T Integer, R Range[T]](v Value[T, R], err error) Value[T, R] {
	if err != nil {
		panic(err)
	}
	return v
}

func wrap[T Integer, R Range[T]](v T) Value[T, R] {
	var r R
	return Value[T, R]{off: v - r.Default()}
}

// Value returns the underlying number.
func (v Value[T, R]) Value() T {
	var r R
	return r.Default() + v.off
}

// Min returns the lower bound of the range.
func (Value[T, R]) Min() T {
	var r R
	return r.Min()
}

// Max returns the upper bound of the range.
func (Value[T, R]) Max() T {
	var r R
	return r.Max()
}

// Set assigns x, leaving v untouched when x is out of range.
func (v *Value[T, R]) Set(x T) error {
	nv, err := New[T, R](x)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}

func (v Value[T, R]) String() string {
	return fmt.Sprint(v.Value())
}

// Equal reports whether both values hold the same number.
func (v Value[T, R]) Equal(o Value[T, R]) bool {
	return v.Value() == o.Value()
}

// Less reports whether v is strictly smaller than o.
func (v Value[T, R]) Less(o Value[T, R]) bool {
	return v.Value() < o.Value()
}

// Compare returns -1, 0 or +1 as v is less than, equal to or greater than o.
func (v Value[T, R]) Compare(o Value[T, R]) int {
	a, b := v.Value(), o.Value()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Add returns v+o saturated to the range.
func (v Value[T, R]) Add(o Value[T, R]) Value[T, R] {
	if isSigned[T]() {
		return fromInt64[T, R](addInt64(int64(v.Value()), int64(o.Value())))
	}
	return fromUint64[T, R](addUint64(uint64(v.Value()), uint64(o.Value())))
}

// Sub returns v-o saturated to the range.
func (v Value[T, R]) Sub(o Value[T, R]) Value[T, R] {
	if isSigned[T]() {
		return fromInt64[T, R](subInt64(int64(v.Value()), int64(o.Value())))
	}
	return fromUint64[T, R](subUint64(uint64(v.Value()), uint64(o.Value())))
}

// Inc returns v+1 saturated to the range.
func (v Value[T, R]) Inc() Value[T, R] {
	if isSigned[T]() {
		return fromInt64[T, R](addInt64(int64(v.Value()), 1))
	}
	return fromUint64[T, R](addUint64(uint64(v.Value()), 1))
}

// Dec returns v-1 saturated to the range.
func (v Value[T, R]) Dec() Value[T, R] {
	if isSigned[T]() {
		return fromInt64[T, R](subInt64(int64(v.Value()), 1))
	}
	return fromUint64[T, R](subUint64(uint64(v.Value()), 1))
}

// MarshalJSON encodes the value as a JSON number.
func (v Value[T, R]) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

// UnmarshalJSON decodes a JSON number, rejecting out-of-range input.
func (v *Value[T, R]) UnmarshalJSON(data []byte) error {
	var x T
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	return v.Set(x)
}

func isSigned[T Integer]() bool {
	var z T
	return z-1 < z
}

func fromInt64[T Integer, R Range[T]](w int64) Value[T, R] {
	var r R
	switch {
	case w < int64(r.Min()):
		return wrap[T, R](r.Min())
	case w > int64(r.Max()):
		return wrap[T, R](r.Max())
	}
	return wrap[T, R](T(w))
}

func fromUint64[T Integer, R Range[T]](w uint64) Value[T, R] {
	var r R
	switch {
	case w < uint64(r.Min()):
		return wrap[T, R](r.Min())
	case w > uint64(r.Max()):
		return wrap[T, R](r.Max())
	}
	return wrap[T, R](T(w))
}

func addInt64(a, b int64) int64 {
	s := a + b
	switch {
	case a > 0 && b > 0 && s < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && s >= 0:
		return math.MinInt64
	}
	return s
}

func subInt64(a, b int64) int64 {
	d := a - b
	switch {
	case a >= 0 && b < 0 && d < 0:
		return math.MaxInt64
	case a < 0 && b > 0 && d >= 0:
		return math.MinInt64
	}
	return d
}

func addUint64(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return s
}

func subUint64(a, b uint64) uint64 {
	d, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0
	}
	return d
}
