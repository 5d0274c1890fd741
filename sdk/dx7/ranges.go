// Package dx7 encodes and decodes Yamaha DX7 voice data: addressed
// parameter changes, single-voice dumps and 32-voice bank dumps. It also
// drives the synthesizer's front panel remotely to store voices and
// request bank transmissions.
//
// Every numeric field is a bounded.Value whose range is the field's legal
// domain on the wire, so an out-of-range value cannot reach the encoder.
package dx7

import "github.com/leandrodaf/midispec/sdk/bounded"

// LevelRange is the 0..99 domain shared by envelopes, depths and LFO settings.
type LevelRange struct{}

func (LevelRange) Min() uint8     { return 0 }
func (LevelRange) Max() uint8     { return 99 }
func (LevelRange) Default() uint8 { return 0 }

// OutputLevelRange is 0..99 with the default at full level.
type OutputLevelRange struct{}

func (OutputLevelRange) Min() uint8     { return 0 }
func (OutputLevelRange) Max() uint8     { return 99 }
func (OutputLevelRange) Default() uint8 { return 99 }

type RateScalingRange struct{}

func (RateScalingRange) Min() uint8     { return 0 }
func (RateScalingRange) Max() uint8     { return 7 }
func (RateScalingRange) Default() uint8 { return 0 }

type AmpModSensitivityRange struct{}

func (AmpModSensitivityRange) Min() uint8     { return 0 }
func (AmpModSensitivityRange) Max() uint8     { return 3 }
func (AmpModSensitivityRange) Default() uint8 { return 0 }

type VelocitySensitivityRange struct{}

func (VelocitySensitivityRange) Min() uint8     { return 0 }
func (VelocitySensitivityRange) Max() uint8     { return 7 }
func (VelocitySensitivityRange) Default() uint8 { return 0 }

type FrequencyCoarseRange struct{}

func (FrequencyCoarseRange) Min() uint8     { return 0 }
func (FrequencyCoarseRange) Max() uint8     { return 31 }
func (FrequencyCoarseRange) Default() uint8 { return 1 }

// DetuneRange is 0..14 where 7 is no detune.
type DetuneRange struct{}

func (DetuneRange) Min() uint8     { return 0 }
func (DetuneRange) Max() uint8     { return 14 }
func (DetuneRange) Default() uint8 { return 7 }

// AlgorithmRange holds algorithms 1..32 as 0..31.
type AlgorithmRange struct{}

func (AlgorithmRange) Min() uint8     { return 0 }
func (AlgorithmRange) Max() uint8     { return 31 }
func (AlgorithmRange) Default() uint8 { return 0 }

type FeedbackRange struct{}

func (FeedbackRange) Min() uint8     { return 0 }
func (FeedbackRange) Max() uint8     { return 7 }
func (FeedbackRange) Default() uint8 { return 0 }

type PitchModSensitivityRange struct{}

func (PitchModSensitivityRange) Min() uint8     { return 0 }
func (PitchModSensitivityRange) Max() uint8     { return 7 }
func (PitchModSensitivityRange) Default() uint8 { return 0 }

// TransposeRange is ±2 octaves in semitones around C3.
type TransposeRange struct{}

func (TransposeRange) Min() int8     { return -24 }
func (TransposeRange) Max() int8     { return 24 }
func (TransposeRange) Default() int8 { return 0 }

// OperatorMaskRange is the operator on/off bitmap, bit 5 for OP1 down to
// bit 0 for OP6. All operators are on by default.
type OperatorMaskRange struct{}

func (OperatorMaskRange) Min() uint8     { return 0 }
func (OperatorMaskRange) Max() uint8     { return 0x3F }
func (OperatorMaskRange) Default() uint8 { return 0x3F }

type BendRange struct{}

func (BendRange) Min() uint8     { return 0 }
func (BendRange) Max() uint8     { return 12 }
func (BendRange) Default() uint8 { return 2 }

// AssignRange is a controller routing bitmap: bit 0 pitch, bit 1
// amplitude, bit 2 EG bias.
type AssignRange struct{}

func (AssignRange) Min() uint8     { return 0 }
func (AssignRange) Max() uint8     { return 7 }
func (AssignRange) Default() uint8 { return 0 }

// OpRange indexes the six operators: 0 is OP1, 5 is OP6.
type OpRange struct{}

func (OpRange) Min() uint8     { return 0 }
func (OpRange) Max() uint8     { return 5 }
func (OpRange) Default() uint8 { return 0 }

// DeviceRange is the MIDI basic channel the synthesizer answers on, 0..15.
type DeviceRange struct{}

func (DeviceRange) Min() uint8     { return 0 }
func (DeviceRange) Max() uint8     { return 15 }
func (DeviceRange) Default() uint8 { return 0 }

// SlotRange addresses the 32 internal voice memories.
type SlotRange struct{}

func (SlotRange) Min() uint8     { return 0 }
func (SlotRange) Max() uint8     { return 31 }
func (SlotRange) Default() uint8 { return 0 }

type (
	Level               = bounded.Value[uint8, LevelRange]
	OutputLevel         = bounded.Value[uint8, OutputLevelRange]
	RateScaling         = bounded.Value[uint8, RateScalingRange]
	AmpModSensitivity   = bounded.Value[uint8, AmpModSensitivityRange]
	VelocitySensitivity = bounded.Value[uint8, VelocitySensitivityRange]
	FrequencyCoarse     = bounded.Value[uint8, FrequencyCoarseRange]
	Detune              = bounded.Value[uint8, DetuneRange]
	Algorithm           = bounded.Value[uint8, AlgorithmRange]
	Feedback            = bounded.Value[uint8, FeedbackRange]
	PitchModSensitivity = bounded.Value[uint8, PitchModSensitivityRange]
	Transpose           = bounded.Value[int8, TransposeRange]
	OperatorMask        = bounded.Value[uint8, OperatorMaskRange]
	Bend                = bounded.Value[uint8, BendRange]
	Assign              = bounded.Value[uint8, AssignRange]
	Op                  = bounded.Value[uint8, OpRange]
	Device              = bounded.Value[uint8, DeviceRange]
	Slot                = bounded.Value[uint8, SlotRange]
)

var (
	_ = bounded.MustCheck[uint8, LevelRange]()
	_ = bounded.MustCheck[uint8, OutputLevelRange]()
	_ = bounded.MustCheck[uint8, RateScalingRange]()
	_ = bounded.MustCheck[uint8, AmpModSensitivityRange]()
	_ = bounded.MustCheck[uint8, VelocitySensitivityRange]()
	_ = bounded.MustCheck[uint8, FrequencyCoarseRange]()
	_ = bounded.MustCheck[uint8, DetuneRange]()
	_ = bounded.MustCheck[uint8, AlgorithmRange]()
	_ = bounded.MustCheck[uint8, FeedbackRange]()
	_ = bounded.MustCheck[uint8, PitchModSensitivityRange]()
	_ = bounded.MustCheck[int8, TransposeRange]()
	_ = bounded.MustCheck[uint8, OperatorMaskRange]()
	_ = bounded.MustCheck[uint8, BendRange]()
	_ = bounded.MustCheck[uint8, AssignRange]()
	_ = bounded.MustCheck[uint8, OpRange]()
	_ = bounded.MustCheck[uint8, DeviceRange]()
	_ = bounded.MustCheck[uint8, SlotRange]()
)

// Operators by their front-panel names.
var (
	OP1 = bounded.Must(bounded.New[uint8, OpRange](0))
	OP2 = bounded.Must(bounded.New[uint8, OpRange](1))
	OP3 = bounded.Must(bounded.New[uint8, OpRange](2))
	OP4 = bounded.Must(bounded.New[uint8, OpRange](3))
	OP5 = bounded.Must(bounded.New[uint8, OpRange](4))
	OP6 = bounded.Must(bounded.New[uint8, OpRange](5))
)

// NewLevel is bounded.New for the 0..99 domain.
func NewLevel(v uint8) (Level, error) {
	return bounded.New[uint8, LevelRange](v)
}

// NewDevice is bounded.New for MIDI channels 0..15.
func NewDevice(v uint8) (Device, error) {
	return bounded.New[uint8, DeviceRange](v)
}

// NewSlot is bounded.New for voice memories 0..31.
func NewSlot(v uint8) (Slot, error) {
	return bounded.New[uint8, SlotRange](v)
}

// NewOp is bounded.New for operator indexes 0..5.
func NewOp(v uint8) (Op, error) {
	return bounded.New[uint8, OpRange](v)
}
