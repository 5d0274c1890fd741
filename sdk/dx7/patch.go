package dx7

import (
	"fmt"
	"math/rand"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// ScalingCurve is the keyboard level scaling curve on either side of the break point.
type ScalingCurve uint8

const (
	CurveNegativeLinear ScalingCurve = iota
	CurveNegativeExponential
	CurvePositiveExponential
	CurvePositiveLinear
	curveCount
)

func (c ScalingCurve) Valid() bool { return c < curveCount }

func (c ScalingCurve) String() string {
	switch c {
	case CurveNegativeLinear:
		return "-LIN"
	case CurveNegativeExponential:
		return "-EXP"
	case CurvePositiveExponential:
		return "+EXP"
	case CurvePositiveLinear:
		return "+LIN"
	}
	return fmt.Sprintf("ScalingCurve(%d)", uint8(c))
}

// OscillatorMode selects whether an operator tracks the keyboard.
type OscillatorMode uint8

const (
	ModeRatio OscillatorMode = iota
	ModeFixed
	modeCount
)

func (m OscillatorMode) Valid() bool { return m < modeCount }

func (m OscillatorMode) String() string {
	switch m {
	case ModeRatio:
		return "ratio"
	case ModeFixed:
		return "fixed"
	}
	return fmt.Sprintf("OscillatorMode(%d)", uint8(m))
}

type LFOWaveform uint8

const (
	WaveTriangle LFOWaveform = iota
	WaveSawDown
	WaveSawUp
	WaveSquare
	WaveSine
	WaveSampleAndHold
	waveformCount
)

func (w LFOWaveform) Valid() bool { return w < waveformCount }

func (w LFOWaveform) String() string {
	switch w {
	case WaveTriangle:
		return "triangle"
	case WaveSawDown:
		return "saw down"
	case WaveSawUp:
		return "saw up"
	case WaveSquare:
		return "square"
	case WaveSine:
		return "sine"
	case WaveSampleAndHold:
		return "sample and hold"
	}
	return fmt.Sprintf("LFOWaveform(%d)", uint8(w))
}

// Operator holds the settings of one of the six FM operators.
type Operator struct {
	EGRate              [4]Level
	EGLevel             [4]Level
	BreakPoint          Level
	LeftDepth           Level
	RightDepth          Level
	LeftCurve           ScalingCurve
	RightCurve          ScalingCurve
	RateScaling         RateScaling
	AmpModSensitivity   AmpModSensitivity
	VelocitySensitivity VelocitySensitivity
	OutputLevel         OutputLevel
	Mode                OscillatorMode
	FrequencyCoarse     FrequencyCoarse
	FrequencyFine       Level
	Detune              Detune
}

type LFO struct {
	Speed         Level
	Delay         Level
	PitchModDepth Level
	AmpModDepth   Level
	Sync          bool
	Waveform      LFOWaveform
}

// Patch is one DX7 voice. It is a plain comparable value; the zero Patch
// is valid.
type Patch struct {
	// Operators is indexed by Op: Operators[0] is OP1.
	Operators           [6]Operator
	PitchEGRate         [4]Level
	PitchEGLevel        [4]Level
	Algorithm           Algorithm
	Feedback            Feedback
	OscKeySync          bool
	LFO                 LFO
	PitchModSensitivity PitchModSensitivity
	Transpose           Transpose
	Name                sysex.Name
}

// Op returns the operator addressed by op.
func (p *Patch) Op(op Op) *Operator {
	return &p.Operators[op.Value()]
}

// Validate checks the enumerated fields. Bounded fields cannot hold an
// illegal value.
func (p *Patch) Validate() error {
	for i := range p.Operators {
		o := &p.Operators[i]
		if !o.LeftCurve.Valid() {
			return fmt.Errorf("OP%d left curve: %w", i+1, enumError(o.LeftCurve, curveCount))
		}
		if !o.RightCurve.Valid() {
			return fmt.Errorf("OP%d right curve: %w", i+1, enumError(o.RightCurve, curveCount))
		}
		if !o.Mode.Valid() {
			return fmt.Errorf("OP%d oscillator mode: %w", i+1, enumError(o.Mode, modeCount))
		}
	}
	if !p.LFO.Waveform.Valid() {
		return fmt.Errorf("LFO waveform: %w", enumError(p.LFO.Waveform, waveformCount))
	}
	return nil
}

func enumError[E ~uint8](v, count E) error {
	return &bounded.RangeError{Value: uint8(v), Min: uint8(0), Max: uint8(count - 1)}
}

// InitVoice returns the voice the synthesizer loads on VOICE INIT.
func InitVoice() Patch {
	var p Patch
	for i := range p.Operators {
		o := &p.Operators[i]
		for j := range o.EGRate {
			o.EGRate[j] = bounded.Must(bounded.New[uint8, LevelRange](99))
		}
		for j := 0; j < 3; j++ {
			o.EGLevel[j] = bounded.Must(bounded.New[uint8, LevelRange](99))
		}
		if i != 0 {
			o.OutputLevel = bounded.Must(bounded.New[uint8, OutputLevelRange](0))
		}
	}
	for j := range p.PitchEGRate {
		p.PitchEGRate[j] = bounded.Must(bounded.New[uint8, LevelRange](99))
		p.PitchEGLevel[j] = bounded.Must(bounded.New[uint8, LevelRange](50))
	}
	p.OscKeySync = true
	p.LFO.Speed = bounded.Must(bounded.New[uint8, LevelRange](35))
	p.LFO.Sync = true
	p.PitchModSensitivity = bounded.Must(bounded.New[uint8, PitchModSensitivityRange](3))
	p.Name = sysex.MustName("INIT VOICE")
	return p
}

// RandomPatch returns a voice with every field drawn uniformly from its
// domain and a printable random name.
func RandomPatch(rng *rand.Rand) Patch {
	var p Patch
	for i := range p.Operators {
		o := &p.Operators[i]
		for j := 0; j < 4; j++ {
			o.EGRate[j] = bounded.Random[uint8, LevelRange](rng)
			o.EGLevel[j] = bounded.Random[uint8, LevelRange](rng)
		}
		o.BreakPoint = bounded.Random[uint8, LevelRange](rng)
		o.LeftDepth = bounded.Random[uint8, LevelRange](rng)
		o.RightDepth = bounded.Random[uint8, LevelRange](rng)
		o.LeftCurve = ScalingCurve(rng.Intn(int(curveCount)))
		o.RightCurve = ScalingCurve(rng.Intn(int(curveCount)))
		o.RateScaling = bounded.Random[uint8, RateScalingRange](rng)
		o.AmpModSensitivity = bounded.Random[uint8, AmpModSensitivityRange](rng)
		o.VelocitySensitivity = bounded.Random[uint8, VelocitySensitivityRange](rng)
		o.OutputLevel = bounded.Random[uint8, OutputLevelRange](rng)
		o.Mode = OscillatorMode(rng.Intn(int(modeCount)))
		o.FrequencyCoarse = bounded.Random[uint8, FrequencyCoarseRange](rng)
		o.FrequencyFine = bounded.Random[uint8, LevelRange](rng)
		o.Detune = bounded.Random[uint8, DetuneRange](rng)
	}
	for j := 0; j < 4; j++ {
		p.PitchEGRate[j] = bounded.Random[uint8, LevelRange](rng)
		p.PitchEGLevel[j] = bounded.Random[uint8, LevelRange](rng)
	}
	p.Algorithm = bounded.Random[uint8, AlgorithmRange](rng)
	p.Feedback = bounded.Random[uint8, FeedbackRange](rng)
	p.OscKeySync = rng.Intn(2) == 1
	p.LFO = LFO{
		Speed:         bounded.Random[uint8, LevelRange](rng),
		Delay:         bounded.Random[uint8, LevelRange](rng),
		PitchModDepth: bounded.Random[uint8, LevelRange](rng),
		AmpModDepth:   bounded.Random[uint8, LevelRange](rng),
		Sync:          rng.Intn(2) == 1,
		Waveform:      LFOWaveform(rng.Intn(int(waveformCount))),
	}
	p.PitchModSensitivity = bounded.Random[uint8, PitchModSensitivityRange](rng)
	p.Transpose = bounded.Random[int8, TransposeRange](rng)
	for i := 0; i < sysex.NameWidth; i++ {
		_ = p.Name.SetAt(i, byte(0x20+rng.Intn(0x5F)))
	}
	return p
}

// Bank is the 32-voice internal memory.
type Bank [32]Patch

func (b *Bank) At(s Slot) *Patch {
	return &b[s.Value()]
}

func (b *Bank) Set(s Slot, p Patch) {
	b[s.Value()] = p
}

// Validate checks every voice in the bank.
func (b *Bank) Validate() error {
	for i := range b {
		if err := b[i].Validate(); err != nil {
			return fmt.Errorf("voice %d: %w", i+1, err)
		}
	}
	return nil
}
