package dx7

import (
	"fmt"

	"github.com/leandrodaf/midispec/sdk/bounded"
)

// Voice parameter numbering. Operator-scoped parameters repeat every
// OperatorStride numbers, OP6 first; the global block follows.
const (
	OperatorStride = 21
	globalBase     = 6 * OperatorStride
	// VoiceDataSize is the number of parameters stored in a voice.
	VoiceDataSize = 155
	// OperatorEnableNumber switches operators on and off. It is a
	// parameter change only and not part of a voice.
	OperatorEnableNumber = 155
)

// field maps one wire byte to a member of T. op is the operator index for
// operator-scoped fields and ignored otherwise. set leaves the target
// untouched when v is outside [min, max].
type field[T any] struct {
	name     string
	min, max byte
	get      func(t *T, op int) byte
	set      func(t *T, op int, v byte) error
}

type enumeration interface {
	~uint8
	Valid() bool
}

func boundedField[T any, R bounded.Range[uint8]](name string, ref func(*T, int) *bounded.Value[uint8, R]) field[T] {
	var r R
	return field[T]{
		name: name,
		min:  r.Min(),
		max:  r.Max(),
		get:  func(t *T, op int) byte { return ref(t, op).Value() },
		set:  func(t *T, op int, v byte) error { return ref(t, op).Set(v) },
	}
}

func enumField[T any, E enumeration](name string, count E, ref func(*T, int) *E) field[T] {
	return field[T]{
		name: name,
		max:  byte(count - 1),
		get:  func(t *T, op int) byte { return byte(*ref(t, op)) },
		set: func(t *T, op int, v byte) error {
			e := E(v)
			if !e.Valid() {
				return enumError(e, count)
			}
			*ref(t, op) = e
			return nil
		},
	}
}

func switchField[T any](name string, ref func(*T, int) *bool) field[T] {
	return field[T]{
		name: name,
		max:  1,
		get: func(t *T, op int) byte {
			if *ref(t, op) {
				return 1
			}
			return 0
		},
		set: func(t *T, op int, v byte) error {
			if v > 1 {
				return &bounded.RangeError{Value: v, Min: 0, Max: 1}
			}
			*ref(t, op) = v == 1
			return nil
		},
	}
}

func (f field[T]) check(v byte) error {
	if v < f.min || v > f.max {
		return fmt.Errorf("%s: %w", f.name, &bounded.RangeError{Value: v, Min: f.min, Max: f.max})
	}
	return nil
}

func opRef[V any](sel func(o *Operator) *V) func(*Patch, int) *V {
	return func(p *Patch, op int) *V { return sel(&p.Operators[op]) }
}

// operatorFields is indexed by the offset within an operator's block.
var operatorFields = [OperatorStride]field[Patch]{
	boundedField("EG rate 1", opRef(func(o *Operator) *Level { return &o.EGRate[0] })),
	boundedField("EG rate 2", opRef(func(o *Operator) *Level { return &o.EGRate[1] })),
	boundedField("EG rate 3", opRef(func(o *Operator) *Level { return &o.EGRate[2] })),
	boundedField("EG rate 4", opRef(func(o *Operator) *Level { return &o.EGRate[3] })),
	boundedField("EG level 1", opRef(func(o *Operator) *Level { return &o.EGLevel[0] })),
	boundedField("EG level 2", opRef(func(o *Operator) *Level { return &o.EGLevel[1] })),
	boundedField("EG level 3", opRef(func(o *Operator) *Level { return &o.EGLevel[2] })),
	boundedField("EG level 4", opRef(func(o *Operator) *Level { return &o.EGLevel[3] })),
	boundedField("break point", opRef(func(o *Operator) *Level { return &o.BreakPoint })),
	boundedField("left depth", opRef(func(o *Operator) *Level { return &o.LeftDepth })),
	boundedField("right depth", opRef(func(o *Operator) *Level { return &o.RightDepth })),
	enumField("left curve", curveCount, opRef(func(o *Operator) *ScalingCurve { return &o.LeftCurve })),
	enumField("right curve", curveCount, opRef(func(o *Operator) *ScalingCurve { return &o.RightCurve })),
	boundedField("rate scaling", opRef(func(o *Operator) *RateScaling { return &o.RateScaling })),
	boundedField("amp mod sensitivity", opRef(func(o *Operator) *AmpModSensitivity { return &o.AmpModSensitivity })),
	boundedField("velocity sensitivity", opRef(func(o *Operator) *VelocitySensitivity { return &o.VelocitySensitivity })),
	boundedField("output level", opRef(func(o *Operator) *OutputLevel { return &o.OutputLevel })),
	enumField("oscillator mode", modeCount, opRef(func(o *Operator) *OscillatorMode { return &o.Mode })),
	boundedField("frequency coarse", opRef(func(o *Operator) *FrequencyCoarse { return &o.FrequencyCoarse })),
	boundedField("frequency fine", opRef(func(o *Operator) *Level { return &o.FrequencyFine })),
	boundedField("detune", opRef(func(o *Operator) *Detune { return &o.Detune })),
}

// globalFields is indexed by parameter number minus globalBase.
var globalFields = append([]field[Patch]{
	boundedField("pitch EG rate 1", func(p *Patch, _ int) *Level { return &p.PitchEGRate[0] }),
	boundedField("pitch EG rate 2", func(p *Patch, _ int) *Level { return &p.PitchEGRate[1] }),
	boundedField("pitch EG rate 3", func(p *Patch, _ int) *Level { return &p.PitchEGRate[2] }),
	boundedField("pitch EG rate 4", func(p *Patch, _ int) *Level { return &p.PitchEGRate[3] }),
	boundedField("pitch EG level 1", func(p *Patch, _ int) *Level { return &p.PitchEGLevel[0] }),
	boundedField("pitch EG level 2", func(p *Patch, _ int) *Level { return &p.PitchEGLevel[1] }),
	boundedField("pitch EG level 3", func(p *Patch, _ int) *Level { return &p.PitchEGLevel[2] }),
	boundedField("pitch EG level 4", func(p *Patch, _ int) *Level { return &p.PitchEGLevel[3] }),
	boundedField("algorithm", func(p *Patch, _ int) *Algorithm { return &p.Algorithm }),
	boundedField("feedback", func(p *Patch, _ int) *Feedback { return &p.Feedback }),
	switchField("oscillator key sync", func(p *Patch, _ int) *bool { return &p.OscKeySync }),
	boundedField("LFO speed", func(p *Patch, _ int) *Level { return &p.LFO.Speed }),
	boundedField("LFO delay", func(p *Patch, _ int) *Level { return &p.LFO.Delay }),
	boundedField("LFO pitch mod depth", func(p *Patch, _ int) *Level { return &p.LFO.PitchModDepth }),
	boundedField("LFO amp mod depth", func(p *Patch, _ int) *Level { return &p.LFO.AmpModDepth }),
	switchField("LFO key sync", func(p *Patch, _ int) *bool { return &p.LFO.Sync }),
	enumField("LFO waveform", waveformCount, func(p *Patch, _ int) *LFOWaveform { return &p.LFO.Waveform }),
	boundedField("pitch mod sensitivity", func(p *Patch, _ int) *PitchModSensitivity { return &p.PitchModSensitivity }),
	transposeField,
}, nameFields()...)

// transposeField carries -24..24 as 0..48 on the wire.
var transposeField = field[Patch]{
	name: "transpose",
	max:  48,
	get:  func(p *Patch, _ int) byte { return byte(p.Transpose.Value() + 24) },
	set: func(p *Patch, _ int, v byte) error {
		if v > 48 {
			return &bounded.RangeError{Value: v, Min: 0, Max: 48}
		}
		return p.Transpose.Set(int8(v) - 24)
	},
}

func nameFields() []field[Patch] {
	out := make([]field[Patch], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		out = append(out, field[Patch]{
			name: fmt.Sprintf("name character %d", i+1),
			min:  0x20,
			max:  0x7E,
			get:  func(p *Patch, _ int) byte { return p.Name.At(i) },
			set:  func(p *Patch, _ int, v byte) error { return p.Name.SetAt(i, v) },
		})
	}
	return out
}

// operatorEnableField is the range of parameter 155; nothing in a Patch backs it.
var operatorEnableField = field[Patch]{name: "operator enable", max: 0x3F}

// voiceField resolves a voice parameter number to its field and operator.
func voiceField(number int) (field[Patch], int, bool) {
	switch {
	case number < 0:
		return field[Patch]{}, 0, false
	case number < globalBase:
		return operatorFields[number%OperatorStride], 5 - number/OperatorStride, true
	case number < VoiceDataSize:
		return globalFields[number-globalBase], 0, true
	}
	return field[Patch]{}, 0, false
}

// OperatorNumber returns the wire parameter number of offset within op's block.
func OperatorNumber(op Op, offset int) int {
	return (5-int(op.Value()))*OperatorStride + offset
}
