package spx90

import (
	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// Program is one effect program. The concrete types are the pointer types
// declared in this package.
type Program interface {
	Kind() Kind
	// fields lists the encoded fields in wire order, bound to the receiver.
	fields() []field
	programName() *sysex.Name
}

// field is one encoded program field. wide fields take two 7-bit bytes.
type field struct {
	name string
	max  uint16
	wide bool
	get  func() uint16
	set  func(uint16) error
}

func param(name string, v *Param) field {
	return field{
		name: name,
		max:  uint16(v.Max()),
		get:  func() uint16 { return uint16(v.Value()) },
		set:  func(w uint16) error { return v.Set(uint8(w)) },
	}
}

func level(name string, v *Level) field {
	return field{
		name: name,
		max:  uint16(v.Max()),
		get:  func() uint16 { return uint16(v.Value()) },
		set:  func(w uint16) error { return v.Set(uint8(w)) },
	}
}

type enumeration interface {
	~uint8
	Valid() bool
}

func enum[E enumeration](name string, count E, v *E) field {
	return field{
		name: name,
		max:  uint16(count - 1),
		get:  func() uint16 { return uint16(*v) },
		set: func(w uint16) error {
			e := E(w)
			if w > 0xFF || !e.Valid() {
				return &bounded.RangeError{Value: w, Min: 0, Max: uint8(count - 1)}
			}
			*v = e
			return nil
		},
	}
}

// coarse is sent offset by 12.
func coarse(name string, v *Coarse) field {
	return field{
		name: name,
		max:  24,
		get:  func() uint16 { return uint16(v.Value() + 12) },
		set:  func(w uint16) error { return v.Set(int8(w) - 12) },
	}
}

// fine is sent offset by 100 and split across two bytes.
func fine(name string, v *Fine) field {
	return field{
		name: name,
		max:  200,
		wide: true,
		get:  func() uint16 { return uint16(v.Value() + 100) },
		set:  func(w uint16) error { return v.Set(int16(w) - 100) },
	}
}

func mix(balance, output *Level) []field {
	return []field{level("balance", balance), level("output level", output)}
}

type ReverbHall struct {
	Time          Param
	HighRatio     Param
	PreDelay      Param
	LowPassFilter Param
	Balance       Level
	OutputLevel   Level
	Name          sysex.Name
}

func (*ReverbHall) Kind() Kind                 { return KindReverbHall }
func (p *ReverbHall) programName() *sysex.Name { return &p.Name }
func (p *ReverbHall) fields() []field {
	return append([]field{
		param("time", &p.Time),
		param("high ratio", &p.HighRatio),
		param("pre delay", &p.PreDelay),
		param("low pass filter", &p.LowPassFilter),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type ReverbRoom struct {
	Time          Param
	HighRatio     Param
	PreDelay      Param
	RoomSize      Param
	LowPassFilter Param
	Balance       Level
	OutputLevel   Level
	Name          sysex.Name
}

func (*ReverbRoom) Kind() Kind                 { return KindReverbRoom }
func (p *ReverbRoom) programName() *sysex.Name { return &p.Name }
func (p *ReverbRoom) fields() []field {
	return append([]field{
		param("time", &p.Time),
		param("high ratio", &p.HighRatio),
		param("pre delay", &p.PreDelay),
		param("room size", &p.RoomSize),
		param("low pass filter", &p.LowPassFilter),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type ReverbPlate struct {
	Time          Param
	HighRatio     Param
	PreDelay      Param
	Diffusion     Param
	LowPassFilter Param
	Balance       Level
	OutputLevel   Level
	Name          sysex.Name
}

func (*ReverbPlate) Kind() Kind                 { return KindReverbPlate }
func (p *ReverbPlate) programName() *sysex.Name { return &p.Name }
func (p *ReverbPlate) fields() []field {
	return append([]field{
		param("time", &p.Time),
		param("high ratio", &p.HighRatio),
		param("pre delay", &p.PreDelay),
		param("diffusion", &p.Diffusion),
		param("low pass filter", &p.LowPassFilter),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type EarlyReflections struct {
	Delay         Param
	RoomSize      Param
	LowPassFilter Param
	Balance       Level
	OutputLevel   Level
	Name          sysex.Name
}

func (*EarlyReflections) Kind() Kind                 { return KindEarlyReflections }
func (p *EarlyReflections) programName() *sysex.Name { return &p.Name }
func (p *EarlyReflections) fields() []field {
	return append([]field{
		param("delay", &p.Delay),
		param("room size", &p.RoomSize),
		param("low pass filter", &p.LowPassFilter),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type GateReverb struct {
	GateTime      Param
	Character     Param
	PreDelay      Param
	LowPassFilter Param
	Balance       Level
	OutputLevel   Level
	Name          sysex.Name
}

func (*GateReverb) Kind() Kind                 { return KindGateReverb }
func (p *GateReverb) programName() *sysex.Name { return &p.Name }
func (p *GateReverb) fields() []field {
	return append([]field{
		param("gate time", &p.GateTime),
		param("character", &p.Character),
		param("pre delay", &p.PreDelay),
		param("low pass filter", &p.LowPassFilter),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Chorus struct {
	Speed       Param
	Depth       Param
	Delay       Param
	Phase       PhaseRelation
	Balance     Level
	OutputLevel Level
	Name        sysex.Name
}

func (*Chorus) Kind() Kind                 { return KindChorus }
func (p *Chorus) programName() *sysex.Name { return &p.Name }
func (p *Chorus) fields() []field {
	return append([]field{
		param("speed", &p.Speed),
		param("depth", &p.Depth),
		param("delay", &p.Delay),
		enum("phase", phaseRelationCount, &p.Phase),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Flanger struct {
	Speed        Param
	Depth        Param
	Delay        Param
	FeedbackGain Param
	Manual       Param
	Balance      Level
	OutputLevel  Level
	Name         sysex.Name
}

func (*Flanger) Kind() Kind                 { return KindFlanger }
func (p *Flanger) programName() *sysex.Name { return &p.Name }
func (p *Flanger) fields() []field {
	return append([]field{
		param("speed", &p.Speed),
		param("depth", &p.Depth),
		param("delay", &p.Delay),
		param("feedback gain", &p.FeedbackGain),
		param("manual", &p.Manual),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Phaser struct {
	Speed        Param
	Depth        Param
	DelayTime    Param
	FeedbackGain Param
	Balance      Level
	OutputLevel  Level
	Name         sysex.Name
}

func (*Phaser) Kind() Kind                 { return KindPhaser }
func (p *Phaser) programName() *sysex.Name { return &p.Name }
func (p *Phaser) fields() []field {
	return append([]field{
		param("speed", &p.Speed),
		param("depth", &p.Depth),
		param("delay time", &p.DelayTime),
		param("feedback gain", &p.FeedbackGain),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Tremolo struct {
	Speed       Param
	Depth       Param
	Balance     Level
	OutputLevel Level
	Name        sysex.Name
}

func (*Tremolo) Kind() Kind                 { return KindTremolo }
func (p *Tremolo) programName() *sysex.Name { return &p.Name }
func (p *Tremolo) fields() []field {
	return append([]field{
		param("speed", &p.Speed),
		param("depth", &p.Depth),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Vibrato struct {
	Speed       Param
	Depth       Param
	Balance     Level
	OutputLevel Level
	Name        sysex.Name
}

func (*Vibrato) Kind() Kind                 { return KindVibrato }
func (p *Vibrato) programName() *sysex.Name { return &p.Name }
func (p *Vibrato) fields() []field {
	return append([]field{
		param("speed", &p.Speed),
		param("depth", &p.Depth),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Symphonic struct {
	Speed       Param
	Depth       Param
	Detune      Param
	Balance     Level
	OutputLevel Level
	Name        sysex.Name
}

func (*Symphonic) Kind() Kind                 { return KindSymphonic }
func (p *Symphonic) programName() *sysex.Name { return &p.Name }
func (p *Symphonic) fields() []field {
	return append([]field{
		param("speed", &p.Speed),
		param("depth", &p.Depth),
		param("detune", &p.Detune),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Delay struct {
	Mode          StereoMode
	DelayTime     Param
	Feedback      Param
	HighPass      Param
	LowPassFilter Param
	ModSpeed      Param
	ModDepth      Param
	Balance       Level
	OutputLevel   Level
	Name          sysex.Name
}

func (*Delay) Kind() Kind                 { return KindDelay }
func (p *Delay) programName() *sysex.Name { return &p.Name }
func (p *Delay) fields() []field {
	return append([]field{
		enum("mode", stereoModeCount, &p.Mode),
		param("delay time", &p.DelayTime),
		param("feedback", &p.Feedback),
		param("high pass filter", &p.HighPass),
		param("low pass filter", &p.LowPassFilter),
		param("mod speed", &p.ModSpeed),
		param("mod depth", &p.ModDepth),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Echo struct {
	Mode           StereoMode
	DelayTimeLeft  Param
	DelayTimeRight Param
	Feedback       Param
	LowPassFilter  Param
	Balance        Level
	OutputLevel    Level
	Name           sysex.Name
}

func (*Echo) Kind() Kind                 { return KindEcho }
func (p *Echo) programName() *sysex.Name { return &p.Name }
func (p *Echo) fields() []field {
	return append([]field{
		enum("mode", stereoModeCount, &p.Mode),
		param("delay time left", &p.DelayTimeLeft),
		param("delay time right", &p.DelayTimeRight),
		param("feedback", &p.Feedback),
		param("low pass filter", &p.LowPassFilter),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type PitchChange struct {
	Coarse      Coarse
	Fine        Fine
	Delay       Param
	Tone        Param
	Balance     Level
	OutputLevel Level
	Name        sysex.Name
}

func (*PitchChange) Kind() Kind                 { return KindPitchChange }
func (p *PitchChange) programName() *sysex.Name { return &p.Name }
func (p *PitchChange) fields() []field {
	return append([]field{
		coarse("coarse", &p.Coarse),
		fine("fine", &p.Fine),
		param("delay", &p.Delay),
		param("tone", &p.Tone),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

type Freeze struct {
	Trigger     FreezeTrigger
	Length      Param
	LowPass     Param
	Balance     Level
	OutputLevel Level
	Name        sysex.Name
}

func (*Freeze) Kind() Kind                 { return KindFreeze }
func (p *Freeze) programName() *sysex.Name { return &p.Name }
func (p *Freeze) fields() []field {
	return append([]field{
		enum("trigger", freezeTriggerCount, &p.Trigger),
		param("length", &p.Length),
		param("low pass filter", &p.LowPass),
	}, mix(&p.Balance, &p.OutputLevel)...)
}

// New returns a zero program of kind k.
func New(k Kind) (Program, error) {
	switch k {
	case KindReverbHall:
		return &ReverbHall{}, nil
	case KindReverbRoom:
		return &ReverbRoom{}, nil
	case KindReverbPlate:
		return &ReverbPlate{}, nil
	case KindEarlyReflections:
		return &EarlyReflections{}, nil
	case KindGateReverb:
		return &GateReverb{}, nil
	case KindChorus:
		return &Chorus{}, nil
	case KindFlanger:
		return &Flanger{}, nil
	case KindPhaser:
		return &Phaser{}, nil
	case KindTremolo:
		return &Tremolo{}, nil
	case KindVibrato:
		return &Vibrato{}, nil
	case KindSymphonic:
		return &Symphonic{}, nil
	case KindDelay:
		return &Delay{}, nil
	case KindEcho:
		return &Echo{}, nil
	case KindPitchChange:
		return &PitchChange{}, nil
	case KindFreeze:
		return &Freeze{}, nil
	}
	return nil, &bounded.RangeError{Value: uint8(k), Min: uint8(0), Max: uint8(kindCount - 1)}
}

// Name returns the program name.
func Name(p Program) sysex.Name {
	return *p.programName()
}

// SetName replaces the program name.
func SetName(p Program, n sysex.Name) {
	*p.programName() = n
}

// Fields returns the names of k's fields in wire order; the index of a
// name is its field number.
func Fields(k Kind) ([]string, error) {
	p, err := New(k)
	if err != nil {
		return nil, err
	}
	fs := p.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out, nil
}
