// Package spx90 encodes and decodes Yamaha SPX90 effect programs.
//
// A Program is one of fifteen concrete types, one per effect algorithm;
// the algorithm travels as a kind tag in front of the program's fields.
package spx90

import (
	"fmt"

	"github.com/leandrodaf/midispec/sdk/bounded"
)

// Kind tags the effect algorithm of a program.
type Kind uint8

const (
	KindReverbHall Kind = iota
	KindReverbRoom
	KindReverbPlate
	KindEarlyReflections
	KindGateReverb
	KindChorus
	KindFlanger
	KindPhaser
	KindTremolo
	KindVibrato
	KindSymphonic
	KindDelay
	KindEcho
	KindPitchChange
	KindFreeze
	kindCount
)

var kindNames = [kindCount]string{
	"reverb hall",
	"reverb room",
	"reverb plate",
	"early reflections",
	"gate reverb",
	"chorus",
	"flanger",
	"phaser",
	"tremolo",
	"vibrato",
	"symphonic",
	"delay",
	"echo",
	"pitch change",
	"freeze",
}

func (k Kind) Valid() bool { return k < kindCount }

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds lists every program kind in tag order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

type StereoMode uint8

const (
	StereoMono StereoMode = iota
	StereoStereo
	StereoPingPong
	stereoModeCount
)

func (m StereoMode) Valid() bool { return m < stereoModeCount }

// PhaseRelation is the modulation phase between the two channels.
type PhaseRelation uint8

const (
	PhaseIn PhaseRelation = iota
	PhaseQuarterTurn
	PhaseHalfTurn
	phaseRelationCount
)

func (p PhaseRelation) Valid() bool { return p < phaseRelationCount }

// FreezeTrigger selects what starts sampling in the freeze program.
type FreezeTrigger uint8

const (
	TriggerManual FreezeTrigger = iota
	TriggerMIDI
	TriggerLevel
	TriggerAuto
	freezeTriggerCount
)

func (t FreezeTrigger) Valid() bool { return t < freezeTriggerCount }

type ParamRange struct{}

func (ParamRange) Min() uint8     { return 0 }
func (ParamRange) Max() uint8     { return 99 }
func (ParamRange) Default() uint8 { return 0 }

// LevelRange is the mix domain, full wet and full output by default.
type LevelRange struct{}

func (LevelRange) Min() uint8     { return 0 }
func (LevelRange) Max() uint8     { return 99 }
func (LevelRange) Default() uint8 { return 99 }

// CoarseRange is the pitch shift in semitones.
type CoarseRange struct{}

func (CoarseRange) Min() int8     { return -12 }
func (CoarseRange) Max() int8     { return 12 }
func (CoarseRange) Default() int8 { return 0 }

// FineRange is the pitch shift in cents.
type FineRange struct{}

func (FineRange) Min() int16     { return -100 }
func (FineRange) Max() int16     { return 100 }
func (FineRange) Default() int16 { return 0 }

type DeviceRange struct{}

func (DeviceRange) Min() uint8     { return 0 }
func (DeviceRange) Max() uint8     { return 15 }
func (DeviceRange) Default() uint8 { return 0 }

type (
	Param  = bounded.Value[uint8, ParamRange]
	Level  = bounded.Value[uint8, LevelRange]
	Coarse = bounded.Value[int8, CoarseRange]
	Fine   = bounded.Value[int16, FineRange]
	Device = bounded.Value[uint8, DeviceRange]
)

var (
	_ = bounded.MustCheck[uint8, ParamRange]()
	_ = bounded.MustCheck[uint8, LevelRange]()
	_ = bounded.MustCheck[int8, CoarseRange]()
	_ = bounded.MustCheck[int16, FineRange]()
	_ = bounded.MustCheck[uint8, DeviceRange]()
)
