package dx7

import (
	"fmt"

	"github.com/leandrodaf/midispec/sdk/bounded"
)

// PortamentoMode is how portamento behaves on overlapping keys.
type PortamentoMode uint8

const (
	PortamentoRetain PortamentoMode = iota
	PortamentoFollow
	portamentoModeCount
)

func (m PortamentoMode) Valid() bool { return m < portamentoModeCount }

func (m PortamentoMode) String() string {
	switch m {
	case PortamentoRetain:
		return "retain"
	case PortamentoFollow:
		return "follow"
	}
	return fmt.Sprintf("PortamentoMode(%d)", uint8(m))
}

// Controller routes a performance controller to pitch, amplitude or EG bias.
type Controller struct {
	Range  Level
	Assign Assign
}

// FunctionBlock holds the performance settings of the function mode. They
// are global to the instrument and travel only as parameter changes.
type FunctionBlock struct {
	Mono           bool
	PitchBendRange Bend
	PitchBendStep  Bend
	PortamentoMode PortamentoMode
	Glissando      bool
	PortamentoTime Level
	ModWheel       Controller
	Foot           Controller
	Breath         Controller
	Aftertouch     Controller
}

// Function parameter numbers in GroupFunction.
const (
	functionBase  = 64
	functionCount = 14
)

func fbRef[V any](sel func(fb *FunctionBlock) *V) func(*FunctionBlock, int) *V {
	return func(fb *FunctionBlock, _ int) *V { return sel(fb) }
}

var functionFields = [functionCount]field[FunctionBlock]{
	switchField("mono", fbRef(func(fb *FunctionBlock) *bool { return &fb.Mono })),
	boundedField("pitch bend range", fbRef(func(fb *FunctionBlock) *Bend { return &fb.PitchBendRange })),
	boundedField("pitch bend step", fbRef(func(fb *FunctionBlock) *Bend { return &fb.PitchBendStep })),
	enumField("portamento mode", portamentoModeCount, fbRef(func(fb *FunctionBlock) *PortamentoMode { return &fb.PortamentoMode })),
	switchField("glissando", fbRef(func(fb *FunctionBlock) *bool { return &fb.Glissando })),
	boundedField("portamento time", fbRef(func(fb *FunctionBlock) *Level { return &fb.PortamentoTime })),
	boundedField("mod wheel range", fbRef(func(fb *FunctionBlock) *Level { return &fb.ModWheel.Range })),
	boundedField("mod wheel assign", fbRef(func(fb *FunctionBlock) *Assign { return &fb.ModWheel.Assign })),
	boundedField("foot controller range", fbRef(func(fb *FunctionBlock) *Level { return &fb.Foot.Range })),
	boundedField("foot controller assign", fbRef(func(fb *FunctionBlock) *Assign { return &fb.Foot.Assign })),
	boundedField("breath controller range", fbRef(func(fb *FunctionBlock) *Level { return &fb.Breath.Range })),
	boundedField("breath controller assign", fbRef(func(fb *FunctionBlock) *Assign { return &fb.Breath.Assign })),
	boundedField("aftertouch range", fbRef(func(fb *FunctionBlock) *Level { return &fb.Aftertouch.Range })),
	boundedField("aftertouch assign", fbRef(func(fb *FunctionBlock) *Assign { return &fb.Aftertouch.Assign })),
}

func functionField(number int) (field[FunctionBlock], bool) {
	if number < functionBase || number >= functionBase+functionCount {
		return field[FunctionBlock]{}, false
	}
	return functionFields[number-functionBase], true
}

// Validate checks the enumerated fields.
func (fb *FunctionBlock) Validate() error {
	if !fb.PortamentoMode.Valid() {
		return fmt.Errorf("portamento mode: %w", enumError(fb.PortamentoMode, portamentoModeCount))
	}
	return nil
}

// ParameterChanges encodes the whole function block as one parameter
// change per setting.
func (fb *FunctionBlock) ParameterChanges(dev Device) ([][]byte, error) {
	if err := fb.Validate(); err != nil {
		return nil, err
	}
	out := make([][]byte, 0, functionCount)
	for i, f := range functionFields {
		out = append(out, encodeChange(nil, dev, GroupFunction, functionBase+i, f.get(fb, 0)))
	}
	return out, nil
}

// Front-panel buttons share GroupFunction with the function parameters.
const (
	buttonStore                  = 32
	buttonMemoryProtectInternal  = 33
	buttonMemoryProtectCartridge = 34
	buttonOperatorSelect         = 35
	buttonEditCompare            = 36
	buttonMemorySelectInternal   = 37
	buttonMemorySelectCartridge  = 38
	buttonFunction               = 39
	buttonNo                     = 40
	buttonYes                    = 41

	buttonPressed  byte = 0x7F
	buttonReleased byte = 0x00
)

// Button is a front-panel switch that can be pressed remotely.
type Button struct {
	number int
}

var (
	ButtonStore                  = Button{buttonStore}
	ButtonMemoryProtectInternal  = Button{buttonMemoryProtectInternal}
	ButtonMemoryProtectCartridge = Button{buttonMemoryProtectCartridge}
	ButtonOperatorSelect         = Button{buttonOperatorSelect}
	ButtonEditCompare            = Button{buttonEditCompare}
	ButtonMemorySelectInternal   = Button{buttonMemorySelectInternal}
	ButtonMemorySelectCartridge  = Button{buttonMemorySelectCartridge}
	ButtonFunction               = Button{buttonFunction}
	ButtonNo                     = Button{buttonNo}
	ButtonYes                    = Button{buttonYes}
)

// VoiceButton returns the numbered button for slot s. Buttons 1..32 select
// voices and, in function mode, functions.
func VoiceButton(s Slot) Button {
	return Button{int(s.Value())}
}

// NumberedButton returns button n, 1..32, as printed on the panel.
func NumberedButton(n int) (Button, error) {
	if n < 1 || n > 32 {
		return Button{}, &bounded.RangeError{Value: n, Min: 1, Max: 32}
	}
	return Button{n - 1}, nil
}

func (b Button) String() string {
	switch b.number {
	case buttonStore:
		return "STORE"
	case buttonMemoryProtectInternal:
		return "MEMORY PROTECT INTERNAL"
	case buttonMemoryProtectCartridge:
		return "MEMORY PROTECT CARTRIDGE"
	case buttonOperatorSelect:
		return "OPERATOR SELECT"
	case buttonEditCompare:
		return "EDIT/COMPARE"
	case buttonMemorySelectInternal:
		return "MEMORY SELECT INTERNAL"
	case buttonMemorySelectCartridge:
		return "MEMORY SELECT CARTRIDGE"
	case buttonFunction:
		return "FUNCTION"
	case buttonNo:
		return "NO"
	case buttonYes:
		return "YES"
	}
	return fmt.Sprintf("BUTTON %d", b.number+1)
}

// Press appends the message that presses b.
func (b Button) Press(dst []byte, dev Device) []byte {
	return encodeChange(dst, dev, GroupFunction, b.number, buttonPressed)
}

// Release appends the message that releases b.
func (b Button) Release(dst []byte, dev Device) []byte {
	return encodeChange(dst, dev, GroupFunction, b.number, buttonReleased)
}

// Tap returns the press and release messages of b.
func (b Button) Tap(dev Device) [][]byte {
	return [][]byte{b.Press(nil, dev), b.Release(nil, dev)}
}
