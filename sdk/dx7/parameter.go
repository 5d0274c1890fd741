package dx7

import (
	"fmt"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// Group is the parameter group carried in the high bits of the address byte.
type Group uint8

const (
	GroupVoice    Group = 0
	GroupFunction Group = 2
)

func (g Group) String() string {
	switch g {
	case GroupVoice:
		return "voice"
	case GroupFunction:
		return "function"
	}
	return fmt.Sprintf("Group(%d)", uint8(g))
}

// encodeChange appends a parameter change. Every argument comes from a
// bounded type or a table, so the generic encoder cannot reject it.
func encodeChange(dst []byte, dev Device, g Group, number int, data byte) []byte {
	out, err := sysex.EncodeParameterChange(dst, sysex.ManufacturerYamaha, dev.Value(), byte(g), uint16(number), data)
	if err != nil {
		panic(fmt.Sprintf("dx7: parameter %d/%d: %v", g, number, err))
	}
	return out
}

// ParameterChange is a decoded and range-checked parameter change.
type ParameterChange struct {
	Device Device
	Group  Group
	Number int
	Data   byte
}

// DecodeParameter validates frame as a DX7 parameter change: header,
// length, group, parameter number and the parameter's data range.
func DecodeParameter(frame []byte) (ParameterChange, error) {
	const op = "decode dx7 parameter"

	raw, err := sysex.DecodeParameterChange(frame, sysex.ManufacturerYamaha)
	if err != nil {
		return ParameterChange{}, err
	}
	c := ParameterChange{
		Device: bounded.Clamped[uint8, DeviceRange](raw.Device),
		Group:  Group(raw.Group),
		Number: int(raw.Parameter),
		Data:   raw.Data,
	}

	var rangeErr error
	switch c.Group {
	case GroupVoice:
		switch f, _, ok := voiceField(c.Number); {
		case ok:
			rangeErr = f.check(c.Data)
		case c.Number == OperatorEnableNumber:
			rangeErr = operatorEnableField.check(c.Data)
		default:
			return ParameterChange{}, sysex.Malformed(op, "unknown voice parameter %d", c.Number)
		}
	case GroupFunction:
		if f, ok := functionField(c.Number); ok {
			rangeErr = f.check(c.Data)
			break
		}
		if c.Number > buttonYes {
			return ParameterChange{}, sysex.Malformed(op, "unknown function parameter %d", c.Number)
		}
		if c.Data != buttonPressed && c.Data != buttonReleased {
			return ParameterChange{}, sysex.Malformed(op, "button %d state 0x%02X", c.Number, c.Data)
		}
	default:
		return ParameterChange{}, sysex.Malformed(op, "unsupported parameter group %d", c.Group)
	}
	if rangeErr != nil {
		return ParameterChange{}, sysex.Malformed(op, "%v", rangeErr)
	}
	return c, nil
}

// Operator reports the operator an operator-scoped voice parameter addresses.
func (c ParameterChange) Operator() (Op, bool) {
	if c.Group != GroupVoice || c.Number >= globalBase {
		return Op{}, false
	}
	return bounded.Clamped[uint8, OpRange](uint8(5 - c.Number/OperatorStride)), true
}

// Offset returns the parameter's offset inside an operator block, or the
// parameter number for everything else.
func (c ParameterChange) Offset() int {
	if _, ok := c.Operator(); ok {
		return c.Number % OperatorStride
	}
	return c.Number
}

// IsButton reports whether c is a front-panel button event.
func (c ParameterChange) IsButton() bool {
	return c.Group == GroupFunction && c.Number <= buttonYes
}

// Name describes the addressed parameter.
func (c ParameterChange) Name() string {
	switch c.Group {
	case GroupVoice:
		if f, op, ok := voiceField(c.Number); ok {
			if c.Number < globalBase {
				return fmt.Sprintf("OP%d %s", op+1, f.name)
			}
			return f.name
		}
		if c.Number == OperatorEnableNumber {
			return operatorEnableField.name
		}
	case GroupFunction:
		if f, ok := functionField(c.Number); ok {
			return f.name
		}
		if c.IsButton() {
			return Button{c.Number}.String()
		}
	}
	return fmt.Sprintf("%s parameter %d", c.Group, c.Number)
}

// Encode appends c as a parameter-change frame.
func (c ParameterChange) Encode(dst []byte) ([]byte, error) {
	return sysex.EncodeParameterChange(dst, sysex.ManufacturerYamaha, c.Device.Value(), byte(c.Group), uint16(c.Number), c.Data)
}

// Apply writes the addressed voice parameter into p. p is left unchanged
// on error. The operator enable switch has no field in a Patch and is
// accepted without effect.
func (c ParameterChange) Apply(p *Patch) error {
	if c.Group != GroupVoice {
		return fmt.Errorf("%w: %s is not a voice parameter", sysex.ErrOutOfRange, c.Name())
	}
	if c.Number == OperatorEnableNumber {
		return operatorEnableField.check(c.Data)
	}
	f, op, ok := voiceField(c.Number)
	if !ok {
		return fmt.Errorf("%w: unknown voice parameter %d", sysex.ErrOutOfRange, c.Number)
	}
	if err := f.check(c.Data); err != nil {
		return err
	}
	return f.set(p, op, c.Data)
}

// ApplyFunction writes the addressed function parameter into fb.
func (c ParameterChange) ApplyFunction(fb *FunctionBlock) error {
	f, ok := functionField(c.Number)
	if c.Group != GroupFunction || !ok {
		return fmt.Errorf("%w: %s is not a function parameter", sysex.ErrOutOfRange, c.Name())
	}
	if err := f.check(c.Data); err != nil {
		return err
	}
	return f.set(fb, 0, c.Data)
}

// ParameterChanges encodes p as one parameter change per voice parameter,
// in parameter-number order.
func (p *Patch) ParameterChanges(dev Device) ([][]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([][]byte, 0, VoiceDataSize)
	for n := 0; n < VoiceDataSize; n++ {
		f, op, _ := voiceField(n)
		out = append(out, encodeChange(nil, dev, GroupVoice, n, f.get(p, op)))
	}
	return out, nil
}

// decodeAs decodes frame and checks that it addresses group/number.
func decodeAs(op string, frame []byte, g Group, number int) (ParameterChange, error) {
	c, err := DecodeParameter(frame)
	if err != nil {
		return ParameterChange{}, err
	}
	if c.Group != g || c.Number != number {
		return ParameterChange{}, sysex.Malformed(op, "frame addresses %s", c.Name())
	}
	return c, nil
}

func decodeOperator(op string, frame []byte, offset int) (ParameterChange, Op, error) {
	c, err := DecodeParameter(frame)
	if err != nil {
		return ParameterChange{}, Op{}, err
	}
	o, ok := c.Operator()
	if !ok || c.Offset() != offset {
		return ParameterChange{}, Op{}, sysex.Malformed(op, "frame addresses %s", c.Name())
	}
	return c, o, nil
}

// OperatorParam is an operator-scoped voice parameter whose legal domain
// is the range R.
type OperatorParam[R bounded.Range[uint8]] struct {
	offset int
}

// Number returns the wire parameter number for op.
func (d OperatorParam[R]) Number(op Op) int { return OperatorNumber(op, d.offset) }

func (d OperatorParam[R]) Encode(dst []byte, dev Device, op Op, v bounded.Value[uint8, R]) []byte {
	return encodeChange(dst, dev, GroupVoice, d.Number(op), v.Value())
}

func (d OperatorParam[R]) Decode(frame []byte) (Device, Op, bounded.Value[uint8, R], error) {
	c, op, err := decodeOperator("decode "+operatorFields[d.offset].name, frame, d.offset)
	if err != nil {
		return Device{}, Op{}, bounded.Value[uint8, R]{}, err
	}
	return c.Device, op, bounded.Clamped[uint8, R](c.Data), nil
}

// OperatorEnumParam is an operator-scoped voice parameter holding an enumeration.
type OperatorEnumParam[E enumeration] struct {
	offset int
}

func (d OperatorEnumParam[E]) Number(op Op) int { return OperatorNumber(op, d.offset) }

func (d OperatorEnumParam[E]) Encode(dst []byte, dev Device, op Op, v E) ([]byte, error) {
	f := operatorFields[d.offset]
	if !v.Valid() {
		return dst, fmt.Errorf("%s: %w", f.name, &bounded.RangeError{Value: uint8(v), Min: f.min, Max: f.max})
	}
	return encodeChange(dst, dev, GroupVoice, d.Number(op), byte(v)), nil
}

func (d OperatorEnumParam[E]) Decode(frame []byte) (Device, Op, E, error) {
	c, op, err := decodeOperator("decode "+operatorFields[d.offset].name, frame, d.offset)
	if err != nil {
		return Device{}, Op{}, 0, err
	}
	return c.Device, op, E(c.Data), nil
}

// Param is a parameter with a fixed number in group whose legal domain is
// the range R.
type Param[R bounded.Range[uint8]] struct {
	group  Group
	number int
}

func (d Param[R]) Number() int { return d.number }

func (d Param[R]) Encode(dst []byte, dev Device, v bounded.Value[uint8, R]) []byte {
	return encodeChange(dst, dev, d.group, d.number, v.Value())
}

func (d Param[R]) Decode(frame []byte) (Device, bounded.Value[uint8, R], error) {
	c, err := decodeAs("decode parameter", frame, d.group, d.number)
	if err != nil {
		return Device{}, bounded.Value[uint8, R]{}, err
	}
	return c.Device, bounded.Clamped[uint8, R](c.Data), nil
}

// EnumParam is a parameter with a fixed number holding an enumeration.
type EnumParam[E enumeration] struct {
	group  Group
	number int
}

func (d EnumParam[E]) Number() int { return d.number }

func (d EnumParam[E]) Encode(dst []byte, dev Device, v E) ([]byte, error) {
	if !v.Valid() {
		return dst, fmt.Errorf("%w: %d", sysex.ErrOutOfRange, uint8(v))
	}
	return encodeChange(dst, dev, d.group, d.number, byte(v)), nil
}

func (d EnumParam[E]) Decode(frame []byte) (Device, E, error) {
	c, err := decodeAs("decode parameter", frame, d.group, d.number)
	if err != nil {
		return Device{}, 0, err
	}
	return c.Device, E(c.Data), nil
}

// SwitchParam is an on/off parameter.
type SwitchParam struct {
	group  Group
	number int
}

func (d SwitchParam) Number() int { return d.number }

func (d SwitchParam) Encode(dst []byte, dev Device, on bool) []byte {
	var v byte
	if on {
		v = 1
	}
	return encodeChange(dst, dev, d.group, d.number, v)
}

func (d SwitchParam) Decode(frame []byte) (Device, bool, error) {
	c, err := decodeAs("decode switch", frame, d.group, d.number)
	if err != nil {
		return Device{}, false, err
	}
	return c.Device, c.Data == 1, nil
}

// TransposeParameter encodes the key transpose, sent as 0..48.
type TransposeParameter struct{}

const transposeNumber = globalBase + 18

func (TransposeParameter) Number() int { return transposeNumber }

func (TransposeParameter) Encode(dst []byte, dev Device, v Transpose) []byte {
	return encodeChange(dst, dev, GroupVoice, transposeNumber, byte(v.Value()+24))
}

func (TransposeParameter) Decode(frame []byte) (Device, Transpose, error) {
	c, err := decodeAs("decode transpose", frame, GroupVoice, transposeNumber)
	if err != nil {
		return Device{}, Transpose{}, err
	}
	return c.Device, bounded.Clamped[int8, TransposeRange](int8(c.Data) - 24), nil
}

// NameParameter encodes the voice name one character per message.
type NameParameter struct{}

const nameNumber = globalBase + 19

// Number returns the parameter number of character i, 0..9.
func (NameParameter) Number(i int) int { return nameNumber + i }

// Encode returns the ten messages that set the whole name.
func (NameParameter) Encode(dev Device, n sysex.Name) [][]byte {
	out := make([][]byte, 0, sysex.NameWidth)
	for i := 0; i < sysex.NameWidth; i++ {
		out = append(out, encodeChange(nil, dev, GroupVoice, nameNumber+i, n.At(i)))
	}
	return out
}

// EncodeChar appends the message setting character i to ch.
func (NameParameter) EncodeChar(dst []byte, dev Device, i int, ch byte) ([]byte, error) {
	var n sysex.Name
	if err := n.SetAt(i, ch); err != nil {
		return dst, err
	}
	return encodeChange(dst, dev, GroupVoice, nameNumber+i, ch), nil
}

// Decode returns the character position and value carried by frame.
func (NameParameter) Decode(frame []byte) (Device, int, byte, error) {
	c, err := DecodeParameter(frame)
	if err != nil {
		return Device{}, 0, 0, err
	}
	if c.Group != GroupVoice || c.Number < nameNumber || c.Number >= nameNumber+sysex.NameWidth {
		return Device{}, 0, 0, sysex.Malformed("decode name", "frame addresses %s", c.Name())
	}
	return c.Device, c.Number - nameNumber, c.Data, nil
}

// DecodeButton decodes a front-panel button event.
func DecodeButton(frame []byte) (Device, Button, bool, error) {
	c, err := DecodeParameter(frame)
	if err != nil {
		return Device{}, Button{}, false, err
	}
	if !c.IsButton() {
		return Device{}, Button{}, false, sysex.Malformed("decode button", "frame addresses %s", c.Name())
	}
	return c.Device, Button{c.Number}, c.Data == buttonPressed, nil
}

// Operator-scoped voice parameters.
var (
	OpEGRate1             = OperatorParam[LevelRange]{0}
	OpEGRate2             = OperatorParam[LevelRange]{1}
	OpEGRate3             = OperatorParam[LevelRange]{2}
	OpEGRate4             = OperatorParam[LevelRange]{3}
	OpEGLevel1            = OperatorParam[LevelRange]{4}
	OpEGLevel2            = OperatorParam[LevelRange]{5}
	OpEGLevel3            = OperatorParam[LevelRange]{6}
	OpEGLevel4            = OperatorParam[LevelRange]{7}
	OpBreakPoint          = OperatorParam[LevelRange]{8}
	OpLeftDepth           = OperatorParam[LevelRange]{9}
	OpRightDepth          = OperatorParam[LevelRange]{10}
	OpLeftCurve           = OperatorEnumParam[ScalingCurve]{11}
	OpRightCurve          = OperatorEnumParam[ScalingCurve]{12}
	OpRateScaling         = OperatorParam[RateScalingRange]{13}
	OpAmpModSensitivity   = OperatorParam[AmpModSensitivityRange]{14}
	OpVelocitySensitivity = OperatorParam[VelocitySensitivityRange]{15}
	OpOutputLevel         = OperatorParam[OutputLevelRange]{16}
	OpMode                = OperatorEnumParam[OscillatorMode]{17}
	OpFrequencyCoarse     = OperatorParam[FrequencyCoarseRange]{18}
	OpFrequencyFine       = OperatorParam[LevelRange]{19}
	OpDetune              = OperatorParam[DetuneRange]{20}
)

// Global voice parameters.
var (
	PitchEGRate1             = Param[LevelRange]{GroupVoice, globalBase + 0}
	PitchEGRate2             = Param[LevelRange]{GroupVoice, globalBase + 1}
	PitchEGRate3             = Param[LevelRange]{GroupVoice, globalBase + 2}
	PitchEGRate4             = Param[LevelRange]{GroupVoice, globalBase + 3}
	PitchEGLevel1            = Param[LevelRange]{GroupVoice, globalBase + 4}
	PitchEGLevel2            = Param[LevelRange]{GroupVoice, globalBase + 5}
	PitchEGLevel3            = Param[LevelRange]{GroupVoice, globalBase + 6}
	PitchEGLevel4            = Param[LevelRange]{GroupVoice, globalBase + 7}
	AlgorithmParam           = Param[AlgorithmRange]{GroupVoice, globalBase + 8}
	FeedbackParam            = Param[FeedbackRange]{GroupVoice, globalBase + 9}
	OscKeySyncParam          = SwitchParam{GroupVoice, globalBase + 10}
	LFOSpeedParam            = Param[LevelRange]{GroupVoice, globalBase + 11}
	LFODelayParam            = Param[LevelRange]{GroupVoice, globalBase + 12}
	LFOPitchModDepthParam    = Param[LevelRange]{GroupVoice, globalBase + 13}
	LFOAmpModDepthParam      = Param[LevelRange]{GroupVoice, globalBase + 14}
	LFOSyncParam             = SwitchParam{GroupVoice, globalBase + 15}
	LFOWaveformParam         = EnumParam[LFOWaveform]{GroupVoice, globalBase + 16}
	PitchModSensitivityParam = Param[PitchModSensitivityRange]{GroupVoice, globalBase + 17}
	TransposeParam           = TransposeParameter{}
	NameParam                = NameParameter{}
	OperatorEnableParam      = Param[OperatorMaskRange]{GroupVoice, OperatorEnableNumber}
)

// Function parameters.
var (
	MonoParam             = SwitchParam{GroupFunction, 64}
	PitchBendRangeParam   = Param[BendRange]{GroupFunction, 65}
	PitchBendStepParam    = Param[BendRange]{GroupFunction, 66}
	PortamentoModeParam   = EnumParam[PortamentoMode]{GroupFunction, 67}
	GlissandoParam        = SwitchParam{GroupFunction, 68}
	PortamentoTimeParam   = Param[LevelRange]{GroupFunction, 69}
	ModWheelRangeParam    = Param[LevelRange]{GroupFunction, 70}
	ModWheelAssignParam   = Param[AssignRange]{GroupFunction, 71}
	FootRangeParam        = Param[LevelRange]{GroupFunction, 72}
	FootAssignParam       = Param[AssignRange]{GroupFunction, 73}
	BreathRangeParam      = Param[LevelRange]{GroupFunction, 74}
	BreathAssignParam     = Param[AssignRange]{GroupFunction, 75}
	AftertouchRangeParam  = Param[LevelRange]{GroupFunction, 76}
	AftertouchAssignParam = Param[AssignRange]{GroupFunction, 77}
)

// EnableOperators returns the operator enable mask with the given operators on.
func EnableOperators(ops ...Op) OperatorMask {
	var m uint8
	for _, op := range ops {
		m |= 1 << (5 - op.Value())
	}
	return bounded.Clamped[uint8, OperatorMaskRange](m)
}
