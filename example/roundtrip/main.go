package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/dx7"
	"github.com/leandrodaf/midispec/sdk/midi"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// check is one hardware round trip. run is called once per trial; trials
// 0 and 2 use the minimum and maximum of every value drawn, 1 a random one.
type check struct {
	name   string
	trials int
	run    func(ctx context.Context, r *dx7.Remote, rng *rand.Rand, trial int) error
}

// encodeFunc returns the parameter changes of one trial and how to find
// them in the stored voice.
type encodeFunc func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error)

// pick selects the minimum, a random value or the maximum of R.
func pick[T bounded.Integer, R bounded.Range[T]](rng *rand.Rand, trial int) bounded.Value[T, R] {
	var r R
	switch trial {
	case 0:
		return bounded.Clamped[T, R](r.Min())
	case 2:
		return bounded.Clamped[T, R](r.Max())
	}
	return bounded.Random[T, R](rng)
}

func pickEnum[E ~uint8](rng *rand.Rand, trial int, first, last E) E {
	switch trial {
	case 0:
		return first
	case 2:
		return last
	}
	return first + E(rng.Intn(int(last-first)+1))
}

func pickSwitch(rng *rand.Rand, trial int) bool {
	switch trial {
	case 0:
		return false
	case 2:
		return true
	}
	return rng.Intn(2) == 1
}

// parameterCheck sends the changes to the edit buffer, stores it into a
// slot picked like the values and reads the bank back.
func parameterCheck(name string, trials int, encode encodeFunc) check {
	return check{
		name:   name,
		trials: trials,
		run: func(ctx context.Context, r *dx7.Remote, rng *rand.Rand, trial int) error {
			changes, verify, err := encode(r.Device(), rng, trial)
			if err != nil {
				return err
			}
			slot := pick[uint8, dx7.SlotRange](rng, trial)
			return r.VerifyParameters(ctx, changes, slot, verify)
		},
	}
}

func opParam[R bounded.Range[uint8]](name string, p dx7.OperatorParam[R], get func(*dx7.Operator) bounded.Value[uint8, R]) check {
	return parameterCheck(name, 3, func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error) {
		op, v := pick[uint8, dx7.OpRange](rng, trial), pick[uint8, R](rng, trial)
		return [][]byte{p.Encode(nil, dev, op, v)}, func(patch *dx7.Patch) bool { return get(patch.Op(op)) == v }, nil
	})
}

func opEnum[E interface {
	~uint8
	Valid() bool
}](name string, p dx7.OperatorEnumParam[E], first, last E, get func(*dx7.Operator) E) check {
	return parameterCheck(name, 3, func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error) {
		op, v := pick[uint8, dx7.OpRange](rng, trial), pickEnum(rng, trial, first, last)
		frame, err := p.Encode(nil, dev, op, v)
		return [][]byte{frame}, func(patch *dx7.Patch) bool { return get(patch.Op(op)) == v }, err
	})
}

func globalParam[R bounded.Range[uint8]](name string, p dx7.Param[R], get func(*dx7.Patch) bounded.Value[uint8, R]) check {
	return parameterCheck(name, 3, func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error) {
		v := pick[uint8, R](rng, trial)
		return [][]byte{p.Encode(nil, dev, v)}, func(patch *dx7.Patch) bool { return get(patch) == v }, nil
	})
}

func switchParam(name string, p dx7.SwitchParam, get func(*dx7.Patch) bool) check {
	return parameterCheck(name, 3, func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error) {
		on := pickSwitch(rng, trial)
		return [][]byte{p.Encode(nil, dev, on)}, func(patch *dx7.Patch) bool { return get(patch) == on }, nil
	})
}

var testName = sysex.MustName("TEST SYSEX")

var checks = []check{
	opParam("op eg rate 1", dx7.OpEGRate1, func(o *dx7.Operator) dx7.Level { return o.EGRate[0] }),
	opParam("op eg rate 2", dx7.OpEGRate2, func(o *dx7.Operator) dx7.Level { return o.EGRate[1] }),
	opParam("op eg rate 3", dx7.OpEGRate3, func(o *dx7.Operator) dx7.Level { return o.EGRate[2] }),
	opParam("op eg rate 4", dx7.OpEGRate4, func(o *dx7.Operator) dx7.Level { return o.EGRate[3] }),
	opParam("op eg level 1", dx7.OpEGLevel1, func(o *dx7.Operator) dx7.Level { return o.EGLevel[0] }),
	opParam("op eg level 2", dx7.OpEGLevel2, func(o *dx7.Operator) dx7.Level { return o.EGLevel[1] }),
	opParam("op eg level 3", dx7.OpEGLevel3, func(o *dx7.Operator) dx7.Level { return o.EGLevel[2] }),
	opParam("op eg level 4", dx7.OpEGLevel4, func(o *dx7.Operator) dx7.Level { return o.EGLevel[3] }),
	opParam("op break point", dx7.OpBreakPoint, func(o *dx7.Operator) dx7.Level { return o.BreakPoint }),
	opParam("op left depth", dx7.OpLeftDepth, func(o *dx7.Operator) dx7.Level { return o.LeftDepth }),
	opParam("op right depth", dx7.OpRightDepth, func(o *dx7.Operator) dx7.Level { return o.RightDepth }),
	opEnum("op left curve", dx7.OpLeftCurve, dx7.CurveNegativeLinear, dx7.CurvePositiveLinear,
		func(o *dx7.Operator) dx7.ScalingCurve { return o.LeftCurve }),
	opEnum("op right curve", dx7.OpRightCurve, dx7.CurveNegativeLinear, dx7.CurvePositiveLinear,
		func(o *dx7.Operator) dx7.ScalingCurve { return o.RightCurve }),
	opParam("op rate scaling", dx7.OpRateScaling, func(o *dx7.Operator) dx7.RateScaling { return o.RateScaling }),
	opParam("op amp mod sensitivity", dx7.OpAmpModSensitivity,
		func(o *dx7.Operator) dx7.AmpModSensitivity { return o.AmpModSensitivity }),
	opParam("op velocity sensitivity", dx7.OpVelocitySensitivity,
		func(o *dx7.Operator) dx7.VelocitySensitivity { return o.VelocitySensitivity }),
	opParam("op output level", dx7.OpOutputLevel, func(o *dx7.Operator) dx7.OutputLevel { return o.OutputLevel }),
	opEnum("op oscillator mode", dx7.OpMode, dx7.ModeRatio, dx7.ModeFixed,
		func(o *dx7.Operator) dx7.OscillatorMode { return o.Mode }),
	opParam("op frequency coarse", dx7.OpFrequencyCoarse,
		func(o *dx7.Operator) dx7.FrequencyCoarse { return o.FrequencyCoarse }),
	opParam("op frequency fine", dx7.OpFrequencyFine, func(o *dx7.Operator) dx7.Level { return o.FrequencyFine }),
	opParam("op detune", dx7.OpDetune, func(o *dx7.Operator) dx7.Detune { return o.Detune }),

	globalParam("pitch eg rate 1", dx7.PitchEGRate1, func(p *dx7.Patch) dx7.Level { return p.PitchEGRate[0] }),
	globalParam("pitch eg rate 2", dx7.PitchEGRate2, func(p *dx7.Patch) dx7.Level { return p.PitchEGRate[1] }),
	globalParam("pitch eg rate 3", dx7.PitchEGRate3, func(p *dx7.Patch) dx7.Level { return p.PitchEGRate[2] }),
	globalParam("pitch eg rate 4", dx7.PitchEGRate4, func(p *dx7.Patch) dx7.Level { return p.PitchEGRate[3] }),
	globalParam("pitch eg level 1", dx7.PitchEGLevel1, func(p *dx7.Patch) dx7.Level { return p.PitchEGLevel[0] }),
	globalParam("pitch eg level 2", dx7.PitchEGLevel2, func(p *dx7.Patch) dx7.Level { return p.PitchEGLevel[1] }),
	globalParam("pitch eg level 3", dx7.PitchEGLevel3, func(p *dx7.Patch) dx7.Level { return p.PitchEGLevel[2] }),
	globalParam("pitch eg level 4", dx7.PitchEGLevel4, func(p *dx7.Patch) dx7.Level { return p.PitchEGLevel[3] }),
	globalParam("algorithm", dx7.AlgorithmParam, func(p *dx7.Patch) dx7.Algorithm { return p.Algorithm }),
	globalParam("feedback", dx7.FeedbackParam, func(p *dx7.Patch) dx7.Feedback { return p.Feedback }),
	switchParam("oscillator key sync", dx7.OscKeySyncParam, func(p *dx7.Patch) bool { return p.OscKeySync }),
	parameterCheck("lfo waveform", 3, func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error) {
		w := pickEnum(rng, trial, dx7.WaveTriangle, dx7.WaveSampleAndHold)
		frame, err := dx7.LFOWaveformParam.Encode(nil, dev, w)
		return [][]byte{frame}, func(p *dx7.Patch) bool { return p.LFO.Waveform == w }, err
	}),
	globalParam("lfo speed", dx7.LFOSpeedParam, func(p *dx7.Patch) dx7.Level { return p.LFO.Speed }),
	globalParam("lfo delay", dx7.LFODelayParam, func(p *dx7.Patch) dx7.Level { return p.LFO.Delay }),
	globalParam("lfo pitch mod depth", dx7.LFOPitchModDepthParam, func(p *dx7.Patch) dx7.Level { return p.LFO.PitchModDepth }),
	globalParam("lfo amp mod depth", dx7.LFOAmpModDepthParam, func(p *dx7.Patch) dx7.Level { return p.LFO.AmpModDepth }),
	switchParam("lfo sync", dx7.LFOSyncParam, func(p *dx7.Patch) bool { return p.LFO.Sync }),
	globalParam("pitch mod sensitivity", dx7.PitchModSensitivityParam,
		func(p *dx7.Patch) dx7.PitchModSensitivity { return p.PitchModSensitivity }),
	parameterCheck("transpose", 3, func(dev dx7.Device, rng *rand.Rand, trial int) ([][]byte, func(*dx7.Patch) bool, error) {
		v := pick[int8, dx7.TransposeRange](rng, trial)
		return [][]byte{dx7.TransposeParam.Encode(nil, dev, v)}, func(p *dx7.Patch) bool { return p.Transpose == v }, nil
	}),
	parameterCheck("voice name", 1, func(dev dx7.Device, _ *rand.Rand, _ int) ([][]byte, func(*dx7.Patch) bool, error) {
		return dx7.NameParam.Encode(dev, testName), func(p *dx7.Patch) bool { return p.Name == testName }, nil
	}),
	{name: "voice patch", trials: 1, run: voicePatch},
	{name: "voice patch bank", trials: 1, run: voicePatchBank},
}

// voicePatch loads a random voice into the edit buffer and stores it.
func voicePatch(ctx context.Context, r *dx7.Remote, rng *rand.Rand, _ int) error {
	want := dx7.RandomPatch(rng)
	want.Name = testName
	slot := bounded.Random[uint8, dx7.SlotRange](rng)

	if err := r.SendVoice(ctx, want); err != nil {
		return err
	}
	if err := r.StoreToVoice(ctx, slot); err != nil {
		return err
	}
	return compareVoice(ctx, r, slot, want)
}

// voicePatchBank replaces the internal memory with random voices.
func voicePatchBank(ctx context.Context, r *dx7.Remote, rng *rand.Rand, _ int) error {
	var bank dx7.Bank
	for i := range bank {
		bank[i] = dx7.RandomPatch(rng)
	}
	slot := bounded.Random[uint8, dx7.SlotRange](rng)
	bank.At(slot).Name = testName

	if err := r.SendBank(ctx, &bank); err != nil {
		return err
	}
	return compareVoice(ctx, r, slot, *bank.At(slot))
}

func compareVoice(ctx context.Context, r *dx7.Remote, slot dx7.Slot, want dx7.Patch) error {
	got, err := r.ReadVoice(ctx, slot)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: voice %d holds %q, want %q", dx7.ErrVerification, slot.Value()+1, got.Name, want.Name)
	}
	return nil
}

func main() {
	log := logger.NewZapLogger()

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		os.Exit(1)
	}

	devices, err := client.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		os.Exit(1)
	}
	fmt.Println("Available MIDI devices:", devices)

	deviceID := 0
	if len(os.Args) > 1 {
		if deviceID, err = strconv.Atoi(os.Args[1]); err != nil {
			log.Error("Device index must be a number", log.Field().String("arg", os.Args[1]))
			os.Exit(1)
		}
	}

	s, err := midi.NewSession(client, deviceID,
		contracts.WithLogger(log),
		contracts.WithResponseTimeout(5*time.Second),
	)
	if err != nil {
		log.Error("Failed to open MIDI session", log.Field().Error("error", err))
		os.Exit(1)
	}
	defer s.Close()

	dev := bounded.Must(dx7.NewDevice(0))
	remote := dx7.NewRemote(s, dev, dx7.WithLogger(log))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	if err := remote.SendVoice(ctx, dx7.InitVoice()); err != nil {
		log.Error("Failed to send init voice", log.Field().Error("error", err))
		os.Exit(1)
	}

	failed := 0
	for _, c := range checks {
		for trial := 0; trial < c.trials; trial++ {
			if err := c.run(ctx, remote, rng, trial); err != nil {
				failed++
				log.Error("Round trip failed",
					log.Field().String("check", c.name),
					log.Field().Int("trial", trial),
					log.Field().Error("error", err))
				continue
			}
			log.Info("Round trip passed",
				log.Field().String("check", c.name),
				log.Field().Int("trial", trial))
		}
	}

	if failed > 0 {
		fmt.Printf("%d round trips failed\n", failed)
		s.Close()
		os.Exit(1)
	}
	fmt.Println("All round trips passed")
}
