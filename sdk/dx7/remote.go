package dx7

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// ErrVerification is returned when a voice read back from the instrument
// does not hold the value that was sent.
var ErrVerification = errors.New("dx7: parameter not stored")

// Transport is the request/response channel to the instrument.
// *session.Session implements it.
type Transport interface {
	Send(ctx context.Context, frames ...[]byte) error
	Receive(ctx context.Context, timeout time.Duration) (sysex.Frame, error)
	Drain()
}

// Remote operates a DX7 front panel over SysEx.
type Remote struct {
	transport Transport
	device    Device
	timeout   time.Duration
	log       contracts.Logger
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithTimeout bounds the wait for a bank dump.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l contracts.Logger) RemoteOption {
	return func(r *Remote) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRemote returns a Remote talking to the instrument on channel dev.
func NewRemote(t Transport, dev Device, opts ...RemoteOption) *Remote {
	r := &Remote{
		transport: t,
		device:    dev,
		timeout:   5 * time.Second,
		log:       logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Device returns the channel the remote addresses.
func (r *Remote) Device() Device {
	return r.device
}

// SendVoice loads p into the edit buffer.
func (r *Remote) SendVoice(ctx context.Context, p Patch) error {
	frame, err := EncodeVoice(r.device, p)
	if err != nil {
		return err
	}
	return r.transport.Send(ctx, frame)
}

// StoreToVoice writes the edit buffer into internal memory slot.
func (r *Remote) StoreToVoice(ctx context.Context, slot Slot) error {
	voice := VoiceButton(slot)
	frames := append(ButtonMemorySelectInternal.Tap(r.device),
		ButtonStore.Press(nil, r.device),
		voice.Press(nil, r.device),
		voice.Release(nil, r.device),
		ButtonStore.Release(nil, r.device),
	)

	r.log.Debug("storing edit buffer", r.log.Field().Int("voice", int(slot.Value())+1))
	if err := r.transport.Send(ctx, frames...); err != nil {
		return fmt.Errorf("store to voice %d: %w", slot.Value()+1, err)
	}
	return nil
}

// transmitSequence selects FUNCTION, button 1 and button 8 three times to
// reach the bulk transmit page, then confirms with YES.
func (r *Remote) transmitSequence() [][]byte {
	var frames [][]byte
	frames = append(frames, ButtonFunction.Tap(r.device)...)
	frames = append(frames, Button{0}.Tap(r.device)...)
	for i := 0; i < 3; i++ {
		frames = append(frames, Button{7}.Tap(r.device)...)
	}
	return append(frames, ButtonYes.Tap(r.device)...)
}

// TransmitBank makes the instrument send its internal memory and returns
// the decoded bank. Frames other than a bank dump arriving meanwhile are
// skipped.
func (r *Remote) TransmitBank(ctx context.Context) (Device, Bank, error) {
	r.transport.Drain()
	if err := r.transport.Send(ctx, r.transmitSequence()...); err != nil {
		return Device{}, Bank{}, fmt.Errorf("request bank: %w", err)
	}

	deadline := time.Now().Add(r.timeout)
	for {
		frame, err := r.transport.Receive(ctx, time.Until(deadline))
		if err != nil {
			return Device{}, Bank{}, fmt.Errorf("await bank: %w", err)
		}
		if !isBankDump(frame) {
			r.log.Debug("skipping frame while awaiting bank", r.log.Field().Binary("frame", frame))
			continue
		}
		dev, bank, err := DecodeBank(frame)
		if err != nil {
			return Device{}, Bank{}, err
		}
		r.log.Info("bank received", r.log.Field().Uint8("device", dev.Value()))
		return dev, bank, nil
	}
}

func isBankDump(f sysex.Frame) bool {
	return len(f) > 3 && f[1] == sysex.ManufacturerYamaha && f[2]&0xF0 == sysex.SubStatusBulk && f[3] == FormatBank
}

// SendBank replaces the whole internal memory with b.
func (r *Remote) SendBank(ctx context.Context, b *Bank) error {
	frame, err := EncodeBank(r.device, b)
	if err != nil {
		return err
	}
	r.log.Debug("sending bank", r.log.Field().Int("length", len(frame)))
	return r.transport.Send(ctx, frame)
}

// ReadVoice requests a bank dump and returns the voice stored in slot.
func (r *Remote) ReadVoice(ctx context.Context, slot Slot) (Patch, error) {
	dev, bank, err := r.TransmitBank(ctx)
	if err != nil {
		return Patch{}, err
	}
	if dev != r.device {
		return Patch{}, fmt.Errorf("%w: bank came from device %d, want %d", ErrVerification, dev.Value(), r.device.Value())
	}
	return *bank.At(slot), nil
}

// VerifyParameter sends change, stores the edit buffer into slot, reads
// the bank back and runs check on the stored voice. It returns
// ErrVerification when check reports false.
func (r *Remote) VerifyParameter(ctx context.Context, change []byte, slot Slot, check func(*Patch) bool) error {
	return r.VerifyParameters(ctx, [][]byte{change}, slot, check)
}

// VerifyParameters is VerifyParameter for a group of voice parameter
// changes sent back to back, such as the ten characters of a name.
func (r *Remote) VerifyParameters(ctx context.Context, changes [][]byte, slot Slot, check func(*Patch) bool) error {
	if len(changes) == 0 {
		return fmt.Errorf("%w: no parameter changes", sysex.ErrMalformedFrame)
	}
	names := make([]string, 0, len(changes))
	for _, change := range changes {
		c, err := DecodeParameter(change)
		if err != nil {
			return err
		}
		names = append(names, c.Name())
	}
	if err := r.transport.Send(ctx, changes...); err != nil {
		return err
	}
	if err := r.StoreToVoice(ctx, slot); err != nil {
		return err
	}
	p, err := r.ReadVoice(ctx, slot)
	if err != nil {
		return err
	}
	if !check(&p) {
		return fmt.Errorf("%w: %s in voice %d", ErrVerification, strings.Join(names, ", "), slot.Value()+1)
	}
	return nil
}
