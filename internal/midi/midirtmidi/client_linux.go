//go:build linux
// +build linux

// Package midirtmidi drives MIDI ports through RtMidi (ALSA on Linux).
package midirtmidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midispec/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

const defaultSysExSize = 8192

var (
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrNotSelected       = errors.New("no MIDI device selected")
	ErrNoOutput          = errors.New("selected device has no output port")
)

// ClientMid manages MIDI ports through the rtmidi driver registered with gomidi.
type ClientMid struct {
	logger     contracts.Logger
	bufferSize int
	mu         sync.Mutex
	in         drivers.In
	out        drivers.Out
	stopListen func()
	stopOnce   sync.Once
}

// NewMIDIClient creates an rtmidi backed client.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	size := options.SysExBufferSize
	if size <= 0 {
		size = defaultSysExSize
	}
	options.Logger.Info("MIDI client created for rtmidi", options.Logger.Field().Int("sysexBufferSize", size))
	return &ClientMid{logger: options.Logger, bufferSize: size}, nil
}

// ListDevices lists the input ports and whether an output of the same name exists.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}

	names := outputNames(outs)
	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{
			Name:       in.String(),
			EntityName: in.String(),
			HasOutput:  findOutput(names, in.String(), i) >= 0,
		}
	}
	return devices, nil
}

func outputNames(outs []drivers.Out) []string {
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names
}

// findOutput matches an output by name, falling back to the same index.
func findOutput(outputs []string, name string, index int) int {
	for i, n := range outputs {
		if n == name {
			return i
		}
	}
	if index < len(outputs) {
		return index
	}
	return -1
}

// SelectDevice opens the input port at deviceID and its matching output.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins, err := drivers.Ins()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}
	outs, err := drivers.Outs()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI outputs: %w", err)
	}

	if err := m.closePorts(); err != nil {
		m.logger.Warn("Failed to close previous MIDI device", m.logger.Field().Error("error", err))
	}

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		return fmt.Errorf("open MIDI input %q: %w", in.String(), err)
	}
	m.in = in

	if idx := findOutput(outputNames(outs), in.String(), deviceID); idx >= 0 {
		out := outs[idx]
		if err := out.Open(); err != nil {
			m.logger.Warn("Failed to open MIDI output",
				m.logger.Field().String("port", out.String()),
				m.logger.Field().Error("error", err))
		} else {
			m.out = out
		}
	} else {
		m.logger.Warn(ErrNoOutput.Error(), m.logger.Field().String("deviceName", in.String()))
	}

	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", in.String()))
	return nil
}

// StartCapture listens on the selected input with SysEx enabled and feeds
// every received byte to sink.
func (m *ClientMid) StartCapture(sink contracts.ByteSink) error {
	if sink == nil {
		return errors.New("nil capture sink")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.in == nil {
		m.logger.Error("Cannot start capture: no MIDI device selected")
		return ErrNotSelected
	}
	if m.stopListen != nil {
		m.logger.Warn("Capture already started; replacing sink")
		m.stopListen()
		m.stopListen = nil
	}

	stop, err := midi.ListenTo(m.in, func(msg midi.Message, _ int32) {
		for _, b := range msg {
			sink.Feed(b)
		}
	}, midi.UseSysEx(), midi.SysExBufferSize(uint32(m.bufferSize)))
	if err != nil {
		return fmt.Errorf("listen on %q: %w", m.in.String(), err)
	}
	m.stopListen = stop

	m.logger.Info("Starting MIDI capture")
	return nil
}

// Send writes a complete message to the output port.
func (m *ClientMid) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.in == nil {
		return ErrNotSelected
	}
	if m.out == nil {
		return ErrNoOutput
	}
	if err := m.out.Send(data); err != nil {
		m.logger.Error("Failed to send MIDI message",
			m.logger.Field().Int("length", len(data)),
			m.logger.Field().Error("error", err))
		return fmt.Errorf("send %d bytes: %w", len(data), err)
	}
	m.logger.Debug("MIDI message sent", m.logger.Field().Binary("data", data))
	return nil
}

// Stop ends the capture, closes both ports and releases the driver.
func (m *ClientMid) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		m.logger.Info("Stopping MIDI capture")
		m.mu.Lock()
		defer m.mu.Unlock()

		err = m.closePorts()
		drivers.Close()
		m.logger.Info("MIDI capture stopped")
	})
	return err
}

func (m *ClientMid) closePorts() error {
	var err error
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	if m.in != nil {
		err = multierr.Append(err, m.in.Close())
		m.in = nil
	}
	if m.out != nil {
		err = multierr.Append(err, m.out.Close())
		m.out = nil
	}
	return err
}
