//go:build !linux
// +build !linux

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/midispec/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the dummy client.
var ErrUnavailable = errors.New("rtmidi client is only built on Linux")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI client for systems with a native driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy rtmidi client")
	return &dummyMIDIClient{logger: options.Logger}, nil
}

func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrUnavailable
}

func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	return ErrUnavailable
}

func (m *dummyMIDIClient) StartCapture(sink contracts.ByteSink) error {
	return ErrUnavailable
}

func (m *dummyMIDIClient) Send(data []byte) error {
	return ErrUnavailable
}

func (m *dummyMIDIClient) Stop() error {
	return nil
}
