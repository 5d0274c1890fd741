package midi

import (
	"fmt"

	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/session"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// NewMIDIClient creates a new MIDI client with the specified options.
// It applies default options and initializes the client.
//
// opts ...contracts.Option: A variadic list of option functions to customize the client configuration.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI client.
//   - error: An error, if any occurred during the creation of the client.
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(&options)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// NewSession selects deviceID on client, starts feeding its input into a
// new framer and returns a session that owns both. Closing the session
// stops the client.
//
// Returns:
//   - *session.Session: The request/response session over the device.
//   - error: An error if the device cannot be selected or captured.
func NewSession(client contracts.ClientMIDI, deviceID int, opts ...contracts.Option) (*session.Session, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return newSession(client, deviceID, options)
}

// Open creates a client for the current platform and a session on deviceID.
// The client is stopped again when the session cannot be set up.
func Open(deviceID int, opts ...contracts.Option) (*session.Session, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(&options)
	if err != nil {
		return nil, err
	}
	s, err := newSession(client, deviceID, options)
	if err != nil {
		if stopErr := client.Stop(); stopErr != nil {
			options.Logger.Warn("Failed to stop MIDI client", options.Logger.Field().Error("error", stopErr))
		}
		return nil, err
	}
	return s, nil
}

func newSession(client contracts.ClientMIDI, deviceID int, options contracts.ClientOptions) (*session.Session, error) {
	if err := client.SelectDevice(deviceID); err != nil {
		return nil, fmt.Errorf("select device %d: %w", deviceID, err)
	}

	framer := sysex.NewFramer(
		sysex.WithLogger(options.Logger),
		sysex.WithMaxFrameSize(options.MaxFrameSize),
		sysex.WithMaxQueuedFrames(options.MaxQueuedFrames),
	)
	if err := client.StartCapture(framer); err != nil {
		return nil, fmt.Errorf("start capture on device %d: %w", deviceID, err)
	}

	s := session.New(client, framer, &options)
	if options.LogFilePath != "" {
		if l, ok := options.Logger.(syncer); ok {
			s.OnClose(l.Sync)
		}
	}
	options.Logger.Info("MIDI session ready", options.Logger.Field().Int("deviceID", deviceID))
	return s, nil
}

type syncer interface {
	Sync() error
}
