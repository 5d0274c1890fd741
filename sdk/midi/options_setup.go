package midi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/session"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// ErrInvalidOption is returned for a negative size option.
var ErrInvalidOption = errors.New("invalid client option")

// DefaultSysExBufferSize is the driver-side receive buffer for SysEx messages.
const DefaultSysExBufferSize = 8192

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if an option holds a value no component accepts.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	switch {
	case options.MaxFrameSize < 0, options.MaxFrameSize == 1:
		return contracts.ClientOptions{}, fmt.Errorf("%w: max frame size %d", ErrInvalidOption, options.MaxFrameSize)
	case options.MaxQueuedFrames < 0:
		return contracts.ClientOptions{}, fmt.Errorf("%w: max queued frames %d", ErrInvalidOption, options.MaxQueuedFrames)
	case options.SysExBufferSize < 0:
		return contracts.ClientOptions{}, fmt.Errorf("%w: sysex buffer size %d", ErrInvalidOption, options.SysExBufferSize)
	case options.ResponseTimeout < 0:
		return contracts.ClientOptions{}, fmt.Errorf("%w: response timeout %v", ErrInvalidOption, options.ResponseTimeout)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "midispec"}
	}
	if options.MaxFrameSize == 0 {
		options.MaxFrameSize = sysex.DefaultMaxFrameSize
	}
	if options.MaxQueuedFrames == 0 {
		options.MaxQueuedFrames = sysex.DefaultMaxQueuedFrames
	}
	if options.ResponseTimeout == 0 {
		options.ResponseTimeout = session.DefaultResponseTimeout
	}
	if options.SendDebounce == 0 {
		options.SendDebounce = session.DefaultSendDebounce
	}
	if options.SysExBufferSize == 0 {
		options.SysExBufferSize = DefaultSysExBufferSize
	}

	options.Logger.SetLevel(options.LogLevel) // InfoLevel is the zero value
	return *options, nil
}
