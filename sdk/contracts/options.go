package contracts

import "time"

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the MIDI client and
// the SysEx session built on top of it.
type ClientOptions struct {
	Logger          Logger          // Logger for logging events and errors.
	LogLevel        LogLevel        // Level of logging to use.
	LogFilePath     string          // File path for logging if file logging is enabled.
	CoreMIDIConfig  *CoreMIDIConfig // Configuration specific to CoreMIDI.
	MaxFrameSize    int             // Largest SysEx frame the framer accumulates before discarding it.
	MaxQueuedFrames int             // Completed frames kept before the oldest is dropped.
	ResponseTimeout time.Duration   // Default wait for a reply in request/response exchanges.
	SendDebounce    time.Duration   // Pause after every sent message; negative disables it.
	SysExBufferSize int             // Driver-side receive buffer for SysEx messages.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFilePath directs log output to the given file.
func WithLogFilePath(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithMaxFrameSize bounds the partial SysEx frame accumulated by the framer.
func WithMaxFrameSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.MaxFrameSize = n
	}
}

// WithMaxQueuedFrames bounds the queue of completed frames awaiting a consumer.
func WithMaxQueuedFrames(n int) Option {
	return func(opts *ClientOptions) {
		opts.MaxQueuedFrames = n
	}
}

// WithResponseTimeout sets the default reply timeout.
func WithResponseTimeout(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.ResponseTimeout = d
	}
}

// WithSendDebounce sets the pause applied after every sent message.
func WithSendDebounce(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.SendDebounce = d
	}
}

// WithSysExBufferSize sets the driver-side SysEx receive buffer.
func WithSysExBufferSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.SysExBufferSize = n
	}
}
