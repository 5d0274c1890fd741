package contracts

// ByteSink consumes a raw inbound MIDI stream one byte at a time.
// Implementations must not block; they are invoked on the driver callback.
type ByteSink interface {
	Feed(b byte)
}

// Sender transmits a complete MIDI message to the device. Sending is
// fire-and-forget: a nil error only means the driver accepted the bytes.
type Sender interface {
	Send(data []byte) error
}

// ClientMIDI defines an interface for MIDI port operations.
type ClientMIDI interface {
	Sender
	Stop() error                        // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error) // Lists all available MIDI devices.
	SelectDevice(deviceID int) error    // Selects a MIDI device by its ID for communication.
	StartCapture(sink ByteSink) error   // Starts feeding every inbound byte to sink.
}
