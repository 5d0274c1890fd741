//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrCreateOutputPort    = errors.New("error creating output port")
	ErrNoOutput            = errors.New("selected device has no output endpoint")
	ErrNotSelected         = errors.New("no MIDI device selected")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// ClientMid manages MIDI operations on Darwin (macOS) systems.
// Inbound packets are forwarded byte by byte to the capture sink and
// outbound messages go to the destination paired with the selected source.
type ClientMid struct {
	logger      contracts.Logger
	sink        atomic.Value              // Holds a sinkBox with the current capture sink.
	client      coremidi.Client           // CoreMIDI client instance for MIDI operations.
	inputPort   coremidi.InputPort        // Input port for receiving MIDI bytes.
	outputPort  coremidi.OutputPort       // Output port for sending SysEx.
	destination *coremidi.Destination     // Endpoint paired with the selected source.
	portConn    internalPortConnection    // Connection to the MIDI port.
	config      *contracts.CoreMIDIConfig // Configuration for MIDI client.
	mu          sync.Mutex                // Guards the port state.
	wg          sync.WaitGroup            // Tracks packets being delivered to the sink.
	stopOnce    sync.Once                 // Ensures Stop() is executed only once.
}

type sinkBox struct {
	sink contracts.ByteSink
}

// NewMIDIClient initializes a new ClientMid for SysEx traffic on macOS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	m := &ClientMid{
		logger: options.Logger,
		client: client,
		config: options.CoreMIDIConfig,
	}
	m.sink.Store(sinkBox{})
	return m, nil
}

// ListDevices retrieves and returns available MIDI sources, marking the ones
// with a destination of the same entity.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
			HasOutput:    pairedDestination(source, destinations) != nil,
		}
	}
	return devices, nil
}

// pairedDestination finds the destination sharing the source's entity, or
// failing that its name.
func pairedDestination(source coremidi.Source, destinations []coremidi.Destination) *coremidi.Destination {
	entity := source.Entity().Name()
	for i := range destinations {
		if destinations[i].Entity().Name() == entity {
			return &destinations[i]
		}
	}
	for i := range destinations {
		if destinations[i].Name() == source.Name() {
			return &destinations[i]
		}
	}
	return nil
}

// SelectDevice connects the input port to a source and pairs the output
// port with its destination. A previous connection is dropped first.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	m.destination = pairedDestination(source, destinations)
	if m.destination == nil {
		m.logger.Warn(ErrNoOutput.Error(), m.logger.Field().String("deviceName", source.Name()))
	}

	m.outputPort, err = coremidi.NewOutputPort(m.client, "Output Port")
	if err != nil {
		m.logger.Error(ErrCreateOutputPort.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}

	m.inputPort, err = coremidi.NewInputPort(m.client, "Input Port", m.handleMIDIMessage)
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error(), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// handleMIDIMessage forwards every byte of an incoming packet to the sink.
// CoreMIDI may split a SysEx message across packets; the sink reassembles it.
func (m *ClientMid) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	box, _ := m.sink.Load().(sinkBox)
	if box.sink == nil {
		return
	}
	for _, b := range packet.Data {
		box.sink.Feed(b)
	}
}

// StartCapture begins forwarding inbound bytes to sink.
func (m *ClientMid) StartCapture(sink contracts.ByteSink) error {
	if sink == nil {
		m.logger.Error("StartCapture called with nil sink")
		return errors.New("nil capture sink")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portConn == nil {
		m.logger.Error("Cannot start capture: no MIDI device selected")
		return ErrNotSelected
	}
	if box, _ := m.sink.Load().(sinkBox); box.sink != nil {
		m.logger.Warn("Capture already started; replacing sink")
	}

	m.logger.Info("Starting MIDI capture")
	m.sink.Store(sinkBox{sink: sink})
	return nil
}

// Send transmits a complete message to the paired destination.
func (m *ClientMid) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portConn == nil {
		return ErrNotSelected
	}
	if m.destination == nil {
		return ErrNoOutput
	}

	packet := coremidi.NewPacket(data, 0)
	if err := packet.Send(&m.outputPort, m.destination); err != nil {
		m.logger.Error("Failed to send MIDI packet",
			m.logger.Field().Int("length", len(data)),
			m.logger.Field().Error("error", err))
		return fmt.Errorf("send %d bytes: %w", len(data), err)
	}
	m.logger.Debug("MIDI packet sent", m.logger.Field().Binary("data", data))
	return nil
}

// Stop disconnects from the device and waits for packets in delivery.
// It only executes once, even if called multiple times.
func (m *ClientMid) Stop() error {
	m.stopOnce.Do(func() {
		m.logger.Info("Stopping MIDI capture")
		m.mu.Lock()
		defer m.mu.Unlock()

		m.sink.Store(sinkBox{})
		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		m.destination = nil
		m.wg.Wait()

		m.logger.Info("MIDI capture stopped")
	})
	return nil
}
