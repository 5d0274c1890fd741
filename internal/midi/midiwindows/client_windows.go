//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/midispec/sdk/contracts"
	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_NULL     = 0x00000000 // No callback, used for output
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // SysEx buffer filled or returned
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const (
	// MIDIERR_STILLPLAYING is returned while a long message is still queued.
	MIDIERR_STILLPLAYING = 65

	sysExBuffers     = 4
	defaultSysExSize = 8192
)

var (
	ErrNoMIDIDevices = errors.New("no MIDI devices found")
	ErrNotSelected   = errors.New("no MIDI device selected")
	ErrNoOutput      = errors.New("selected device has no output endpoint")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// midiHdr mirrors MIDIHDR for long (SysEx) buffers.
type midiHdr struct {
	lpData          uintptr
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// sysExBuffer pins a receive buffer and its header for the driver.
type sysExBuffer struct {
	hdr  midiHdr
	data []byte
}

// ClientMid manages MIDI on Windows
type ClientMid struct {
	logger     contracts.Logger
	sink       atomic.Value // Holds a sinkBox with the current capture sink.
	handle     HMIDIIN
	out        HMIDIOUT
	portConn   bool
	capturing  atomic.Bool
	mu         sync.Mutex
	bufferSize int
	buffers    []*sysExBuffer
	returned   chan *sysExBuffer // Filled SysEx buffers to hand back to the driver.
	done       chan struct{}
	wg         sync.WaitGroup
}

type sinkBox struct {
	sink contracts.ByteSink
}

// Load the winmm.dll library and required functions
var (
	winmm                    = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs     = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps     = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen           = winmm.NewProc("midiInOpen")
	procMidiInStart          = winmm.NewProc("midiInStart")
	procMidiInStop           = winmm.NewProc("midiInStop")
	procMidiInReset          = winmm.NewProc("midiInReset")
	procMidiInClose          = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader  = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHdr   = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer      = winmm.NewProc("midiInAddBuffer")
	procMidiOutGetNumDevs    = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps    = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen          = winmm.NewProc("midiOutOpen")
	procMidiOutClose         = winmm.NewProc("midiOutClose")
	procMidiOutShortMsg      = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg       = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHdr  = winmm.NewProc("midiOutUnprepareHeader")

	// winmm callbacks cannot be released, so one is shared by every client.
	inCallback = windows.NewCallback(midiInCallback)
)

// NewMIDIClient creates a MIDI client for Windows
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("MIDI client created for Windows")

	size := options.SysExBufferSize
	if size <= 0 {
		size = defaultSysExSize
	}
	m := &ClientMid{
		logger:     options.Logger,
		bufferSize: size,
	}
	m.sink.Store(sinkBox{})
	return m, nil
}

// ListDevices lists the available MIDI input devices and whether an output
// with the same name exists.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	outputs := m.outputNames()
	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn("Failed to get information for MIDI device", m.logger.Field().Int("deviceID", int(i)))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
			HasOutput:    findOutput(outputs, deviceName, int(i)) >= 0,
		}
	}
	return devices, nil
}

func (m *ClientMid) outputNames() []string {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	names := make([]string, uint32(r0))
	for i := range names {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		names[i] = windows.UTF16ToString(caps.szPname[:])
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
	if index < len(outputs) && outputs[index] != "" {
		return index
	}
	return -1
}

// SelectDevice opens the MIDI input and its matching output
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.portConn {
		if err := m.closePorts(); err != nil {
			return fmt.Errorf("failed to close previous MIDI device: %w", err)
		}
	}

	var caps midiInCaps
	r1, _, _ := procMidiInGetDevCaps.Call(uintptr(deviceID), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
	if r1 != 0 {
		return fmt.Errorf("invalid MIDI device %d", deviceID)
	}
	name := windows.UTF16ToString(caps.szPname[:])

	fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS
	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		inCallback,
		uintptr(unsafe.Pointer(m)),
		uintptr(fdwOpen),
	)
	if r1 != 0 {
		m.logger.Error("Failed to open MIDI input", m.logger.Field().Int("deviceID", deviceID), m.logger.Field().Error("error", err))
		return fmt.Errorf("failed to open MIDI device %d: %v", deviceID, err)
	}

	if out := findOutput(m.outputNames(), name, deviceID); out >= 0 {
		r1, _, err = procMidiOutOpen.Call(
			uintptr(unsafe.Pointer(&m.out)),
			uintptr(out),
			0,
			0,
			CALLBACK_NULL,
		)
		if r1 != 0 {
			m.logger.Warn("Failed to open MIDI output", m.logger.Field().Int("outputID", out), m.logger.Field().Error("error", err))
			m.out = 0
		}
	} else {
		m.logger.Warn(ErrNoOutput.Error(), m.logger.Field().String("deviceName", name))
	}

	m.portConn = true
	m.logger.Info("MIDI device connected", m.logger.Field().Int("deviceID", deviceID), m.logger.Field().String("deviceName", name))
	return nil
}

// StartCapture queues the SysEx buffers and starts the input device
func (m *ClientMid) StartCapture(sink contracts.ByteSink) error {
	if sink == nil {
		return errors.New("nil capture sink")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		m.logger.Error("Cannot start capture: No MIDI device selected")
		return ErrNotSelected
	}
	m.sink.Store(sinkBox{sink: sink})
	if m.capturing.Load() {
		m.logger.Warn("Capture already started; replacing sink")
		return nil
	}

	m.returned = make(chan *sysExBuffer, sysExBuffers)
	m.done = make(chan struct{})
	m.buffers = make([]*sysExBuffer, sysExBuffers)
	for i := range m.buffers {
		b := &sysExBuffer{data: make([]byte, m.bufferSize)}
		b.hdr.lpData = uintptr(unsafe.Pointer(&b.data[0]))
		b.hdr.dwBufferLength = uint32(len(b.data))
		b.hdr.dwUser = uintptr(i)
		if err := m.queueBuffer(b, true); err != nil {
			return err
		}
		m.buffers[i] = b
	}

	m.capturing.Store(true)
	m.wg.Add(1)
	go m.recycle(m.returned, m.done)

	r1, _, err := procMidiInStart.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error("Failed to start MIDI capture", m.logger.Field().Error("error", err))
		return fmt.Errorf("failed to start MIDI capture: %v", err)
	}

	m.logger.Info("MIDI capture started", m.logger.Field().Int("sysexBufferSize", m.bufferSize))
	return nil
}

func (m *ClientMid) queueBuffer(b *sysExBuffer, prepare bool) error {
	size := unsafe.Sizeof(b.hdr)
	if prepare {
		if r1, _, err := procMidiInPrepareHeader.Call(uintptr(m.handle), uintptr(unsafe.Pointer(&b.hdr)), size); r1 != 0 {
			return fmt.Errorf("prepare SysEx buffer: %v", err)
		}
	}
	if r1, _, err := procMidiInAddBuffer.Call(uintptr(m.handle), uintptr(unsafe.Pointer(&b.hdr)), size); r1 != 0 {
		return fmt.Errorf("add SysEx buffer: %v", err)
	}
	return nil
}

// recycle hands filled buffers back to the driver. midiInAddBuffer must not
// be called from the driver callback.
func (m *ClientMid) recycle(returned <-chan *sysExBuffer, done <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case b := <-returned:
			if !m.capturing.Load() {
				continue
			}
			b.hdr.dwBytesRecorded = 0
			if err := m.queueBuffer(b, false); err != nil {
				m.logger.Error("Failed to requeue SysEx buffer", m.logger.Field().Error("error", err))
			}
		case <-done:
			return
		}
	}
}

// Send transmits a message, using a long buffer for SysEx
func (m *ClientMid) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		return ErrNotSelected
	}
	if m.out == 0 {
		return ErrNoOutput
	}
	if len(data) == 0 {
		return nil
	}

	if data[0] != 0xF0 && len(data) <= 3 {
		var msg uint32
		for i, b := range data {
			msg |= uint32(b) << (8 * i)
		}
		if r1, _, err := procMidiOutShortMsg.Call(uintptr(m.out), uintptr(msg)); r1 != 0 {
			return fmt.Errorf("midiOutShortMsg: %v", err)
		}
		return nil
	}

	buf := append([]byte(nil), data...)
	hdr := midiHdr{
		lpData:         uintptr(unsafe.Pointer(&buf[0])),
		dwBufferLength: uint32(len(buf)),
	}
	size := unsafe.Sizeof(hdr)
	if r1, _, err := procMidiOutPrepareHeader.Call(uintptr(m.out), uintptr(unsafe.Pointer(&hdr)), size); r1 != 0 {
		return fmt.Errorf("midiOutPrepareHeader: %v", err)
	}
	r1, _, err := procMidiOutLongMsg.Call(uintptr(m.out), uintptr(unsafe.Pointer(&hdr)), size)
	if r1 != 0 {
		err = fmt.Errorf("midiOutLongMsg: %v", err)
	} else {
		err = nil
	}
	for {
		r1, _, _ = procMidiOutUnprepareHdr.Call(uintptr(m.out), uintptr(unsafe.Pointer(&hdr)), size)
		if r1 != MIDIERR_STILLPLAYING {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err != nil {
		m.logger.Error("Failed to send SysEx", m.logger.Field().Int("length", len(data)), m.logger.Field().Error("error", err))
		return err
	}
	m.logger.Debug("SysEx sent", m.logger.Field().Binary("data", data))
	return nil
}

// midiInCallback runs on a driver thread. It forwards bytes to the sink and
// queues filled SysEx buffers for recycling.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	m := (*ClientMid)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		m.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		m.logger.Debug("MIDI device closed")
	case MIM_DATA, MIM_MOREDATA:
		box, _ := m.sink.Load().(sinkBox)
		if box.sink == nil {
			return 0
		}
		status := byte(dwParam1)
		for i := 0; i < shortMessageLength(status); i++ {
			box.sink.Feed(byte(dwParam1 >> (8 * i)))
		}
	case MIM_LONGDATA:
		hdr := (*midiHdr)(unsafe.Pointer(dwParam1))
		if int(hdr.dwUser) >= len(m.buffers) {
			return 0
		}
		b := m.buffers[hdr.dwUser]
		if box, _ := m.sink.Load().(sinkBox); box.sink != nil {
			for _, c := range b.data[:hdr.dwBytesRecorded] {
				box.sink.Feed(c)
			}
		}
		if m.capturing.Load() {
			select {
			case m.returned <- b:
			default:
			}
		}
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Warn("MIDI input error", m.logger.Field().Uint64("message", uint64(wMsg)))
	default:
		m.logger.Warn("Unknown MIDI message", m.logger.Field().Uint64("message", uint64(wMsg)))
	}

	return 0
}

// shortMessageLength is the byte count of the message starting with status.
func shortMessageLength(status byte) int {
	switch {
	case status < 0x80:
		return 0
	case status >= 0xF8, status == 0xF6:
		return 1
	case status == 0xF1, status == 0xF3:
		return 2
	case status == 0xF2:
		return 3
	case status >= 0xF0:
		return 1
	case status&0xF0 == 0xC0, status&0xF0 == 0xD0:
		return 2
	}
	return 3
}

// Stop terminates MIDI capture and closes both ports
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		m.logger.Debug("No MIDI device is connected")
		return nil
	}

	if err := m.closePorts(); err != nil {
		return fmt.Errorf("failed to stop MIDI capture: %w", err)
	}
	m.logger.Info("MIDI capture stopped and device closed")
	return nil
}

// closePorts stops the capture and releases every winmm resource
func (m *ClientMid) closePorts() error {
	var err error
	m.sink.Store(sinkBox{})

	if m.capturing.Swap(false) {
		if r1, _, e := procMidiInStop.Call(uintptr(m.handle)); r1 != 0 {
			err = multierr.Append(err, fmt.Errorf("midiInStop: %v", e))
		}
		// Reset returns every queued buffer through MIM_LONGDATA.
		if r1, _, e := procMidiInReset.Call(uintptr(m.handle)); r1 != 0 {
			err = multierr.Append(err, fmt.Errorf("midiInReset: %v", e))
		}
		close(m.done)
		m.wg.Wait()
		for _, b := range m.buffers {
			if b == nil {
				continue
			}
			if r1, _, e := procMidiInUnprepareHdr.Call(uintptr(m.handle), uintptr(unsafe.Pointer(&b.hdr)), unsafe.Sizeof(b.hdr)); r1 != 0 {
				err = multierr.Append(err, fmt.Errorf("midiInUnprepareHeader: %v", e))
			}
		}
		m.buffers = nil
	}

	if r1, _, e := procMidiInClose.Call(uintptr(m.handle)); r1 != 0 {
		err = multierr.Append(err, fmt.Errorf("midiInClose: %v", e))
	}
	if m.out != 0 {
		if r1, _, e := procMidiOutClose.Call(uintptr(m.out)); r1 != 0 {
			err = multierr.Append(err, fmt.Errorf("midiOutClose: %v", e))
		}
	}

	m.portConn = false
	m.handle = 0
	m.out = 0
	return err
}
