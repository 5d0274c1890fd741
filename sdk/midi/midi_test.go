package midi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/session"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// fakeClient records calls and echoes every sent frame back to the sink.
type fakeClient struct {
	mu        sync.Mutex
	selected  int
	sink      contracts.ByteSink
	sent      [][]byte
	stopped   int
	selectErr error
}

func (c *fakeClient) Send(data []byte) error {
	c.mu.Lock()
	c.sent = append(c.sent, append([]byte(nil), data...))
	sink := c.sink
	c.mu.Unlock()
	if sink != nil {
		for _, b := range data {
			sink.Feed(b)
		}
	}
	return nil
}

func (c *fakeClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped++
	return nil
}

func (c *fakeClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return []contracts.DeviceInfo{{Name: "DX7", HasOutput: true}}, nil
}

func (c *fakeClient) SelectDevice(deviceID int) error {
	if c.selectErr != nil {
		return c.selectErr
	}
	c.selected = deviceID
	return nil
}

func (c *fakeClient) StartCapture(sink contracts.ByteSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
	return nil
}

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"max frame size", options.MaxFrameSize, sysex.DefaultMaxFrameSize},
		{"max queued frames", options.MaxQueuedFrames, sysex.DefaultMaxQueuedFrames},
		{"response timeout", options.ResponseTimeout, session.DefaultResponseTimeout},
		{"send debounce", options.SendDebounce, session.DefaultSendDebounce},
		{"sysex buffer", options.SysExBufferSize, DefaultSysExBufferSize},
		{"client name", options.CoreMIDIConfig.ClientName, "midispec"},
		{"log level", options.LogLevel, contracts.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestApplyDefaultOptionsKeepsExplicitValues(t *testing.T) {
	options, err := applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithMaxFrameSize(4104),
		contracts.WithMaxQueuedFrames(4),
		contracts.WithResponseTimeout(time.Second),
		contracts.WithSendDebounce(-1),
		contracts.WithSysExBufferSize(1024),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "librarian"}),
	)
	if err != nil {
		t.Fatalf("applyDefaultOptions: %v", err)
	}
	if options.MaxFrameSize != 4104 || options.MaxQueuedFrames != 4 || options.SysExBufferSize != 1024 {
		t.Errorf("sizes overwritten: %+v", options)
	}
	if options.ResponseTimeout != time.Second || options.SendDebounce != -1 {
		t.Errorf("durations overwritten: %v %v", options.ResponseTimeout, options.SendDebounce)
	}
	if options.CoreMIDIConfig.ClientName != "librarian" {
		t.Errorf("client name = %q", options.CoreMIDIConfig.ClientName)
	}
}

func TestApplyDefaultOptionsRejects(t *testing.T) {
	tests := []struct {
		name string
		opt  contracts.Option
	}{
		{"negative frame size", contracts.WithMaxFrameSize(-1)},
		{"frame size one", contracts.WithMaxFrameSize(1)},
		{"negative queue", contracts.WithMaxQueuedFrames(-3)},
		{"negative buffer", contracts.WithSysExBufferSize(-8)},
		{"negative timeout", contracts.WithResponseTimeout(-time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()), tt.opt)
			if !errors.Is(err, ErrInvalidOption) {
				t.Errorf("error = %v, want ErrInvalidOption", err)
			}
		})
	}
}

func TestUnsupportedOS(t *testing.T) {
	options, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newClientFor("plan9", &options); !errors.Is(err, ErrUnsupportedOS) {
		t.Errorf("error = %v, want ErrUnsupportedOS", err)
	}
}

func TestNewSessionWiresClientAndFramer(t *testing.T) {
	client := &fakeClient{}
	s, err := NewSession(client, 2,
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithSendDebounce(-1),
		contracts.WithResponseTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if client.selected != 2 {
		t.Errorf("selected device = %d, want 2", client.selected)
	}

	request := []byte{0xF0, 0x43, 0x10, 0x08, 0x20, 0x7F, 0xF7}
	reply, err := s.RequestResponse(context.Background(), request, 0)
	if err != nil {
		t.Fatalf("RequestResponse: %v", err)
	}
	if string(reply) != string(request) {
		t.Errorf("reply = % X, want the echoed request", reply)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if client.stopped != 1 {
		t.Errorf("client stopped %d times, want 1", client.stopped)
	}
}

func TestNewSessionSelectError(t *testing.T) {
	boom := errors.New("port busy")
	client := &fakeClient{selectErr: boom}
	_, err := NewSession(client, 0, contracts.WithLogger(logger.NewNopLogger()))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped port error", err)
	}
	if client.sink != nil {
		t.Errorf("capture started after a failed selection")
	}
}

func TestNewSessionFileLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "midispec.log")
	client := &fakeClient{}
	s, err := NewSession(client, 0,
		contracts.WithLogFilePath(path),
		contracts.WithLogLevel(contracts.DebugLevel),
		contracts.WithSendDebounce(-1),
	)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Send(context.Background(), []byte{0xF0, 0x43, 0x10, 0x01, 0x02, 0x03, 0xF7}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("log file is empty after Close")
	}
}
