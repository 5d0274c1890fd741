package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/sysex"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// loopback answers every sent frame through reply and feeds the answer
// back into the framer, as a port's input callback would.
type loopback struct {
	framer *sysex.Framer
	reply  func(sent []byte) []byte

	mu      sync.Mutex
	sent    [][]byte
	sendErr error
	stopErr error
	stopped bool
}

func (l *loopback) Send(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, append([]byte(nil), data...))
	if l.reply != nil {
		if answer := l.reply(data); answer != nil {
			go l.framer.FeedBytes(answer)
		}
	}
	return nil
}

func (l *loopback) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return l.stopErr
}

func newTestSession(reply func([]byte) []byte, opts ...contracts.Option) (*Session, *loopback) {
	options := &contracts.ClientOptions{SendDebounce: -1}
	for _, opt := range opts {
		opt(options)
	}
	framer := sysex.NewFramer()
	port := &loopback{framer: framer, reply: reply}
	return New(port, framer, options), port
}

func TestDefaults(t *testing.T) {
	s := New(&loopback{}, sysex.NewFramer(), nil)
	if s.timeout != DefaultResponseTimeout || s.debounce != DefaultSendDebounce {
		t.Errorf("timeout %v debounce %v", s.timeout, s.debounce)
	}

	s = New(&loopback{}, sysex.NewFramer(), &contracts.ClientOptions{ResponseTimeout: time.Second, SendDebounce: -1})
	if s.timeout != time.Second || s.debounce != 0 {
		t.Errorf("timeout %v debounce %v", s.timeout, s.debounce)
	}
}

func TestRequestResponse(t *testing.T) {
	request := []byte{0xF0, 0x43, 0x20, 0x09, 0xF7}
	answer := []byte{0xF0, 0x43, 0x00, 0x09, 0x00, 0x01, 0x05, 0x7B, 0xF7}

	s, port := newTestSession(func(sent []byte) []byte {
		if bytes.Equal(sent, request) {
			// clock bytes interleaved as a running sequencer would
			return []byte{0xF8, 0xF0, 0x43, 0x00, 0xF8, 0x09, 0x00, 0x01, 0x05, 0xFE, 0x7B, 0xF7}
		}
		return nil
	})
	s.Framer().FeedBytes([]byte{0xF0, 0x01, 0xF7}) // stale

	frame, err := s.RequestResponse(context.Background(), request, time.Second)
	if err != nil {
		t.Fatalf("RequestResponse: %v", err)
	}
	if !bytes.Equal(frame, answer) {
		t.Errorf("reply = %v, want % X", frame, answer)
	}
	if len(port.sent) != 1 {
		t.Errorf("sent %d frames, want 1", len(port.sent))
	}
}

func TestReceiveTimeout(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, _ := newTestSession(nil, contracts.WithLogger(logger.NewZapLoggerWithCore(core)))

	const slack = 250 * time.Millisecond

	start := time.Now()
	_, err := s.RequestResponse(context.Background(), []byte{0xF0, 0xF7}, 50*time.Millisecond)
	elapsed := time.Since(start)
	if !errors.Is(err, sysex.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
	if elapsed > 50*time.Millisecond+slack {
		t.Errorf("returned after %v, well past the timeout", elapsed)
	}
	if logs.FilterMessage("no sysex reply").Len() != 1 {
		t.Errorf("timeout not logged")
	}
}

func TestReceiveUsesDefaultTimeout(t *testing.T) {
	s, _ := newTestSession(nil, contracts.WithResponseTimeout(30*time.Millisecond))
	start := time.Now()
	if _, err := s.Receive(context.Background(), 0); !errors.Is(err, sysex.ErrTimeout) {
		t.Fatalf("error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond || elapsed > 5*time.Second {
		t.Errorf("waited %v", elapsed)
	}
}

func TestSendDebounce(t *testing.T) {
	s, port := newTestSession(nil, contracts.WithSendDebounce(20*time.Millisecond))
	frames := [][]byte{{0xF0, 0x01, 0xF7}, {0xF0, 0x02, 0xF7}, {0xF0, 0x03, 0xF7}}

	start := time.Now()
	if err := s.Send(context.Background(), frames...); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("three frames sent in %v, want at least 60ms", elapsed)
	}
	if len(port.sent) != 3 || port.sent[2][1] != 0x03 {
		t.Errorf("sent %v", port.sent)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, frames...); !errors.Is(err, context.Canceled) {
		t.Errorf("Send with cancelled context = %v", err)
	}
}

func TestSendRejects(t *testing.T) {
	s, port := newTestSession(nil)
	if err := s.Send(context.Background(), []byte{0x90, 0x40, 0x7F}); !errors.Is(err, sysex.ErrMalformedFrame) {
		t.Errorf("Send(note on) = %v", err)
	}
	if len(port.sent) != 0 {
		t.Errorf("invalid frame reached the port")
	}

	boom := errors.New("port unplugged")
	port.sendErr = boom
	if err := s.Send(context.Background(), []byte{0xF0, 0xF7}); !errors.Is(err, boom) {
		t.Errorf("Send error = %v, want the port error", err)
	}
}

func TestCloseWakesReceiversAndStopsPort(t *testing.T) {
	s, port := newTestSession(nil)
	port.stopErr = errors.New("stop failed")
	hookErr := errors.New("hook failed")
	s.OnClose(func() error { return hookErr })

	done := make(chan error)
	go func() {
		_, err := s.Receive(context.Background(), 10*time.Second)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	err := s.Close()
	if len(multierr.Errors(err)) != 2 || !errors.Is(err, hookErr) {
		t.Errorf("Close error = %v, want both failures", err)
	}
	if !port.stopped {
		t.Errorf("port not stopped")
	}

	select {
	case err := <-done:
		if !errors.Is(err, sysex.ErrStopped) {
			t.Errorf("blocked Receive = %v, want ErrStopped", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not wake the receiver")
	}

	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := s.Send(context.Background(), []byte{0xF0, 0xF7}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v", err)
	}
	if _, err := s.Receive(context.Background(), time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive after Close = %v", err)
	}
}
