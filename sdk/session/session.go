// Package session pairs a MIDI port with a SysEx framer to offer
// fire-and-forget sends and blocking request/response exchanges.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/sysex"
	"go.uber.org/multierr"
)

const (
	DefaultResponseTimeout = 5 * time.Second
	DefaultSendDebounce    = 50 * time.Millisecond
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

type stopper interface {
	Stop() error
}

// Session sends frames through a contracts.Sender and receives replies
// reassembled by a sysex.Framer that the port feeds.
type Session struct {
	sender   contracts.Sender
	framer   *sysex.Framer
	log      contracts.Logger
	timeout  time.Duration
	debounce time.Duration

	// sendMu keeps multi-frame sequences contiguous on the wire.
	sendMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	onClose []func() error
}

// New builds a session. options may be nil; zero durations take the
// package defaults and a negative SendDebounce disables the pause.
func New(sender contracts.Sender, framer *sysex.Framer, options *contracts.ClientOptions) *Session {
	s := &Session{
		sender:   sender,
		framer:   framer,
		log:      logger.NewNopLogger(),
		timeout:  DefaultResponseTimeout,
		debounce: DefaultSendDebounce,
	}
	if options != nil {
		if options.Logger != nil {
			s.log = options.Logger
		}
		if options.ResponseTimeout > 0 {
			s.timeout = options.ResponseTimeout
		}
		switch {
		case options.SendDebounce < 0:
			s.debounce = 0
		case options.SendDebounce > 0:
			s.debounce = options.SendDebounce
		}
	}
	return s
}

// Framer returns the framer replies are read from.
func (s *Session) Framer() *sysex.Framer {
	return s.framer
}

// OnClose registers fn to run when the session closes.
func (s *Session) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, fn)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Send transmits frames in order, pausing for the debounce interval after
// each one so the instrument can process it. It does not wait for replies.
func (s *Session) Send(ctx context.Context, frames ...[]byte) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !sysex.Frame(frame).Valid() {
			return sysex.Malformed("send", "frame %d is not a sysex message: % X", i, frame)
		}
		if err := s.sender.Send(frame); err != nil {
			s.log.Error("failed to send sysex frame",
				s.log.Field().Binary("frame", frame),
				s.log.Field().Error("error", err))
			return fmt.Errorf("send frame %d: %w", i, err)
		}
		s.log.Debug("sysex frame sent", s.log.Field().Binary("frame", frame))

		if s.debounce > 0 {
			if err := sleep(ctx, s.debounce); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for the next frame. A timeout of zero or less uses the
// session default.
func (s *Session) Receive(ctx context.Context, timeout time.Duration) (sysex.Frame, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	frame, err := s.framer.Receive(ctx)
	if err != nil {
		if errors.Is(err, sysex.ErrTimeout) {
			s.log.Warn("no sysex reply", s.log.Field().Duration("timeout", timeout))
		}
		return nil, err
	}
	// the framer guarantees this; a violation means a broken producer
	if !frame.Valid() {
		return nil, sysex.Malformed("receive", "framer produced % X", []byte(frame))
	}
	return frame, nil
}

// RequestResponse discards stale frames, sends request and waits for the
// first frame that arrives afterwards. There are no retries.
func (s *Session) RequestResponse(ctx context.Context, request []byte, timeout time.Duration) (sysex.Frame, error) {
	s.Drain()
	if err := s.Send(ctx, request); err != nil {
		return nil, err
	}
	return s.Receive(ctx, timeout)
}

// Drain discards every queued frame and any partial frame.
func (s *Session) Drain() {
	if n := s.framer.Pending(); n > 0 {
		s.log.Debug("draining stale sysex frames", s.log.Field().Int("count", n))
	}
	s.framer.Reset()
}

// Stats reports the framer counters.
func (s *Session) Stats() sysex.FramerStats {
	return s.framer.Stats()
}

// Close stops the framer, which wakes blocked receivers with
// sysex.ErrStopped, then stops the port when it supports it and runs the
// OnClose hooks. Every failure is reported.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	hooks := s.onClose
	s.mu.Unlock()

	s.framer.Stop()

	var err error
	if st, ok := s.sender.(stopper); ok {
		err = multierr.Append(err, st.Stop())
	}
	for _, fn := range hooks {
		err = multierr.Append(err, fn())
	}
	if err != nil {
		s.log.Error("session closed with errors", s.log.Field().Error("error", err))
		return err
	}
	s.log.Info("session closed")
	return nil
}
