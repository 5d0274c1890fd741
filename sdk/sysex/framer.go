package sysex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
)

const (
	// DefaultMaxFrameSize caps a frame, delimiters included.
	DefaultMaxFrameSize = 8192
	// DefaultMaxQueuedFrames is the queue depth before the oldest frame is dropped.
	DefaultMaxQueuedFrames = 64
)

// FramerStats counts what the framer did with the bytes it was fed.
type FramerStats struct {
	// Frames completed and queued
	Frames uint64
	// Resyncs is the number of partial frames abandoned because a new 0xF0 arrived
	Resyncs uint64
	// Aborted partial frames interrupted by a non-real-time status byte
	Aborted uint64
	// Overflows is the number of partial frames discarded at the size limit
	Overflows uint64
	// Dropped completed frames evicted from a full queue
	Dropped uint64
	// Discarded queue heads that failed validation at receive time
	Discarded uint64
}

// FramerOption configures a Framer.
type FramerOption func(*Framer)

// WithLogger sets the logger used for resync and overflow reports.
func WithLogger(l contracts.Logger) FramerOption {
	return func(f *Framer) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMaxFrameSize bounds a frame, 0xF0 and 0xF7 included.
func WithMaxFrameSize(n int) FramerOption {
	return func(f *Framer) {
		if n >= 2 {
			f.maxFrameSize = n
		}
	}
}

// WithMaxQueuedFrames bounds the number of completed frames waiting to be received.
func WithMaxQueuedFrames(n int) FramerOption {
	return func(f *Framer) {
		if n > 0 {
			f.maxQueued = n
		}
	}
}

// Framer reassembles SysEx frames from a raw MIDI byte stream.
//
// Feed is meant to be called from a single producer, usually the port's
// input callback; any number of goroutines may block in Receive. A Framer
// starts in the running state.
type Framer struct {
	log          contracts.Logger
	maxFrameSize int
	maxQueued    int

	mu      sync.Mutex
	partial []byte
	open    bool
	queue   []Frame
	stopped bool
	// notify is closed and replaced on every enqueue and on Stop.
	notify chan struct{}
	stats  FramerStats
}

// NewFramer returns a running framer.
func NewFramer(opts ...FramerOption) *Framer {
	f := &Framer{
		log:          logger.NewNopLogger(),
		maxFrameSize: DefaultMaxFrameSize,
		maxQueued:    DefaultMaxQueuedFrames,
		notify:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Feed consumes one byte of the input stream. It never blocks on consumers.
// Bytes fed while the framer is stopped are ignored.
func (f *Framer) Feed(b byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feed(b)
}

// FeedBytes consumes p in order under a single lock acquisition.
func (f *Framer) FeedBytes(p []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range p {
		f.feed(b)
	}
}

func (f *Framer) feed(b byte) {
	if f.stopped || IsRealTime(b) {
		return
	}

	switch {
	case b == Start:
		if f.open {
			f.stats.Resyncs++
			f.log.Debug("sysex start inside open frame, resynchronising",
				f.log.Field().Int("discarded", len(f.partial)))
		}
		f.partial = append(f.partial[:0], Start)
		f.open = true

	case !f.open:
		// noise between frames

	case b == End:
		frame := make(Frame, len(f.partial)+1)
		copy(frame, f.partial)
		frame[len(frame)-1] = End
		f.close()
		f.enqueue(frame)

	case IsStatus(b):
		f.stats.Aborted++
		f.log.Debug("status byte inside sysex, frame aborted",
			f.log.Field().Uint8("status", b),
			f.log.Field().Int("discarded", len(f.partial)))
		f.close()

	case len(f.partial)+2 > f.maxFrameSize:
		// one more data byte would leave no room for 0xF7
		f.stats.Overflows++
		f.log.Warn("sysex frame exceeds size limit, discarded",
			f.log.Field().Int("limit", f.maxFrameSize))
		f.close()

	default:
		f.partial = append(f.partial, b)
	}
}

func (f *Framer) close() {
	f.partial = f.partial[:0]
	f.open = false
}

func (f *Framer) enqueue(frame Frame) {
	if len(f.queue) >= f.maxQueued {
		f.stats.Dropped++
		f.log.Warn("sysex queue full, dropping oldest frame",
			f.log.Field().Int("queued", len(f.queue)))
		f.queue[0] = nil
		f.queue = f.queue[1:]
	}
	f.queue = append(f.queue, frame)
	f.stats.Frames++
	f.broadcast()
}

func (f *Framer) broadcast() {
	close(f.notify)
	f.notify = make(chan struct{})
}

// Receive blocks until a complete frame is available, ctx is done or the
// framer is stopped. When ctx ends by deadline the error wraps ErrTimeout.
func (f *Framer) Receive(ctx context.Context) (Frame, error) {
	for {
		f.mu.Lock()
		if f.stopped {
			f.mu.Unlock()
			return nil, ErrStopped
		}
		for len(f.queue) > 0 {
			head := f.queue[0]
			f.queue[0] = nil
			f.queue = f.queue[1:]
			if head.Valid() {
				f.mu.Unlock()
				return head, nil
			}
			f.stats.Discarded++
		}
		wait := f.notify
		f.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
			}
			return nil, ctx.Err()
		}
	}
}

// TryReceive is Receive with a deadline of now+timeout.
func (f *Framer) TryReceive(timeout time.Duration) (Frame, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return f.Receive(ctx)
}

// Stop wakes every blocked consumer with ErrStopped. Queued frames are kept
// until the next Start.
func (f *Framer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.stopped = true
	f.close()
	f.broadcast()
}

// Start clears all buffered state and resumes accepting bytes.
func (f *Framer) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = false
	f.close()
	f.queue = nil
}

// Reset discards the partial frame and every queued frame.
func (f *Framer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.close()
	f.queue = nil
}

// Pending returns the number of queued frames.
func (f *Framer) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Stats returns a snapshot of the counters.
func (f *Framer) Stats() FramerStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
