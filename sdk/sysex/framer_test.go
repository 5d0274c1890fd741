package sysex

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func receiveAll(t *testing.T, f *Framer) []Frame {
	t.Helper()
	var out []Frame
	for f.Pending() > 0 {
		frame, err := f.TryReceive(time.Second)
		if err != nil {
			t.Fatalf("TryReceive: %v", err)
		}
		out = append(out, frame)
	}
	return out
}

func TestFramerStreams(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  [][]byte
	}{
		{
			name:  "single frame",
			input: []byte{0xF0, 0x43, 0x10, 0x00, 0x01, 0x02, 0xF7},
			want:  [][]byte{{0xF0, 0x43, 0x10, 0x00, 0x01, 0x02, 0xF7}},
		},
		{
			name:  "real-time bytes interleaved",
			input: []byte{0xF0, 0x01, 0xF8, 0x02, 0xF8, 0xF7},
			want:  [][]byte{{0xF0, 0x01, 0x02, 0xF7}},
		},
		{
			name:  "every real-time byte",
			input: []byte{0xFE, 0xF0, 0xF8, 0x01, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xF7, 0xF8},
			want:  [][]byte{{0xF0, 0x01, 0xF7}},
		},
		{
			name:  "resync on second start",
			input: []byte{0xF0, 0x01, 0x02, 0xF0, 0x03, 0xF7},
			want:  [][]byte{{0xF0, 0x03, 0xF7}},
		},
		{
			name:  "noise while idle",
			input: []byte{0x01, 0x90, 0x40, 0x7F, 0xF7, 0xF0, 0x05, 0xF7, 0x33},
			want:  [][]byte{{0xF0, 0x05, 0xF7}},
		},
		{
			name:  "channel status aborts",
			input: []byte{0xF0, 0x01, 0x90, 0x40, 0xF7, 0xF0, 0x02, 0xF7},
			want:  [][]byte{{0xF0, 0x02, 0xF7}},
		},
		{
			name:  "undefined system bytes abort",
			input: []byte{0xF0, 0x01, 0xF9, 0xF7, 0xF0, 0x02, 0xFF, 0xF7},
			want:  nil,
		},
		{
			name:  "empty frame",
			input: []byte{0xF0, 0xF7},
			want:  [][]byte{{0xF0, 0xF7}},
		},
		{
			name:  "back to back",
			input: []byte{0xF0, 0x01, 0xF7, 0xF0, 0x02, 0xF7},
			want:  [][]byte{{0xF0, 0x01, 0xF7}, {0xF0, 0x02, 0xF7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer()
			f.FeedBytes(tt.input)
			got := receiveAll(t, f)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d frames %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if !bytes.Equal(got[i], tt.want[i]) {
					t.Errorf("frame %d = %v, want % X", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFramerStats(t *testing.T) {
	f := NewFramer(WithMaxFrameSize(4), WithMaxQueuedFrames(1))
	f.FeedBytes([]byte{
		0xF0, 0x01, 0xF0, 0xF7, // resync, then a frame
		0xF0, 0x01, 0x80, // aborted
		0xF0, 0x01, 0x02, 0x03, // overflow
		0xF0, 0x01, 0x02, 0xF7, // fits exactly, evicts the first
	})

	want := FramerStats{Frames: 2, Resyncs: 1, Aborted: 1, Overflows: 1, Dropped: 1}
	if got := f.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	frame, err := f.TryReceive(time.Second)
	if err != nil {
		t.Fatalf("TryReceive: %v", err)
	}
	if !bytes.Equal(frame, []byte{0xF0, 0x01, 0x02, 0xF7}) {
		t.Errorf("frame = %v, want the newest", frame)
	}
}

func TestFramerOutputIsAlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	f := NewFramer(WithMaxQueuedFrames(1 << 16))

	noise := make([]byte, 200000)
	for i := range noise {
		switch rng.Intn(10) {
		case 0:
			noise[i] = Start
		case 1:
			noise[i] = End
		case 2:
			noise[i] = byte(0x80 + rng.Intn(0x80))
		default:
			noise[i] = byte(rng.Intn(0x80))
		}
	}
	f.FeedBytes(noise)

	if f.Pending() == 0 {
		t.Fatal("no frames recovered from noise")
	}
	for _, frame := range receiveAll(t, f) {
		if !frame.Valid() {
			t.Fatalf("invalid frame %v", frame)
		}
	}
}

func TestFramerFramesAreIndependentCopies(t *testing.T) {
	f := NewFramer()
	f.FeedBytes([]byte{0xF0, 0x01, 0xF7})
	first, _ := f.TryReceive(time.Second)
	f.FeedBytes([]byte{0xF0, 0x02, 0xF7})
	second, _ := f.TryReceive(time.Second)

	if first[1] != 0x01 || second[1] != 0x02 {
		t.Errorf("frames share storage: %v %v", first, second)
	}
}

func TestTryReceiveTimesOut(t *testing.T) {
	const slack = 250 * time.Millisecond

	f := NewFramer()
	f.FeedBytes([]byte{0xF0, 0x01, 0x02}) // never terminated

	start := time.Now()
	_, err := f.TryReceive(100 * time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("TryReceive error = %v, want ErrTimeout", err)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("returned after %v, before the deadline", elapsed)
	}
	if elapsed > 100*time.Millisecond+slack {
		t.Errorf("returned after %v, well past the deadline", elapsed)
	}
}

func TestReceiveCancelled(t *testing.T) {
	f := NewFramer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Receive(ctx); !errors.Is(err, context.Canceled) || errors.Is(err, ErrTimeout) {
		t.Errorf("Receive error = %v, want context.Canceled", err)
	}
}

func TestReceiveWakesOnFeed(t *testing.T) {
	f := NewFramer()
	done := make(chan Frame)
	go func() {
		frame, err := f.TryReceive(5 * time.Second)
		if err != nil {
			t.Errorf("TryReceive: %v", err)
		}
		done <- frame
	}()

	time.Sleep(20 * time.Millisecond)
	f.FeedBytes([]byte{0xF0, 0x7F, 0xF7})

	select {
	case frame := <-done:
		if !bytes.Equal(frame, []byte{0xF0, 0x7F, 0xF7}) {
			t.Errorf("frame = %v", frame)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer was not woken")
	}
}

func TestStopWakesAllConsumers(t *testing.T) {
	f := NewFramer()

	const consumers = 4
	var wg sync.WaitGroup
	errs := make(chan error, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.TryReceive(10 * time.Second)
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	f.Stop()
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrStopped) {
			t.Errorf("consumer error = %v, want ErrStopped", err)
		}
	}

	f.FeedBytes([]byte{0xF0, 0x01, 0xF7})
	if f.Pending() != 0 {
		t.Errorf("stopped framer accepted a frame")
	}

	f.Start()
	f.FeedBytes([]byte{0xF0, 0x01, 0xF7})
	if _, err := f.TryReceive(time.Second); err != nil {
		t.Errorf("TryReceive after Start: %v", err)
	}
}

func TestStartAndResetClearState(t *testing.T) {
	f := NewFramer()
	f.FeedBytes([]byte{0xF0, 0x01, 0xF7, 0xF0, 0x02})
	f.Reset()
	f.FeedBytes([]byte{0x03, 0xF7})
	if f.Pending() != 0 {
		t.Errorf("Reset kept a frame or a partial buffer")
	}

	f.FeedBytes([]byte{0xF0, 0x04})
	f.Stop()
	f.Start()
	f.FeedBytes([]byte{0x05, 0xF7})
	if f.Pending() != 0 {
		t.Errorf("Start kept the partial buffer")
	}
}

func TestReceiveDiscardsInvalidHeads(t *testing.T) {
	f := NewFramer()
	f.mu.Lock()
	f.queue = append(f.queue, Frame{0x43, 0xF7}, Frame{0xF0, 0x80, 0xF7}, Frame{0xF0, 0x01, 0xF7})
	f.mu.Unlock()

	frame, err := f.TryReceive(time.Second)
	if err != nil {
		t.Fatalf("TryReceive: %v", err)
	}
	if !bytes.Equal(frame, []byte{0xF0, 0x01, 0xF7}) {
		t.Errorf("frame = %v", frame)
	}
	if got := f.Stats().Discarded; got != 2 {
		t.Errorf("Discarded = %d, want 2", got)
	}
}

func TestFramerLogsResync(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.NewZapLoggerWithCore(core)
	l.SetLevel(contracts.DebugLevel)

	f := NewFramer(WithLogger(l))
	f.FeedBytes([]byte{0xF0, 0x01, 0xF0, 0xF7})

	if n := logs.FilterMessageSnippet("resynchronising").Len(); n != 1 {
		t.Errorf("got %d resync log entries, want 1", n)
	}
}

func TestConcurrentProducerAndConsumers(t *testing.T) {
	f := NewFramer(WithMaxQueuedFrames(1024))
	const frames = 500

	var wg sync.WaitGroup
	var mu sync.Mutex
	received := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := f.TryReceive(200 * time.Millisecond); err != nil {
					return
				}
				mu.Lock()
				received++
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < frames; i++ {
		f.FeedBytes([]byte{0xF0, byte(i & 0x7F), 0xF8, 0xF7})
	}
	wg.Wait()

	if received != frames {
		t.Errorf("received %d frames, want %d", received, frames)
	}
}

func TestFramerDefaults(t *testing.T) {
	f := NewFramer()
	if f.maxFrameSize != DefaultMaxFrameSize || f.maxQueued != DefaultMaxQueuedFrames {
		t.Errorf("limits = %d/%d, want %d/%d", f.maxFrameSize, f.maxQueued, DefaultMaxFrameSize, DefaultMaxQueuedFrames)
	}
	if got := f.Stats(); got != (FramerStats{}) {
		t.Errorf("fresh Stats() = %+v, want zero", got)
	}
}
