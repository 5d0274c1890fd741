package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/dx7"
	"github.com/leandrodaf/midispec/sdk/session"
	"github.com/leandrodaf/midispec/sdk/sysex"
)

// instrument emulates the DX7 end of the cable: it keeps an edit buffer
// and a voice memory and streams its bank back, clock bytes included.
type instrument struct {
	sink contracts.ByteSink
	dev  dx7.Device

	mu      sync.Mutex
	edit    dx7.Patch
	bank    dx7.Bank
	storing bool
}

func (in *instrument) Send(frame []byte) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if _, p, err := dx7.DecodeVoice(frame); err == nil {
		in.edit = p
		return nil
	}
	c, err := dx7.DecodeParameter(frame)
	if err != nil {
		return err
	}
	if !c.IsButton() {
		return c.Apply(&in.edit)
	}
	_, b, pressed, _ := dx7.DecodeButton(frame)
	switch {
	case b == dx7.ButtonStore:
		in.storing = pressed
	case pressed && in.storing && c.Number < 32:
		in.bank[c.Number] = in.edit
	case pressed && b == dx7.ButtonYes:
		dump, err := dx7.EncodeBank(in.dev, &in.bank)
		if err != nil {
			return err
		}
		go func() {
			for i, by := range dump {
				if i%512 == 0 {
					in.sink.Feed(0xF8)
				}
				in.sink.Feed(by)
			}
		}()
	}
	return nil
}

func TestRemoteOverSession(t *testing.T) {
	framer := sysex.NewFramer()
	dev := bounded.Must(dx7.NewDevice(0))
	port := &instrument{sink: framer, dev: dev}
	s := session.New(port, framer, &contracts.ClientOptions{SendDebounce: -1, ResponseTimeout: 2 * time.Second})
	defer s.Close()

	remote := dx7.NewRemote(s, dev, dx7.WithTimeout(2*time.Second))
	slot := bounded.Must(dx7.NewSlot(31))
	ctx := context.Background()

	if err := remote.SendVoice(ctx, dx7.InitVoice()); err != nil {
		t.Fatal(err)
	}
	change := dx7.OpFrequencyCoarse.Encode(nil, dev, dx7.OP4, bounded.Must(bounded.New[uint8, dx7.FrequencyCoarseRange](17)))
	err := remote.VerifyParameter(ctx, change, slot, func(p *dx7.Patch) bool {
		return p.Op(dx7.OP4).FrequencyCoarse.Value() == 17 && p.Name.String() == "INIT VOICE"
	})
	if err != nil {
		t.Fatalf("VerifyParameter: %v", err)
	}

	if stats := s.Stats(); stats.Frames != 1 {
		t.Errorf("framer stats = %+v, want exactly the bank", stats)
	}
}
