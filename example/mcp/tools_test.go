package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/dx7"
	"github.com/leandrodaf/midispec/sdk/sysex"
	"github.com/mark3labs/mcp-go/mcp"
)

func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	result, err := h(context.Background(), request)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("got %d content items, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestSplitStream(t *testing.T) {
	out, isErr := call(t, splitStream, map[string]any{"stream": "F0 01 F8 02 F8 F7 90 40 F0 03"})
	if isErr {
		t.Fatalf("tool error: %s", out)
	}

	var got struct {
		Frames []string          `json:"frames"`
		Stats  sysex.FramerStats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(got.Frames) != 1 || got.Frames[0] != "F0 01 02 F7" {
		t.Errorf("frames = %q, want [F0 01 02 F7]", got.Frames)
	}
	if got.Stats.Frames != 1 {
		t.Errorf("stats.Frames = %d, want 1", got.Stats.Frames)
	}
}

func TestDecodeParameterTool(t *testing.T) {
	dev := bounded.Must(dx7.NewDevice(3))
	frame := dx7.OpEGRate1.Encode(nil, dev, dx7.OP6, bounded.Must(dx7.NewLevel(42)))

	out, isErr := call(t, decodeParameter, map[string]any{"frame": sysex.Frame(frame).String()})
	if isErr {
		t.Fatalf("tool error: %s", out)
	}

	var got struct {
		Device   int  `json:"device"`
		Number   int  `json:"number"`
		Data     int  `json:"data"`
		Operator *int `json:"operator"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got.Device != 3 || got.Number != 0 || got.Data != 42 {
		t.Errorf("decoded %+v, want device 3 number 0 data 42", got)
	}
	if got.Operator == nil || *got.Operator != 6 {
		t.Errorf("operator = %v, want 6", got.Operator)
	}
}

func TestVoiceToolsRoundTrip(t *testing.T) {
	patch := dx7.InitVoice()
	patch.Name = sysex.MustName("E.PIANO 1")
	patch.Algorithm = bounded.Must(bounded.New[uint8, dx7.AlgorithmRange](4))
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	encoded, isErr := call(t, encodeVoice, map[string]any{"device": 1, "patch-json": string(patchJSON)})
	if isErr {
		t.Fatalf("encode tool error: %s", encoded)
	}

	out, isErr := call(t, decodeVoice, map[string]any{"frame": encoded})
	if isErr {
		t.Fatalf("decode tool error: %s", out)
	}
	var got struct {
		Device int       `json:"device"`
		Patch  dx7.Patch `json:"patch"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got.Device != 1 {
		t.Errorf("device = %d, want 1", got.Device)
	}
	if got.Patch != patch {
		t.Errorf("patch did not survive the tool round trip")
	}
}

func TestToolErrors(t *testing.T) {
	tests := []struct {
		name string
		h    handler
		args map[string]any
		want string
	}{
		{"not hex", decodeVoice, map[string]any{"frame": "F0 zz F7"}, "not hex"},
		{"missing argument", decodeBank, map[string]any{}, "frame"},
		{"wrong format", decodeBank, map[string]any{"frame": "F0 43 10 00 00 00 F7"}, "malformed"},
		{"device out of range", encodeVoice, map[string]any{"device": 16, "patch-json": "{}"}, "device 16"},
		{"bad patch json", encodeVoice, map[string]any{"device": 0, "patch-json": "{"}, "invalid patch JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, isErr := call(t, tt.h, tt.args)
			if !isErr {
				t.Fatalf("expected a tool error, got %s", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("error %q does not mention %q", out, tt.want)
			}
		})
	}
}
