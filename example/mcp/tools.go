package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leandrodaf/midispec/sdk/bounded"
	"github.com/leandrodaf/midispec/sdk/contracts"
	"github.com/leandrodaf/midispec/sdk/dx7"
	"github.com/leandrodaf/midispec/sdk/spx90"
	"github.com/leandrodaf/midispec/sdk/sysex"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newServer(log contracts.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"midispec",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("sysex_split-stream",
		mcp.WithDescription("Reassembles complete SysEx frames from a raw MIDI byte stream given as hex."),
		mcp.WithString("stream", mcp.Required(), mcp.Description("Raw MIDI bytes as hex, spaces allowed.")),
	), logged(log, "sysex_split-stream", splitStream))

	s.AddTool(mcp.NewTool("dx7_decode-voice",
		mcp.WithDescription("Decodes a DX7 single voice bulk dump (format 0) into a JSON patch."),
		mcp.WithString("frame", mcp.Required(), mcp.Description("The SysEx frame as hex.")),
	), logged(log, "dx7_decode-voice", decodeVoice))

	s.AddTool(mcp.NewTool("dx7_encode-voice",
		mcp.WithDescription("Encodes a JSON patch as a DX7 single voice bulk dump."),
		mcp.WithNumber("device", mcp.Required(), mcp.Description("MIDI device number 0-15.")),
		mcp.WithString("patch-json", mcp.Required(), mcp.Description("The patch in the JSON form returned by dx7_decode-voice.")),
	), logged(log, "dx7_encode-voice", encodeVoice))

	s.AddTool(mcp.NewTool("dx7_decode-bank",
		mcp.WithDescription("Decodes a DX7 32 voice bank dump (format 9) and lists the voices."),
		mcp.WithString("frame", mcp.Required(), mcp.Description("The SysEx frame as hex.")),
	), logged(log, "dx7_decode-bank", decodeBank))

	s.AddTool(mcp.NewTool("dx7_decode-parameter",
		mcp.WithDescription("Decodes a DX7 parameter change or button message."),
		mcp.WithString("frame", mcp.Required(), mcp.Description("The SysEx frame as hex.")),
	), logged(log, "dx7_decode-parameter", decodeParameter))

	s.AddTool(mcp.NewTool("spx90_decode-program",
		mcp.WithDescription("Decodes an SPX90 effect program dump into JSON."),
		mcp.WithString("frame", mcp.Required(), mcp.Description("The SysEx frame as hex.")),
	), logged(log, "spx90_decode-program", decodeProgram))

	return s
}

func logged(log contracts.Logger, name string, h handler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log.Debug("Handling tool call", log.Field().String("tool", name))
		result, err := h(ctx, request)
		if err != nil {
			log.Warn("Tool call failed", log.Field().String("tool", name), log.Field().Error("error", err))
		}
		return result, err
	}
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", "\n", "", "\t", "", ",", "").Replace(s)
	return hex.DecodeString(s)
}

func frameArg(request mcp.CallToolRequest, name string) ([]byte, *mcp.CallToolResult) {
	text, err := request.RequireString(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	data, err := parseHex(text)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%s is not hex: %v", name, err))
	}
	return data, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func splitStream(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stream, bad := frameArg(request, "stream")
	if bad != nil {
		return bad, nil
	}

	framer := sysex.NewFramer(sysex.WithMaxQueuedFrames(len(stream)/2 + 1))
	framer.FeedBytes(stream)

	frames := []string{}
	for framer.Pending() > 0 {
		f, err := framer.TryReceive(0)
		if err != nil {
			break
		}
		frames = append(frames, f.String())
	}
	return jsonResult(struct {
		Frames []string          `json:"frames"`
		Stats  sysex.FramerStats `json:"stats"`
	}{frames, framer.Stats()})
}

func decodeVoice(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame, bad := frameArg(request, "frame")
	if bad != nil {
		return bad, nil
	}
	dev, patch, err := dx7.DecodeVoice(frame)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		Device dx7.Device `json:"device"`
		Patch  dx7.Patch  `json:"patch"`
	}{dev, patch})
}

func encodeVoice(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	device, err := request.RequireInt("device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patchJSON, err := request.RequireString("patch-json")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if device < 0 || device > sysex.MaxDevice {
		return mcp.NewToolResultError(fmt.Sprintf("device %d not in [0, %d]", device, sysex.MaxDevice)), nil
	}
	dev := bounded.Must(dx7.NewDevice(uint8(device)))

	patch := dx7.InitVoice()
	if err := json.Unmarshal([]byte(patchJSON), &patch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid patch JSON: %v", err)), nil
	}
	frame, err := dx7.EncodeVoice(dev, patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sysex.Frame(frame).String()), nil
}

func decodeBank(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame, bad := frameArg(request, "frame")
	if bad != nil {
		return bad, nil
	}
	dev, bank, err := dx7.DecodeBank(frame)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type voice struct {
		Slot      int           `json:"slot"`
		Name      string        `json:"name"`
		Algorithm dx7.Algorithm `json:"algorithm"`
	}
	voices := make([]voice, len(bank))
	for i := range bank {
		voices[i] = voice{Slot: i + 1, Name: bank[i].Name.String(), Algorithm: bank[i].Algorithm}
	}
	return jsonResult(struct {
		Device dx7.Device `json:"device"`
		Voices []voice    `json:"voices"`
	}{dev, voices})
}

func decodeParameter(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame, bad := frameArg(request, "frame")
	if bad != nil {
		return bad, nil
	}
	change, err := dx7.DecodeParameter(frame)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := struct {
		Device   dx7.Device `json:"device"`
		Group    string     `json:"group"`
		Number   int        `json:"number"`
		Name     string     `json:"name"`
		Data     byte       `json:"data"`
		Operator *int       `json:"operator,omitempty"`
		IsButton bool       `json:"isButton"`
	}{
		Device:   change.Device,
		Group:    change.Group.String(),
		Number:   change.Number,
		Name:     change.Name(),
		Data:     change.Data,
		IsButton: change.IsButton(),
	}
	if op, ok := change.Operator(); ok {
		n := int(op.Value()) + 1
		result.Operator = &n
	}
	return jsonResult(result)
}

func decodeProgram(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	frame, bad := frameArg(request, "frame")
	if bad != nil {
		return bad, nil
	}
	dev, program, err := spx90.DecodeProgram(frame)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		Device  spx90.Device  `json:"device"`
		Kind    string        `json:"kind"`
		Name    string        `json:"name"`
		Program spx90.Program `json:"program"`
	}{dev, program.Kind().String(), spx90.Name(program).String(), program})
}
