package main

import (
	"github.com/leandrodaf/midispec/internal/logger"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	log := logger.NewZapLogger()

	s := newServer(log)
	log.Info("Serving SysEx codec tools on stdio")
	if err := server.ServeStdio(s); err != nil {
		log.Error("MCP server stopped", log.Field().Error("error", err))
	}
}
