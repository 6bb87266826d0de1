// Copyright 2025 Minseo Park
//
// MCP server exposing the ChatGPT desktop app over JSON-RPC 2.0 (stdio or HTTP/SSE)

package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
