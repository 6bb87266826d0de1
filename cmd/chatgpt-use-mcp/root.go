// Copyright 2025 Minseo Park
//
// Root command and flag wiring

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minseopark/chatgpt-use-mcp/internal/config"
)

var (
	flagTransport string
	flagAddress   string
	flagDebug     bool

	rootCmd = &cobra.Command{
		Use:   "chatgpt-use-mcp",
		Short: "Drive the ChatGPT desktop app over MCP",
		Long: `chatgpt-use-mcp serves MCP tools that automate the macOS ChatGPT
desktop app through the accessibility tree: send a prompt, wait for the
typing cursor to settle, and return the reply.

With no subcommand it serves MCP on stdio (or HTTP/SSE, see --transport).
Configuration comes from CHATGPT_MCP_* environment variables; flags
override the environment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
)

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagTransport, "transport", "", "transport to serve on: stdio or sse")
	rootCmd.PersistentFlags().StringVar(&flagAddress, "address", "", "listen address for the sse transport (host:port)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// loadConfig loads the environment configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagTransport != "" {
		cfg.Transport = config.TransportType(flagTransport)
	}
	if flagAddress != "" {
		cfg.HTTPAddress = flagAddress
	}
	if flagDebug {
		cfg.Debug = true
	}
	if cfg.Transport != config.TransportStdio && cfg.Transport != config.TransportHTTP {
		return nil, fmt.Errorf("invalid transport: %s (must be stdio or sse)", cfg.Transport)
	}
	if cfg.Transport == config.TransportHTTP && cfg.HTTPAddress == "" && cfg.HTTPSocketPath == "" {
		return nil, fmt.Errorf("sse transport requires --address or CHATGPT_MCP_HTTP_ADDRESS")
	}
	return cfg, nil
}
