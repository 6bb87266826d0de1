// Copyright 2025 Minseo Park
//
// Serve command: run the MCP server until signalled

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minseopark/chatgpt-use-mcp/internal/chatgpt"
	"github.com/minseopark/chatgpt-use-mcp/internal/config"
	"github.com/minseopark/chatgpt-use-mcp/internal/server"
	"github.com/minseopark/chatgpt-use-mcp/internal/transport"
)

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	client := chatgpt.NewClient()
	mcpServer, err := server.NewMCPServer(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	tr := buildTransport(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mcpServer.Serve(tr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", zap.String("reason", ctx.Err().Error()))
		mcpServer.Shutdown()
		return tr.Close()
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server exited", zap.Error(err))
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

// buildLogger builds the operational logger. Logs go to stderr so the stdio
// transport keeps stdout to itself.
func buildLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

func buildTransport(cfg *config.Config, logger *zap.Logger) transport.Transport {
	if cfg.Transport == config.TransportHTTP {
		return transport.NewHTTPTransport(&transport.HTTPConfig{
			Address:           cfg.HTTPAddress,
			SocketPath:        cfg.HTTPSocketPath,
			CORSOrigin:        cfg.CORSOrigin,
			HeartbeatInterval: cfg.HeartbeatInterval,
			ReadTimeout:       cfg.HTTPReadTimeout,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			RateLimit:         cfg.RateLimit,
		}, logger)
	}
	return transport.NewStdioTransport(os.Stdin, os.Stdout, logger)
}
