package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/panelstate/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes a state registry as an MCP Server, so agents can read and update
panel states as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			transport, _ := cmd.Flags().GetString("transport")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.restore(ctx); err != nil {
				return err
			}

			srv := mcp.NewServer(a.sessions, logger)

			switch transport {
			case "stdio":
				// Logs go to stderr so they don't corrupt JSON-RPC on stdout.
				logger.Info("Starting panelstate MCP Server (Stdio)")
				err = srv.ServeStdio()
			case "sse":
				logger.Info("Starting panelstate MCP Server (SSE)", "addr", cfg.HTTP.Addr)
				err = srv.ServeSSE(ctx, cfg.HTTP.Addr)
				if errors.Is(err, http.ErrServerClosed) {
					err = nil
				}
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
			if err != nil {
				return fmt.Errorf("MCP Server execution failed: %w", err)
			}

			if _, err := a.checkpoint(context.Background()); err != nil {
				logger.Error("checkpoint failed", "err", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		},
	}

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	return mcpCmd
}
