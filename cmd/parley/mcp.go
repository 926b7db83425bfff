package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/parley/pkg/adapters/mcp"
	"github.com/aretw0/parley/pkg/control"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <graph.yaml>",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Drives the engine and exposes it to AI agents as MCP tools: list_conversations, list_flags,
raise_flag and get_graph. The loaded graph is published as the parley://graph resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Logs go to stderr.
- sse: Uses Server-Sent Events over HTTP.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		starts, _ := cmd.Flags().GetStringSlice("start")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
		}

		relay := &runner.Relay{}
		eng, err := newEngine(cmd, args[0], cfg, logger, observability.LogHooks(logger), relay)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		driver := runner.NewDriver(eng, runner.WithDriverLogger(logger))
		relay.Attach(driver)
		driverErr := make(chan error, 1)
		go func() { driverErr <- driver.Run(ctx) }()
		defer func() {
			stop()
			<-driverErr
		}()

		err = driver.Call(ctx, func() error {
			for _, id := range starts {
				if _, err := eng.Start(id, runner.NewAutoListener(logger)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to start conversations: %w", err)
		}

		srv := mcp.NewServer(control.New(eng, driver, control.WithLogger(logger)),
			mcp.WithLogger(logger),
			mcp.WithVersion(Version),
		)
		if transport == "sse" {
			logger.Info("starting MCP server (SSE)", "port", port)
			return srv.ServeSSE(ctx, port)
		}
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().StringSlice("start", nil, "Conversations to play without a user")
}
