package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	serveradapter "github.com/evanschultz/taskdeck/internal/adapters/server"
	"github.com/spf13/cobra"
)

// serveCommandRunner starts the MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func mcpCmd(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var bind, endpoint string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve list and detail tools over MCP streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			rt.logger.Info("command flow start", "command", "mcp", "bind", bind, "endpoint", endpoint)
			err = serveCommandRunner(ctx, serveradapter.Config{
				HTTPBind:      bind,
				MCPEndpoint:   endpoint,
				ServerName:    opts.appName,
				ServerVersion: version,
			}, serveradapter.Dependencies{
				Tasks: rt.svc,
				Ready: func() bool {
					_, ok := rt.sessions.Current()
					return ok
				},
				Logger: rt.logger,
			})
			if err != nil {
				rt.logger.Error("command flow failed", "command", "mcp", "err", err)
				return fmt.Errorf("run mcp server: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "mcp")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (default 127.0.0.1:8765)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "/mcp", "MCP endpoint path")
	return cmd
}
