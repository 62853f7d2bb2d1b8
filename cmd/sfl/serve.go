package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/sfl/internal/api"
	"github.com/pbaille/sfl/internal/mcp"
	"github.com/pbaille/sfl/internal/observability"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST and MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			shutdownTracing, err := observability.Init(ctx, a.log, observability.Config{
				Enabled:     cfg.Otel.Enabled,
				Exporter:    cfg.Otel.Exporter,
				Endpoint:    cfg.Otel.Endpoint,
				Insecure:    cfg.Otel.Insecure,
				ServiceName: "sfl",
				Version:     version,
			})
			if err != nil {
				_ = a.close(ctx)
				return err
			}

			if cfg.APIKey == "" {
				a.log.Warn("no api_key configured; only issued tokens are accepted")
			}

			srv := api.New(api.Config{
				Addr:        cfg.Addr,
				APIKey:      cfg.APIKey,
				CORSOrigins: cfg.CORS.Origins,
				ServiceName: "sfl",
			}, a.svc, a.store, mcp.NewServer(a.svc, version, a.log), a.log)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Run)
			g.Go(func() error {
				<-gctx.Done()
				a.log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
				defer cancel()

				err := srv.Shutdown(shutdownCtx)
				if cerr := a.close(shutdownCtx); cerr != nil {
					a.log.Error("close app", "error", cerr)
				}
				if terr := shutdownTracing(shutdownCtx); terr != nil {
					a.log.Warn("tracing shutdown", "error", terr)
				}
				return err
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringP("addr", "a", "", "server address (default :8080)")
	_ = v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

// mcpCmd serves the tool catalog over stdin/stdout. Logs go to stderr.
func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
				defer cancel()
				_ = a.close(shutdownCtx)
			}()

			srv := mcp.NewStdioServer(a.svc, version)
			return srv.Run(ctx, &gomcp.StdioTransport{})
		},
	}
}
