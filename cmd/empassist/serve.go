package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpAdapter "github.com/empassist/empassist/internal/adapters/http"
	"github.com/empassist/empassist/internal/config"
	"github.com/empassist/empassist/internal/enginehost"
	"github.com/empassist/empassist/internal/metrics"
	"github.com/empassist/empassist/pkg/agents"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	Long: `Starts the POST /chat endpoint. By default turns are submitted to the
configured remote agents platform; with --local the rule-based dialogue engine
runs in-process instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}
		local, _ := cmd.Flags().GetBool("local")

		logger := createLogger(cfg)
		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		var orch *agents.Orchestrator
		var cleanup func() error
		if local {
			orch, cleanup, err = localOrchestrator(cfg, logger, m)
		} else {
			orch, err = buildOrchestrator(cfg, logger, m)
			cleanup = func() error { return nil }
		}
		if err != nil {
			fmt.Printf("Error initializing orchestrator: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		serverOpts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(m, registry),
		}
		if cfg.RequireAPIKey {
			serverOpts = append(serverOpts, httpAdapter.WithAPIKey(cfg.APIKey))
		}
		server := httpAdapter.NewServer(orch, serverOpts...)

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("chat server listening", "addr", srv.Addr, "local_engine", local)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("failed to close server", "error", err)
				}
			}
			logger.Info("chat server stopped")
		}
	},
}

// localOrchestrator runs the dialogue engine behind the threads/runs protocol
// on a loopback listener and returns an orchestrator pointed at it.
func localOrchestrator(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*agents.Orchestrator, func() error, error) {
	agent, closeStore, err := buildAgent(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	host := enginehost.New(agent, enginehost.WithLogger(logger))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("failed to bind engine host: %w", err)
	}
	engineSrv := &http.Server{Handler: host.Handler()}
	go func() {
		if err := engineSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("engine host stopped", "error", err)
		}
	}()

	client := agents.NewClient("http://"+ln.Addr().String(), cfg.APIVersion,
		agents.StaticTokenSource("local"),
		agents.WithClientLogger(logger),
	)
	orch := agents.NewOrchestrator(client, "local",
		agents.WithPollInterval(cfg.PollInterval),
		agents.WithTimeout(cfg.RunTimeout),
		agents.WithMetrics(m),
		agents.WithLogger(logger),
	)

	cleanup := func() error {
		_ = engineSrv.Close()
		return closeStore()
	}
	return orch, cleanup, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
	serveCmd.Flags().Bool("local", false, "Run the dialogue engine in-process instead of a remote platform")
}
