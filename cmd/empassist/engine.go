package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/empassist/empassist/internal/enginehost"
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Serve the threads/runs protocol backed by the local dialogue engine",
	Long: `Exposes the assistants-style threads/runs REST protocol on HTTP, answered
by the in-process rule-based dialogue engine. Useful for developing against the
wire protocol without a hosted platform.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		logger := createLogger(cfg)
		agent, closeStore, err := buildAgent(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		host := enginehost.New(agent, enginehost.WithLogger(logger))
		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: host.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("engine host listening", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				_ = srv.Close()
			}
			logger.Info("engine host stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(engineCmd)
	engineCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
