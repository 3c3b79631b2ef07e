package main

import (
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/empassist/empassist"
	"github.com/empassist/empassist/internal/config"
	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/internal/metrics"
	"github.com/empassist/empassist/pkg/adapters/memory"
	"github.com/empassist/empassist/pkg/adapters/redis"
	"github.com/empassist/empassist/pkg/agents"
	"github.com/empassist/empassist/pkg/persistence/middleware"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/empassist/empassist/pkg/tools"
)

// loadConfig resolves the config file flag and builds the runtime configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func createLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.LogLevel))
}

// buildAgent wires the in-process dialogue engine: tool adapters against the
// configured backend operations, plus Redis persistence when configured.
// The returned closer releases the Redis connection, if any.
func buildAgent(cfg *config.Config, logger *slog.Logger) (*empassist.Agent, func() error, error) {
	if err := cfg.ValidateLocal(); err != nil {
		return nil, nil, err
	}

	validator := tools.NewValidator(cfg.ValidateURL, tools.WithValidatorLogger(logger))
	updater := tools.NewUpdater(cfg.UpdateURL, tools.WithUpdaterLogger(logger))

	opts := []empassist.Option{empassist.WithLogger(logger)}
	closer := func() error { return nil }

	var store ports.SessionStore = memory.NewStore()
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = redis.NewFromClient(client, redis.WithTTL(cfg.SessionTTL))
		opts = append(opts, empassist.WithLocker(redis.NewLocker(client, "empassist:lock:")))
		closer = client.Close
		logger.Info("session store ready", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		logger.Info("session store ready", "backend", "memory")
	}

	key, err := cfg.SessionKey()
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	if key != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(store)
		logger.Info("session encryption enabled")
	}
	store = middleware.NewAuditMiddleware(logger)(store)

	opts = append(opts, empassist.WithStore(store))
	return empassist.New(validator, updater, opts...), closer, nil
}

// buildOrchestrator connects to the remote agents platform described by the
// configuration.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*agents.Orchestrator, error) {
	if err := cfg.ValidateRemote(); err != nil {
		return nil, fmt.Errorf("remote platform not configured: %w", err)
	}

	client := agents.NewClient(cfg.ProjectEndpoint, cfg.APIVersion,
		agents.StaticTokenSource(cfg.Token),
		agents.WithClientLogger(logger),
	)
	return agents.NewOrchestrator(client, cfg.AgentID,
		agents.WithPollInterval(cfg.PollInterval),
		agents.WithTimeout(cfg.RunTimeout),
		agents.WithMetrics(m),
		agents.WithLogger(logger),
	), nil
}
