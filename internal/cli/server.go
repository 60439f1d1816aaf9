package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-progress-service/internal/app"
	"quiz-progress-service/internal/catalog"
	"quiz-progress-service/internal/config"
	"quiz-progress-service/internal/economy"
	"quiz-progress-service/internal/infra/memory"
	pgstore "quiz-progress-service/internal/infra/postgres"
	redisstore "quiz-progress-service/internal/infra/redis"
	"quiz-progress-service/internal/logging"
	transport "quiz-progress-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// loadConfig reads path, falling back to defaults when the file does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, os.Stdout)
	log := logrus.NewEntry(logger).WithField("service", "quiz-progress")

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	content, err := catalog.LoadContent(cfg.Content.Path)
	if err != nil {
		return err
	}
	index, err := catalog.NewIndex(content)
	if err != nil {
		return err
	}
	if err := economy.DefaultTable.Validate(); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var source memory.AttemptSource = memory.NewAttemptStore()
	if pool != nil {
		source = pgstore.NewAttemptStore(pool)
	}

	progressTTL := config.TTLDuration(cfg.Progress.TTL, 5*time.Minute)
	var (
		progressStore app.ProgressStore
		ledger        app.CoinLedger
		settings      app.SettingsStore
		sessions      app.SessionRepository
	)
	if redisClient != nil {
		progressStore = redisstore.NewProgressStore(redisClient, source, progressTTL)
		ledger = redisstore.NewCoinLedger(redisClient)
		settings = redisstore.NewSettingsStore(redisClient)
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.SessionTTL, 10*time.Minute))
	} else {
		progressStore = memory.NewProgressStore(source, progressTTL)
		ledger = memory.NewCoinLedger()
		settings = memory.NewSettingsStore()
		sessions = memory.NewSessionStore()
	}

	defaults := app.DefaultControllerConfig()
	service := app.NewGameService(index, sessions, progressStore, ledger, settings, app.GameConfig{
		Controller: app.ControllerConfig{
			SettleDelay:  config.TTLDuration(cfg.Session.SettleDelay, defaults.SettleDelay),
			RestartHold:  config.TTLDuration(cfg.Session.RestartHold, defaults.RestartHold),
			TickInterval: config.TTLDuration(cfg.Session.TickInterval, defaults.TickInterval),
		},
		StartingCoins:    cfg.Economy.StartingCoins,
		CompletionReward: cfg.Economy.CompletionReward,
		Prices:           economy.DefaultTable,
	}, log)
	defer service.Close()

	router := transport.NewRouter(
		transport.NewWSHandler(service, log),
		transport.NewAPIHandler(service, economy.DefaultTable, log),
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":     finalPort,
			"redis":    redisClient != nil,
			"postgres": pool != nil,
		}).Info("starting game service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
