package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/cache"
	"github.com/jask/cashledger/internal/config"
	"github.com/jask/cashledger/internal/database"
	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/events"
	"github.com/jask/cashledger/internal/logging"
	"github.com/jask/cashledger/internal/operations"
	"github.com/jask/cashledger/internal/service"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      redis.UniversalClient
	publisher  events.Publisher
	memoryOps  *operations.Memory
	imports    *service.ImportService
	statements *service.StatementService
	closers    []func()
}

func newApp(ctx context.Context) (_ *app, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.Migrations); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	accounts, err := cfg.SeedAccounts()
	if err != nil {
		return nil, err
	}
	bands, err := cfg.SeedFeeBands()
	if err != nil {
		return nil, err
	}
	if len(bands) == 0 {
		bands = database.DefaultFeeBands
	}
	if err := database.SeedDefaults(ctx, db, accounts, bands); err != nil {
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	txRepo := repository.NewTransactionRepo(db)
	acctRepo := repository.NewAccountRepo(db)
	bandRepo := repository.NewFeeBandRepo(db)

	if cfg.Redis.Addr != "" {
		a.redis = cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, func() { _ = a.redis.Close() })
		logger.Info("fee band cache enabled", zap.String("addr", cfg.Redis.Addr))
	}
	feeBands := cache.NewFeeBands(a.redis, cfg.Redis.FeeBandTTL, bandRepo.List, logger)

	var ops operations.Source
	if cfg.Operations.DSN != "" {
		pool, err := operations.Connect(ctx, cfg.Operations.DSN, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		ops = operations.NewPostgres(pool, logger)
	} else {
		a.memoryOps = operations.NewMemory()
		ops = a.memoryOps
		logger.Debug("no operations database configured, statements stay unmatched")
	}

	a.publisher = events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	a.closers = append(a.closers, func() { _ = a.publisher.Close() })

	a.imports = &service.ImportService{
		Transactions: txRepo,
		Accounts:     acctRepo,
		Events:       a.publisher,
		Logger:       logger,
	}
	a.statements = &service.StatementService{
		Transactions: txRepo,
		Accounts:     acctRepo,
		FeeBands:     feeBands,
		Operations:   ops,
		DateLayout:   cfg.UI.DateFormat,
		Logger:       logger,
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// withApp builds the app for a command and tears it down afterwards.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
