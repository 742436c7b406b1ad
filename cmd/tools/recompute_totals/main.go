// Command recompute_totals walks every persisted quote, re-derives its
// subtotal and total from the stored items and package terms, and writes back
// only the records whose cached values have drifted. It is safe to re-run:
// a second pass over a repaired dataset updates nothing.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quotes/internal/config"
	"github.com/noah-isme/backend-quotes/internal/obs"
	"github.com/noah-isme/backend-quotes/internal/quote"
	"github.com/noah-isme/backend-quotes/internal/recompute"
)

func main() {
	var (
		business      = flag.String("business", "", "restrict the run to one business id; empty scans all businesses")
		epsilon       = flag.String("epsilon", "", "drift threshold below which stored totals are left alone; defaults to RECOMPUTE_EPSILON")
		dryRun        = flag.Bool("dry-run", false, "report drifted quotes without mutating data")
		runMigrations = flag.Bool("migrate", false, "apply pending schema migrations before running")
		migrationsDir = flag.String("migrations", "migrations", "directory containing schema migrations")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := obs.NewLogger("json", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	eps := cfg.RecomputeEpsilon
	if strings.TrimSpace(*epsilon) != "" {
		eps, err = decimal.NewFromString(strings.TrimSpace(*epsilon))
		if err != nil || eps.IsNegative() {
			logger.Fatal().Str("epsilon", *epsilon).Msg("invalid epsilon")
		}
	}

	businessID := uuid.Nil
	if strings.TrimSpace(*business) != "" {
		businessID, err = uuid.Parse(strings.TrimSpace(*business))
		if err != nil {
			logger.Fatal().Err(err).Str("business", *business).Msg("invalid business id")
		}
	}

	if *runMigrations {
		if err := applyMigrations(*migrationsDir, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("schema migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "recompute-totals"

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(connectCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	job := recompute.Job{
		Store:      quote.NewStore(pool),
		Logger:     logger,
		Epsilon:    eps,
		BusinessID: businessID,
		DryRun:     *dryRun,
	}

	report, err := job.Run(ctx)
	evt := logger.Info()
	if err != nil {
		evt = logger.Error().Err(err)
	}
	evt.Int("scanned", report.Scanned).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("failed", report.Failed).
		Str("avg_delta", report.AvgDelta.String()).
		Str("max_delta", report.MaxDelta.String()).
		Bool("dry_run", *dryRun).
		Msg("recompute finished")

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("run cancelled by operator")
		}
		os.Exit(1)
	}
}

func applyMigrations(dir, databaseURL string) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
