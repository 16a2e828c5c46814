package main

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_insight/internal/adapters/csvtable"
	"review_insight/internal/adapters/observability"
	"review_insight/internal/app"
	"review_insight/internal/domain"
	"review_insight/internal/shared"
	mysqlrepo "review_insight/internal/storage/mysql"
	sqlitestore "review_insight/internal/storage/sqlite"
)

func main() {
	ctx := context.Background()
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	logger, _ := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	log.Logger = logger

	log.Info().
		Str("file", cfg.ReviewsFile).
		Str("target", cfg.ReviewsSource).
		Int("workers", cfg.IngestWorkers).
		Int("batch", cfg.IngestBatchSize).
		Msg("ingestor starting")

	repo := openRepo(cfg)
	ing := app.NewIngestionService(csvtable.New(cfg.DataDir), repo)

	batches, err := ing.Plan(ctx, cfg.ReviewsFile, cfg.IngestBatchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("plan failed")
	}

	sem := semaphore.NewWeighted(int64(cfg.IngestWorkers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for i, batch := range batches {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(n int, b []domain.Review) {
			defer wg.Done()
			defer sem.Release(1)

			if err := ing.IngestBatch(ctx, b); err != nil {
				failed.Add(1)
				log.Warn().Int("batch", n).Err(err).Msg("ingest failed")
				return
			}
			log.Debug().Int("batch", n).Int("rows", len(b)).Msg("ingest ok")
		}(i, batch)
	}

	wg.Wait()
	total, err := repo.CountReviews(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count reviews failed")
	}
	log.Info().Int("batches", len(batches)).Int32("failed", failed.Load()).Int("stored", total).Msg("ingestion completed")
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

func openRepo(cfg *shared.Config) domain.ReviewRepository {
	switch cfg.ReviewsSource {
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		return mysqlrepo.New(db)
	case shared.SourceSQLite:
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite open failed")
		}
		return sqlitestore.New(db)
	default:
		log.Fatal().Str("reviews_source", cfg.ReviewsSource).Msg("ingestion needs reviews_source mysql or sqlite")
		return nil
	}
}
