package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"review_insight/internal/adapters/csvtable"
	server "review_insight/internal/adapters/http_server"
	"review_insight/internal/adapters/observability"
	redisad "review_insight/internal/adapters/redis"
	"review_insight/internal/adapters/sentiment"
	"review_insight/internal/app"
	"review_insight/internal/domain"
	"review_insight/internal/shared"
	mysqlrepo "review_insight/internal/storage/mysql"
	sqlitestore "review_insight/internal/storage/sqlite"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// set global logger (console in dev, JSON otherwise)
	logger, ok := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	log.Logger = logger
	if !ok {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
	}

	tables := csvtable.New(cfg.DataDir)
	src := app.Sources{
		Reviews: reviewsSource(cfg, tables),
		Products: app.NewLazy(func(ctx context.Context) (domain.Table, error) {
			return tables.LoadTable(ctx, cfg.ProductsFile)
		}),
		Testimonials: app.NewLazy(func(ctx context.Context) (domain.Table, error) {
			return tables.LoadTable(ctx, cfg.TestimonialsFile)
		}),
		Classifier: app.NewLazy(func(ctx context.Context) (domain.Classifier, error) {
			return newClassifier(ctx, cfg)
		}),
	}
	svc := app.NewInsightService(src, cfg.WordCloud, cfg.WordCloudWords)

	// http
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	srv := server.New(cfg.ClassifierTimeout() + 5*time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: svc, DefaultMonth: cfg.Month()})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("reviews_source", cfg.ReviewsSource).
		Str("data_dir", cfg.DataDir).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// reviewsSource picks where reviews come from. Database sources are opened
// eagerly so a bad DSN fails at startup; their rows load on first request.
func reviewsSource(cfg *shared.Config, tables *csvtable.Dir) *app.Lazy[domain.ReviewSet] {
	switch cfg.ReviewsSource {
	case shared.SourceMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return app.NewLazy(mysqlrepo.New(db).LoadReviews)
	case shared.SourceSQLite:
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite open failed")
		}
		return app.NewLazy(sqlitestore.New(db).LoadReviews)
	default:
		return app.NewLazy(func(ctx context.Context) (domain.ReviewSet, error) {
			t, err := tables.LoadTable(ctx, cfg.ReviewsFile)
			if err != nil {
				return domain.ReviewSet{}, err
			}
			return app.ReviewsFromTable(t), nil
		})
	}
}

// newClassifier builds the inference client, memoized in redis when configured.
// An unreachable redis is logged and skipped.
func newClassifier(ctx context.Context, cfg *shared.Config) (domain.Classifier, error) {
	c, err := sentiment.New(cfg.ClassifierURL, cfg.ClassifierModel, cfg.ClassifierToken, cfg.ClassifierRPS, cfg.ClassifierTimeout())
	if err != nil {
		return nil, err
	}
	log.Info().Str("model", c.Model()).Msg("sentiment classifier ready")
	if cfg.RedisAddr == "" {
		return c, nil
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, classifying without cache")
		_ = cache.Close()
		return c, nil
	}
	return app.NewCachedClassifier(c, cache, c.Model(), cfg.CacheTTLSeconds), nil
}
