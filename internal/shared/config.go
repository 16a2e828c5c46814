package shared

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"review_insight/internal/domain"
)

var ErrInvalidConfig = errors.New("invalid config")

// Review sources.
const (
	SourceCSV    = "csv"
	SourceMySQL  = "mysql"
	SourceSQLite = "sqlite"
)

type Config struct {
	AppEnv      string `koanf:"app_env"`
	LogLevel    string `koanf:"log_level"`
	HTTPAddr    string `koanf:"http_addr"`
	MetricsAddr string `koanf:"metrics_addr"`

	// DataDir is joined with relative *_file paths.
	DataDir          string `koanf:"data_dir"`
	ReviewsFile      string `koanf:"reviews_file"`
	ProductsFile     string `koanf:"products_file"`
	TestimonialsFile string `koanf:"testimonials_file"`

	ReviewsSource string `koanf:"reviews_source"`
	MySQLDSN      string `koanf:"mysql_dsn"`
	SQLitePath    string `koanf:"sqlite_path"`

	// RedisAddr empty disables the classification cache.
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`

	ClassifierURL            string `koanf:"classifier_url"`
	ClassifierModel          string `koanf:"classifier_model"`
	ClassifierToken          string `koanf:"classifier_token"`
	ClassifierRPS            int    `koanf:"classifier_rps"`
	ClassifierTimeoutSeconds int    `koanf:"classifier_timeout_seconds"`

	WordCloud      bool   `koanf:"word_cloud"`
	WordCloudWords int    `koanf:"word_cloud_words"`
	DefaultMonth   string `koanf:"default_month"`

	IngestWorkers   int `koanf:"ingest_workers"`
	IngestBatchSize int `koanf:"ingest_batch_size"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		AppEnv:      "prod",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		MetricsAddr: "",

		DataDir:          ".",
		ReviewsFile:      "review_data.csv",
		ProductsFile:     "product_data.csv",
		TestimonialsFile: "testimonial_data.csv",

		ReviewsSource: SourceCSV,
		MySQLDSN:      "root:root@tcp(localhost:3306)/insight?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		SQLitePath:    "insight.db",

		CacheTTLSeconds: 86400,

		ClassifierURL:            "https://api-inference.huggingface.co",
		ClassifierModel:          "distilbert-base-uncased-finetuned-sst-2-english",
		ClassifierRPS:            5,
		ClassifierTimeoutSeconds: 60,

		WordCloud:      true,
		WordCloudWords: 100,
		DefaultMonth:   domain.DefaultMonth.String(),

		IngestWorkers:   4,
		IngestBatchSize: 500,
	}
}

// Load builds a Config by layering, low to high:
//  1. defaults (New)
//  2. YAML file named by INSIGHT_CONFIG, if set
//  3. env (prefix INSIGHT_), e.g. INSIGHT_HTTP_ADDR -> http_addr
func Load() (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv("INSIGHT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	envProvider := env.Provider("INSIGHT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "insight_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return fmt.Errorf("%w: http_addr must not be empty", ErrInvalidConfig)
	case c.ReviewsSource != SourceCSV && c.ReviewsSource != SourceMySQL && c.ReviewsSource != SourceSQLite:
		return fmt.Errorf("%w: unknown reviews_source %q", ErrInvalidConfig, c.ReviewsSource)
	case c.IngestBatchSize <= 0:
		return fmt.Errorf("%w: ingest_batch_size must be positive", ErrInvalidConfig)
	case c.IngestWorkers <= 0:
		return fmt.Errorf("%w: ingest_workers must be positive", ErrInvalidConfig)
	case c.ClassifierRPS <= 0:
		return fmt.Errorf("%w: classifier_rps must be positive", ErrInvalidConfig)
	}
	if _, err := domain.ParseMonth(c.DefaultMonth); err != nil {
		return fmt.Errorf("%w: default_month: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Month is the parsed default month; Validate guarantees it parses.
func (c *Config) Month() time.Month {
	m, err := domain.ParseMonth(c.DefaultMonth)
	if err != nil {
		return domain.DefaultMonth
	}
	return m
}

func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.ClassifierTimeoutSeconds) * time.Second
}
