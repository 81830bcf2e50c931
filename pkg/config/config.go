// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// indexer, normalizer, search service and their optional backends (Redis,
// Kafka, PostgreSQL).
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Search     SearchConfig     `yaml:"search"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// IndexerConfig controls the index build: where documents come from, where
// the index file goes, and how many parse workers run.
type IndexerConfig struct {
	InputDir           string   `yaml:"inputDir"`
	OutputPath         string   `yaml:"outputPath"`
	Workers            int      `yaml:"workers"`
	Extensions         []string `yaml:"extensions"`
	Compress           bool     `yaml:"compress"`
	SkipNearDuplicates bool     `yaml:"skipNearDuplicates"`
}

// NormalizerConfig tunes the default English normalizer.
type NormalizerConfig struct {
	StopWords   []string `yaml:"stopWords"`
	MinLength   int      `yaml:"minLength"`
	StripMarkup bool     `yaml:"stripMarkup"`
}

// SearchConfig controls query execution limits and the index the searcher
// serves.
type SearchConfig struct {
	IndexPath      string `yaml:"indexPath"`
	DefaultLimit   int    `yaml:"defaultLimit"`
	MaxResults     int    `yaml:"maxResults"`
	LocalCacheSize int    `yaml:"localCacheSize"`
}

// PostgresConfig holds PostgreSQL connection parameters for the build report
// store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
	// OpTimeout bounds each cache call; BreakerThreshold consecutive failures
	// bypass Redis for BreakerReset.
	OpTimeout        time.Duration `yaml:"opTimeout"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

// Validate rejects values the indexer and searcher cannot work with.
func (c *Config) Validate() error {
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	if len(c.Indexer.Extensions) == 0 {
		return fmt.Errorf("indexer.extensions must not be empty")
	}
	for _, ext := range c.Indexer.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("indexer.extensions: %q must start with a dot", ext)
		}
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.defaultLimit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search.maxResults (%d) must be >= search.defaultLimit (%d)",
			c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Normalizer.MinLength < 1 {
		return fmt.Errorf("normalizer.minLength must be positive, got %d", c.Normalizer.MinLength)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Indexer: IndexerConfig{
			InputDir:   "books",
			OutputPath: "data/inverted_file.lidx",
			Workers:    runtime.NumCPU(),
			Extensions: []string{".txt"},
		},
		Normalizer: NormalizerConfig{
			MinLength: 1,
		},
		Search: SearchConfig{
			IndexPath:      "data/inverted_file.lidx",
			DefaultLimit:   10,
			MaxResults:     100,
			LocalCacheSize: 1024,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "lemmasearch",
			User:            "lemmasearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "lemmasearch-searcher",
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,

			OpTimeout:        100 * time.Millisecond,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads LS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LS_INDEXER_INPUT_DIR"); v != "" {
		cfg.Indexer.InputDir = v
	}
	if v := os.Getenv("LS_INDEXER_OUTPUT_PATH"); v != "" {
		cfg.Indexer.OutputPath = v
	}
	if v := os.Getenv("LS_INDEXER_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = workers
		}
	}
	if v := os.Getenv("LS_SEARCH_INDEX_PATH"); v != "" {
		cfg.Search.IndexPath = v
	}
	if v := os.Getenv("LS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("LS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("LS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
