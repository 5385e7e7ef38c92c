package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Source error policies.
const (
	// PolicyAbort aborts the whole batch on the first failing year.
	PolicyAbort = "abort"
	// PolicySkip logs and skips a failing year; other years proceed.
	PolicySkip = "skip"
)

const maxWorkers = 64

// Config holds all ETL settings, populated from environment variables.
type Config struct {
	Years         []int
	RawDir        string
	OutputDir     string
	SchemaFile    string
	OnSourceError string
	Workers       int

	// ContributionSumTolerance bounds |sum(raw percentages) - 100| before a
	// row is flagged. Zero disables the check.
	ContributionSumTolerance float64
	CacheTTL                 time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka notifications are enabled when brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	years, err := ParseYears(sharedcfg.EnvOrDefault("MPI_YEARS", "2020,2021,2022,2023"))
	if err != nil {
		return nil, fmt.Errorf("invalid MPI_YEARS: %w", err)
	}

	workers, err := strconv.Atoi(sharedcfg.EnvOrDefault("WORKERS", "1"))
	if err != nil || workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("invalid WORKERS: must be an integer between 1 and %d", maxWorkers)
	}

	tolerance, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CONTRIBUTION_SUM_TOLERANCE", "1.0"), 64)
	if err != nil || tolerance < 0 {
		return nil, errors.New("invalid CONTRIBUTION_SUM_TOLERANCE")
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("CACHE_TTL", "0s"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Years:                    years,
		RawDir:                   sharedcfg.EnvOrDefault("RAW_DIR", "./data/raw"),
		OutputDir:                sharedcfg.EnvOrDefault("OUTPUT_DIR", "./data/interm"),
		SchemaFile:               os.Getenv("SCHEMA_FILE"),
		OnSourceError:            sharedcfg.EnvOrDefault("ON_SOURCE_ERROR", PolicyAbort),
		Workers:                  workers,
		ContributionSumTolerance: tolerance,
		CacheTTL:                 cacheTTL,
		HTTPAddr:                 os.Getenv("HTTP_ADDR"),
		LogLevel:                 sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:                sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:          shutdownTimeout,
		KafkaBrokers:             brokers,
		KafkaTopic:               sharedcfg.EnvOrDefault("KAFKA_TOPIC", "mpi-extracts"),
		KafkaEnabled:             len(brokers) > 0,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flags may have overridden after Load.
func (c *Config) Validate() error {
	if len(c.Years) == 0 {
		return errors.New("MPI_YEARS is required")
	}
	if c.RawDir == "" {
		return errors.New("RAW_DIR is required")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if c.OnSourceError != PolicyAbort && c.OnSourceError != PolicySkip {
		return fmt.Errorf("invalid ON_SOURCE_ERROR %q: want %q or %q", c.OnSourceError, PolicyAbort, PolicySkip)
	}
	if c.Workers < 1 || c.Workers > maxWorkers {
		return fmt.Errorf("invalid WORKERS: must be an integer between 1 and %d", maxWorkers)
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// ParseYears parses a comma-separated year list such as "2020,2021".
// Order is kept; duplicates are removed later by the catalog.
func ParseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || y < 1900 || y > 2999 {
			return nil, fmt.Errorf("bad year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}
