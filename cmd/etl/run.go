package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/couchcryptid/mpi-etl/internal/adapter/csv"
	"github.com/couchcryptid/mpi-etl/internal/adapter/excel"
	httpadapter "github.com/couchcryptid/mpi-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/mpi-etl/internal/adapter/kafka"
	"github.com/couchcryptid/mpi-etl/internal/config"
	"github.com/couchcryptid/mpi-etl/internal/observability"
	"github.com/couchcryptid/mpi-etl/internal/pipeline"
	"github.com/couchcryptid/mpi-etl/internal/schema"
)

const defaultServeAddr = ":8080"

func newRunCmd(v *viper.Viper) *cobra.Command {
	var serve bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build regional extracts for the requested years",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, v); err != nil {
				return err
			}
			if serve && cfg.HTTPAddr == "" {
				cfg.HTTPAddr = defaultServeAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runETL(ctx, cfg, serve)
		},
	}

	f := cmd.Flags()
	f.String("years", "", "comma-separated vintage years (MPI_YEARS)")
	f.String("raw-dir", "", "directory holding the national-results workbooks (RAW_DIR)")
	f.String("out-dir", "", "directory receiving the extracts (OUTPUT_DIR)")
	f.String("schema", "", "YAML sheet schema overriding the built-in one (SCHEMA_FILE)")
	f.String("on-source-error", "", "abort or skip a failing year (ON_SOURCE_ERROR)")
	f.Int("workers", 0, "parallel years and partitions (WORKERS)")
	f.String("http-addr", "", "health and metrics listener (HTTP_ADDR)")
	f.BoolVar(&serve, "serve", false, "keep the HTTP server up after the run until interrupted")

	for _, name := range []string{"years", "raw-dir", "out-dir", "schema", "on-source-error", "workers", "http-addr"} {
		_ = v.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

func runETL(ctx context.Context, cfg *config.Config, serve bool) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	s, err := schema.Load(cfg.SchemaFile)
	if err != nil {
		return err
	}

	catalog := pipeline.NewCatalog(excel.NewLoader(cfg.RawDir, s, logger), s, pipeline.CatalogOptions{
		OnSourceError:            cfg.OnSourceError,
		Workers:                  cfg.Workers,
		ContributionSumTolerance: cfg.ContributionSumTolerance,
		CacheTTL:                 cfg.CacheTTL,
	}, logger, metrics)

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(catalog, csv.NewWriter(cfg.OutputDir, logger), publisher, logger, metrics, pipeline.Options{
		OnSourceError: cfg.OnSourceError,
		Workers:       cfg.Workers,
	})

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer shutdownServer(srv, cfg, logger)
	}

	res, err := p.Run(ctx, cfg.Years)
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		return err
	}
	logger.Info("extracts ready", "run_id", res.RunID, "count", len(res.Summaries), "out_dir", cfg.OutputDir)

	if serve && srv != nil {
		logger.Info("serving until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
		logger.Info("shutting down")
	}
	return nil
}

func shutdownServer(srv *httpadapter.Server, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}
