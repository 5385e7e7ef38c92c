package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/mpi-etl/internal/config"
	"github.com/couchcryptid/mpi-etl/internal/domain"
	"github.com/couchcryptid/mpi-etl/internal/observability"
)

// ExtractWriter persists one weighted extract and returns where it went.
type ExtractWriter interface {
	WriteExtract(ctx context.Context, e domain.WeightedExtract) (string, error)
}

// Publisher announces persisted extracts to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, summaries []domain.ExtractSummary) error
}

// Options tune the regional phase.
type Options struct {
	OnSourceError string
	Workers       int
}

// Result is the outcome of one run.
type Result struct {
	RunID string
	// Extracts maps each written extract's stem ("south_asia_2021") to the extract.
	Extracts map[string]domain.WeightedExtract
	// Summaries are in year order, then partition order.
	Summaries []domain.ExtractSummary
	// Skipped lists the stems of partitions left out for degenerate weights.
	Skipped []string
}

// Pipeline gathers years through a Catalog, partitions and weights them, and
// persists one extract per region and year.
type Pipeline struct {
	catalog   *Catalog
	writer    ExtractWriter
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options

	ready atomic.Bool
	mu    sync.RWMutex
	last  []domain.ExtractSummary
}

// New creates a Pipeline. publisher may be nil.
func New(catalog *Catalog, writer ExtractWriter, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OnSourceError == "" {
		opts.OnSourceError = config.PolicyAbort
	}
	return &Pipeline{
		catalog:   catalog,
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once a run has written at least one extract.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not written any extracts yet")
	}
	return nil
}

// Extracts returns the summaries of the most recent completed run.
func (p *Pipeline) Extracts() []domain.ExtractSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.ExtractSummary, len(p.last))
	copy(out, p.last)
	return out
}

// Run processes the requested years end to end.
//
// Every year is gathered and partitioned before anything is written, so an
// aborted run leaves the output directory untouched.
func (p *Pipeline) Run(ctx context.Context, years []int) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started", "years", years, "workers", p.opts.Workers, "on_source_error", p.opts.OnSourceError)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	tables, err := p.catalog.Gather(ctx, years)
	if err != nil {
		return nil, fmt.Errorf("gather years: %w", err)
	}

	partitions, err := p.partition(tables, logger)
	if err != nil {
		return nil, err
	}

	extracts, err := p.aggregateAndWrite(ctx, partitions, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Extracts: make(map[string]domain.WeightedExtract)}
	for i, w := range extracts {
		if w.path == "" {
			res.Skipped = append(res.Skipped, partitions[i].Stem())
			continue
		}
		res.Extracts[w.extract.Stem()] = w.extract
		res.Summaries = append(res.Summaries, domain.Summarize(runID, w.extract, w.path))
	}

	p.publish(ctx, res.Summaries, logger)

	p.mu.Lock()
	p.last = res.Summaries
	p.mu.Unlock()
	if len(res.Summaries) > 0 {
		p.ready.Store(true)
	}

	logger.Info("pipeline finished", "extracts", len(res.Summaries), "skipped_partitions", len(res.Skipped))
	return res, nil
}

// partition splits every year table by region. A year whose regions collide
// follows the source error policy.
func (p *Pipeline) partition(tables []*domain.YearTable, logger *slog.Logger) ([]domain.Partition, error) {
	var out []domain.Partition
	for _, t := range tables {
		parts, err := domain.PartitionByRegion(t)
		if err != nil {
			p.metrics.SourceErrors.WithLabelValues("schema").Inc()
			if p.opts.OnSourceError == config.PolicySkip {
				logger.Warn("year skipped", "year", t.Year, "error", err)
				p.metrics.YearsSkipped.Inc()
				continue
			}
			return nil, fmt.Errorf("partition year %d: %w", t.Year, err)
		}
		out = append(out, parts...)
	}
	return out, nil
}

type written struct {
	extract domain.WeightedExtract
	path    string
}

// aggregateAndWrite weights and persists each partition. Results are indexed
// like partitions; a skipped partition has an empty path.
func (p *Pipeline) aggregateAndWrite(ctx context.Context, partitions []domain.Partition, logger *slog.Logger) ([]written, error) {
	out := make([]written, len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, part := range partitions {
		g.Go(func() error {
			e, err := domain.Aggregate(part)
			if errors.Is(err, domain.ErrDegenerateWeights) {
				logger.Warn("partition skipped", "region", part.Region, "year", part.Year, "error", err)
				p.metrics.PartitionsSkipped.Inc()
				return nil
			}
			if err != nil {
				return err
			}

			path, err := p.writer.WriteExtract(gctx, e)
			if err != nil {
				return fmt.Errorf("write %s: %w", e.Stem(), err)
			}
			p.metrics.ExtractsWritten.Inc()
			logger.Info("extract written", "region", e.Region, "year", e.Year, "path", path, "countries", len(e.Records))
			out[i] = written{extract: e, path: path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) publish(ctx context.Context, summaries []domain.ExtractSummary, logger *slog.Logger) {
	if p.publisher == nil || len(summaries) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, summaries); err != nil {
		logger.Error("publish extract notifications failed", "error", err, "count", len(summaries))
		p.metrics.PublishErrors.Inc()
	}
}
