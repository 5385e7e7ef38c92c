package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/mpi-etl/internal/config"
	"github.com/couchcryptid/mpi-etl/internal/domain"
	"github.com/couchcryptid/mpi-etl/internal/observability"
	"github.com/couchcryptid/mpi-etl/internal/schema"
)

// SheetLoader reads the two raw sheets of one vintage year.
type SheetLoader interface {
	Load(ctx context.Context, year int) (domain.RawYear, error)
}

// CatalogOptions tune how a Catalog gathers years.
type CatalogOptions struct {
	// OnSourceError is config.PolicyAbort or config.PolicySkip.
	OnSourceError string
	Workers       int
	// ContributionSumTolerance enables the soft percentage check when positive.
	ContributionSumTolerance float64
	// CacheTTL bounds how long a built year table is reused; zero keeps it for the run.
	CacheTTL time.Duration
}

// Catalog builds and caches the unified year table of each vintage year.
type Catalog struct {
	loader  SheetLoader
	schema  *schema.Schema
	opts    CatalogOptions
	cache   *gocache.Cache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCatalog creates a Catalog over loader.
func NewCatalog(loader SheetLoader, s *schema.Schema, opts CatalogOptions, logger *slog.Logger, metrics *observability.Metrics) *Catalog {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OnSourceError == "" {
		opts.OnSourceError = config.PolicyAbort
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Catalog{
		loader:  loader,
		schema:  s,
		opts:    opts,
		cache:   gocache.New(ttl, 10*time.Minute),
		logger:  logger,
		metrics: metrics,
	}
}

// Table returns the cached table for year, if it has been built.
func (c *Catalog) Table(year int) (*domain.YearTable, bool) {
	v, ok := c.cache.Get(cacheKey(year))
	if !ok {
		return nil, false
	}
	return v.(*domain.YearTable), true
}

// Gather builds the year table for every distinct requested year, in request
// order, reusing tables already built by this catalog.
//
// Under the abort policy the first failure cancels the remaining years and
// Gather returns no tables. Under the skip policy a failing year is logged and
// left out.
func (c *Catalog) Gather(ctx context.Context, years []int) ([]*domain.YearTable, error) {
	years = Distinct(years)
	tables := make([]*domain.YearTable, len(years))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, year := range years {
		if t, ok := c.Table(year); ok {
			c.logger.Debug("year table cached", "year", year)
			tables[i] = t
			continue
		}
		g.Go(func() error {
			t, err := c.buildYear(gctx, year)
			if err != nil {
				c.metrics.SourceErrors.WithLabelValues(errorKind(err)).Inc()
				if c.opts.OnSourceError == config.PolicySkip && gctx.Err() == nil {
					c.logger.Warn("year skipped", "year", year, "error", err)
					c.metrics.YearsSkipped.Inc()
					return nil
				}
				return fmt.Errorf("year %d: %w", year, err)
			}
			c.cache.Set(cacheKey(year), t, gocache.DefaultExpiration)
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := tables[:0]
	for _, t := range tables {
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

// buildYear loads, reconciles, projects and standardizes one year.
func (c *Catalog) buildYear(ctx context.Context, year int) (*domain.YearTable, error) {
	start := time.Now()

	raw, err := c.loader.Load(ctx, year)
	if err != nil {
		return nil, err
	}
	joined, err := domain.Reconcile(raw.National, raw.Contributions, c.schema.JoinKey, c.schema.CheckColumn)
	if err != nil {
		return nil, err
	}
	table, err := domain.BuildYearTable(year, joined, c.schema.DomainProjection())
	if err != nil {
		return nil, err
	}

	for _, w := range domain.CheckContributionSums(table.Records, c.opts.ContributionSumTolerance) {
		c.logger.Warn("contribution percentages do not sum to 100",
			"year", year, "code", w.Code, "country", w.Country, "sum", w.Sum)
		c.metrics.ContributionWarnings.Inc()
	}
	domain.StandardizeAll(table)

	c.metrics.YearsLoaded.Inc()
	c.metrics.YearLoadDuration.Observe(time.Since(start).Seconds())
	c.logger.Info("year loaded", "year", year, "countries", len(table.Records), "population_column", table.PopulationColumn)
	return table, nil
}

// Distinct drops repeated years, keeping first occurrences in order.
func Distinct(years []int) []int {
	seen := make(map[int]bool, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	return out
}

func cacheKey(year int) string { return strconv.Itoa(year) }

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSourceMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrSchemaMismatch), errors.Is(err, domain.ErrDuplicateCountry):
		return "schema"
	default:
		return "other"
	}
}
