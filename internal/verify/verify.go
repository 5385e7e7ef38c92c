// Package verify audits persisted extracts: header contract, weight
// normalization, composite additivity and partition completeness.
package verify

import (
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/mpi-etl/internal/adapter/csv"
	"github.com/couchcryptid/mpi-etl/internal/domain"
)

// Tolerance bounds float comparisons in the numeric audits.
const Tolerance = 1e-9

// Phase tracks pass/fail for one audit.
type Phase struct {
	Name   string
	Errors []string
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the audit found nothing wrong.
func (p *Phase) Passed() bool { return len(p.Errors) == 0 }

// Auditor checks extracts written under one projection.
type Auditor struct {
	projection domain.Projection
	tolerance  float64
}

// New creates an Auditor. The projection supplies the population column
// expected in each year's header.
func New(p domain.Projection) *Auditor {
	return &Auditor{projection: p, tolerance: Tolerance}
}

// Run executes every audit in order.
func (a *Auditor) Run(files []*csv.File) []*Phase {
	return []*Phase{
		a.Headers(files),
		a.WeightSums(files),
		a.Additivity(files),
		a.Completeness(files),
	}
}

// Headers checks that every extract carries the exact output header.
func (a *Auditor) Headers(files []*csv.File) *Phase {
	p := &Phase{Name: "Header contract"}
	if len(files) == 0 {
		p.errorf("no extracts found")
		return p
	}
	for _, f := range files {
		want := csv.Header(a.projection.PopulationColumn(f.Year))
		if !slices.Equal(f.Header, want) {
			p.errorf("%s: header %q, want %q", f.Path, f.Header, want)
			continue
		}
		for i, row := range f.Rows {
			if len(row) != len(want) {
				p.errorf("%s: row %d has %d fields, want %d", f.Path, i+1, len(row), len(want))
			}
		}
	}
	return p
}

// WeightSums checks that each extract's weights sum to 1.
func (a *Auditor) WeightSums(files []*csv.File) *Phase {
	p := &Phase{Name: "Weight normalization"}
	for _, f := range files {
		var sum float64
		for i := range f.Rows {
			w, err := f.Float(i, csv.ColumnWeight)
			if err != nil {
				p.errorf("%v", err)
				continue
			}
			sum += w
		}
		if len(f.Rows) > 0 && math.Abs(sum-1) > a.tolerance {
			p.errorf("%s: weights sum to %.12f", f.Path, sum)
		}
	}
	return p
}

// Additivity checks, per row, that every composite is the sum of its
// indicators and that the weighted composites total Weight times the
// unweighted ones.
func (a *Auditor) Additivity(files []*csv.File) *Phase {
	p := &Phase{Name: "Composite additivity"}
	for _, f := range files {
		for i := range f.Rows {
			if err := a.checkRow(f, i); err != nil {
				p.errorf("%v", err)
			}
		}
	}
	return p
}

func (a *Auditor) checkRow(f *csv.File, i int) error {
	weight, err := f.Float(i, csv.ColumnWeight)
	if err != nil {
		return err
	}
	var raw, weighted float64
	for _, d := range domain.Dimensions() {
		dim, err := f.Float(i, d.String())
		if err != nil {
			return err
		}
		dimW, err := f.Float(i, d.WeightedName())
		if err != nil {
			return err
		}
		var sum, sumW float64
		for _, ind := range d.Indicators() {
			v, err := f.Float(i, ind.String())
			if err != nil {
				return err
			}
			vw, err := f.Float(i, ind.WeightedName())
			if err != nil {
				return err
			}
			sum += v
			sumW += vw
		}
		if math.Abs(dim-sum) > a.tolerance {
			return fmt.Errorf("%s: row %d: %s %g != indicator sum %g", f.Path, i+1, d, dim, sum)
		}
		if math.Abs(dimW-sumW) > a.tolerance {
			return fmt.Errorf("%s: row %d: %s %g != weighted indicator sum %g", f.Path, i+1, d.WeightedName(), dimW, sumW)
		}
		raw += dim
		weighted += dimW
	}
	if math.Abs(weighted-weight*raw) > a.tolerance {
		return fmt.Errorf("%s: row %d: weighted composites %g != weight * composites %g", f.Path, i+1, weighted, weight*raw)
	}
	return nil
}

// Completeness checks, per year, that the regional extracts partition the
// Global extract's countries with no duplicates and no omissions.
func (a *Auditor) Completeness(files []*csv.File) *Phase {
	p := &Phase{Name: "Partition completeness"}

	byYear := make(map[int][]*csv.File)
	var years []int
	for _, f := range files {
		if _, ok := byYear[f.Year]; !ok {
			years = append(years, f.Year)
		}
		byYear[f.Year] = append(byYear[f.Year], f)
	}
	slices.Sort(years)

	globalSlug := domain.Slug(domain.GlobalRegion)
	for _, year := range years {
		var global *csv.File
		seen := make(map[string]string)
		for _, f := range byYear[year] {
			if f.Slug == globalSlug {
				global = f
				continue
			}
			for i := range f.Rows {
				code := f.Text(i, csv.ColumnCode)
				if other, dup := seen[code]; dup {
					p.errorf("%d: %s appears in both %s and %s", year, code, other, f.Slug)
					continue
				}
				seen[code] = f.Slug
			}
		}
		if global == nil {
			p.errorf("%d: no %s extract", year, globalSlug)
			continue
		}

		globalCodes := make(map[string]bool, len(global.Rows))
		for i := range global.Rows {
			code := global.Text(i, csv.ColumnCode)
			if globalCodes[code] {
				p.errorf("%d: %s appears twice in %s", year, code, globalSlug)
			}
			globalCodes[code] = true
			if _, ok := seen[code]; !ok {
				p.errorf("%d: %s is in %s but in no regional extract", year, code, globalSlug)
			}
		}
		for code, slug := range seen {
			if !globalCodes[code] {
				p.errorf("%d: %s is in %s but not in %s", year, code, slug, globalSlug)
			}
		}
	}
	return p
}
