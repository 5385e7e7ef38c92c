package domain

import (
	"fmt"
	"math"
	"time"
)

// WeightedRecord is a CountryYear with its partition weight, weighted
// indicators and dimension composites.
type WeightedRecord struct {
	CountryYear

	Weight   float64
	Weighted Contributions

	// Dimension sums of the standardized indicators.
	Health          float64
	Education       float64
	LivingStandards float64

	// Dimension sums of the weighted indicators.
	HealthW          float64
	EducationW       float64
	LivingStandardsW float64
}

// Dimension returns the unweighted composite for d.
func (r WeightedRecord) Dimension(d Dimension) float64 {
	switch d {
	case Health:
		return r.Health
	case Education:
		return r.Education
	default:
		return r.LivingStandards
	}
}

// WeightedDimension returns the weighted composite for d.
func (r WeightedRecord) WeightedDimension(d Dimension) float64 {
	switch d {
	case Health:
		return r.HealthW
	case Education:
		return r.EducationW
	default:
		return r.LivingStandardsW
	}
}

// WeightedExtract is a partition after aggregation; the unit that is persisted.
type WeightedExtract struct {
	Region           string
	Year             int
	PopulationColumn string
	Records          []WeightedRecord
}

// Stem returns the extract's output name.
func (e WeightedExtract) Stem() string { return Stem(e.Region, e.Year) }

// Totals sums the weighted dimensions over the extract. Their sum is the
// partition's population-weighted MPI.
func (e WeightedExtract) Totals() (health, education, livingStandards float64) {
	for _, r := range e.Records {
		health += r.HealthW
		education += r.EducationW
		livingStandards += r.LivingStandardsW
	}
	return health, education, livingStandards
}

// Aggregate weights a partition by population:
//
//  1. Weight = population / sum(population)
//  2. <Indicator>_w = <Indicator> * Weight
//  3. Health, Education, Living Standards from the standardized indicators
//  4. Health_w, Education_w, Living Standards_w from the weighted indicators
//
// It fails with ErrDegenerateWeights when the partition's population total is
// zero, negative or not finite.
func Aggregate(p Partition) (WeightedExtract, error) {
	weights, err := populationWeights(p.Records)
	if err != nil {
		return WeightedExtract{}, fmt.Errorf("%s %d: %w", p.Region, p.Year, err)
	}

	out := WeightedExtract{
		Region:           p.Region,
		Year:             p.Year,
		PopulationColumn: p.PopulationColumn,
		Records:          make([]WeightedRecord, len(p.Records)),
	}
	for i, rec := range p.Records {
		wr := WeightedRecord{CountryYear: rec, Weight: weights[i]}
		for _, ind := range Indicators() {
			wr.Weighted[ind] = rec.Contributions[ind] * wr.Weight
		}
		wr.Health = rec.Contributions.Dimension(Health)
		wr.Education = rec.Contributions.Dimension(Education)
		wr.LivingStandards = rec.Contributions.Dimension(LivingStandards)
		wr.HealthW = wr.Weighted.Dimension(Health)
		wr.EducationW = wr.Weighted.Dimension(Education)
		wr.LivingStandardsW = wr.Weighted.Dimension(LivingStandards)
		out.Records[i] = wr
	}
	return out, nil
}

func populationWeights(records []CountryYear) ([]float64, error) {
	var total float64
	for _, r := range records {
		total += r.Population
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total population %g over %d records", ErrDegenerateWeights, total, len(records))
	}
	weights := make([]float64, len(records))
	for i, r := range records {
		weights[i] = r.Population / total
	}
	return weights, nil
}

// ExtractSummary describes a persisted extract for downstream notification.
type ExtractSummary struct {
	RunID           string    `json:"run_id"`
	Region          string    `json:"region"`
	Slug            string    `json:"slug"`
	Year            int       `json:"year"`
	Path            string    `json:"path"`
	Countries       int       `json:"countries"`
	MPI             float64   `json:"mpi"`
	Health          float64   `json:"health"`
	Education       float64   `json:"education"`
	LivingStandards float64   `json:"living_standards"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Summarize builds the summary of an extract persisted at path.
func Summarize(runID string, e WeightedExtract, path string) ExtractSummary {
	h, ed, ls := e.Totals()
	return ExtractSummary{
		RunID:           runID,
		Region:          e.Region,
		Slug:            Slug(e.Region),
		Year:            e.Year,
		Path:            path,
		Countries:       len(e.Records),
		MPI:             h + ed + ls,
		Health:          h,
		Education:       ed,
		LivingStandards: ls,
		GeneratedAt:     clock.Now().UTC(),
	}
}
