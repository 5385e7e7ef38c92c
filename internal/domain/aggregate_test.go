package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestAggregate_Scenario(t *testing.T) {
	table := &YearTable{Year: 2020, PopulationColumn: "Population 2018", Records: []CountryYear{
		{Code: "AAA", Region: "R", MPI: 0.3, Population: 100, Contributions: Contributions{Nutrition: 50}},
		{Code: "BBB", Region: "R", MPI: 0.1, Population: 300, Contributions: Contributions{Nutrition: 20}},
	}}
	StandardizeAll(table)

	extract, err := Aggregate(Partition{Region: "R", Year: 2020, Records: table.Records})
	require.NoError(t, err)
	require.Len(t, extract.Records, 2)

	a, b := extract.Records[0], extract.Records[1]
	assert.InDelta(t, 0.15, a.Contributions[Nutrition], tolerance)
	assert.InDelta(t, 0.02, b.Contributions[Nutrition], tolerance)
	assert.InDelta(t, 0.25, a.Weight, tolerance)
	assert.InDelta(t, 0.75, b.Weight, tolerance)
	assert.InDelta(t, 0.0375, a.Weighted[Nutrition], tolerance)
	assert.InDelta(t, 0.015, b.Weighted[Nutrition], tolerance)
	assert.InDelta(t, 0.0375, a.HealthW, tolerance)
	assert.InDelta(t, 0.15, a.Health, tolerance)
}

func TestAggregate_Invariants(t *testing.T) {
	records := []CountryYear{
		{Code: "A", MPI: 0.41, Population: 12.5, Contributions: Contributions{0.05, 0.04, 0.06, 0.03, 0.05, 0.04, 0.04, 0.03, 0.04, 0.03}},
		{Code: "B", MPI: 0.12, Population: 203.1, Contributions: Contributions{0.01, 0.02, 0.01, 0.01, 0.02, 0.01, 0.01, 0.01, 0.01, 0.01}},
		{Code: "C", MPI: 0.02, Population: 0.7, Contributions: Contributions{0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002, 0.002}},
	}

	extract, err := Aggregate(Partition{Region: "Global", Year: 2022, Records: records})
	require.NoError(t, err)

	var weightSum float64
	for _, r := range extract.Records {
		weightSum += r.Weight

		composite := r.HealthW + r.EducationW + r.LivingStandardsW
		assert.InDelta(t, r.Weight*(r.Health+r.Education+r.LivingStandards), composite, tolerance, r.Code)

		for _, d := range Dimensions() {
			var raw, weighted float64
			for _, ind := range d.Indicators() {
				raw += r.Contributions[ind]
				weighted += r.Weighted[ind]
			}
			assert.InDelta(t, raw, r.Dimension(d), tolerance)
			assert.InDelta(t, weighted, r.WeightedDimension(d), tolerance)
		}
	}
	assert.InDelta(t, 1.0, weightSum, tolerance)

	h, e, ls := extract.Totals()
	var want float64
	for _, r := range extract.Records {
		want += r.Weight * r.Contributions.Sum()
	}
	assert.InDelta(t, want, h+e+ls, tolerance)
}

func TestAggregate_DegenerateWeights(t *testing.T) {
	tests := []struct {
		name    string
		records []CountryYear
	}{
		{"zero population", []CountryYear{{Code: "A"}, {Code: "B"}}},
		{"empty partition", nil},
		{"negative total", []CountryYear{{Code: "A", Population: -5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(Partition{Region: "Arab States", Year: 2020, Records: tt.records})
			require.ErrorIs(t, err, ErrDegenerateWeights)
			assert.Contains(t, err.Error(), "Arab States 2020")
		})
	}
}

func TestSummarize(t *testing.T) {
	fixed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	extract := WeightedExtract{Region: "South Asia", Year: 2021, Records: []WeightedRecord{
		{HealthW: 0.01, EducationW: 0.02, LivingStandardsW: 0.03},
		{HealthW: 0.01, EducationW: 0.01, LivingStandardsW: 0.01},
	}}

	s := Summarize("run-1", extract, "out/south_asia_2021.csv")
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "south_asia", s.Slug)
	assert.Equal(t, 2, s.Countries)
	assert.InDelta(t, 0.02, s.Health, tolerance)
	assert.InDelta(t, 0.09, s.MPI, tolerance)
	assert.Equal(t, fixed, s.GeneratedAt)
}

func TestIndicatorNames(t *testing.T) {
	assert.Equal(t, "Years of Schooling", YearsOfSchooling.String())
	assert.Equal(t, "Drinking Water_w", DrinkingWater.WeightedName())
	assert.Equal(t, "Living Standards_w", LivingStandards.WeightedName())
	assert.Equal(t, []Indicator{Nutrition, ChildMortality}, Health.Indicators())
	assert.Len(t, LivingStandards.Indicators(), 6)
	assert.Len(t, Indicators(), NumIndicators)
}
