package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProjection = Projection{
	Code:                 "ISO Country Code",
	Country:              "Country_x",
	Region:               "Region_y",
	Survey:               "Survey_x",
	SurveyYear:           "Survey Year",
	MPI:                  "MPI_x",
	Headcount:            "Headcount",
	Intensity:            "Intensity",
	PopulationYearOffset: -2,
}

func joinedColumns() []string {
	cols := []string{"ISO Country Code", "Country_x", "Region_y", "Survey_x", "Survey Year",
		"MPI_x", "Headcount", "Intensity", "Population 2018"}
	for _, ind := range Indicators() {
		cols = append(cols, ind.String())
	}
	return cols
}

func joinedRow(code string, mpi, pop float64, contributions Contributions) []Value {
	row := []Value{Text(code), Text("Country " + code), Text("Region"), Text("DHS"), Text("2017/2018"),
		Number(mpi), Number(0.5), Number(0.4), Number(pop)}
	for _, v := range contributions {
		row = append(row, Number(v))
	}
	return row
}

func TestBuildYearTable(t *testing.T) {
	joined := Table{Name: "joined", Columns: joinedColumns(), Rows: [][]Value{
		joinedRow("AAA", 0.3, 100, Contributions{Nutrition: 50}),
		joinedRow("BBB", 0.1, 300, Contributions{Nutrition: 20}),
	}}

	table, err := BuildYearTable(2020, joined, testProjection)
	require.NoError(t, err)

	assert.Equal(t, 2020, table.Year)
	assert.Equal(t, "Population 2018", table.PopulationColumn)
	require.Len(t, table.Records, 2)
	rec := table.Records[1]
	assert.Equal(t, 1, rec.Index)
	assert.Equal(t, "BBB", rec.Code)
	assert.Equal(t, "Country BBB", rec.Country)
	assert.Equal(t, "2017/2018", rec.SurveyYear)
	assert.Equal(t, 0.1, rec.MPI)
	assert.Equal(t, 300.0, rec.Population)
	assert.Equal(t, 20.0, rec.Contributions[Nutrition])
}

func TestBuildYearTable_MissingColumn(t *testing.T) {
	joined := Table{Name: "joined", Columns: joinedColumns()[:5]}
	_, err := BuildYearTable(2020, joined, testProjection)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "MPI_x")
}

func TestBuildYearTable_DuplicateCountry(t *testing.T) {
	joined := Table{Name: "joined", Columns: joinedColumns(), Rows: [][]Value{
		joinedRow("AAA", 0.3, 100, Contributions{}),
		joinedRow("AAA", 0.3, 100, Contributions{}),
	}}
	_, err := BuildYearTable(2020, joined, testProjection)
	assert.ErrorIs(t, err, ErrDuplicateCountry)
}

func TestStandardize(t *testing.T) {
	records := []CountryYear{
		{MPI: 0.3, Contributions: Contributions{Nutrition: 50}},
		{MPI: 0.1, Contributions: Contributions{Nutrition: 20}},
	}

	Standardize(records, Nutrition)

	assert.InDelta(t, 0.15, records[0].Contributions[Nutrition], 1e-12)
	assert.InDelta(t, 0.02, records[1].Contributions[Nutrition], 1e-12)
}

func TestStandardizeAll_Exact(t *testing.T) {
	raw := Contributions{12.5, 7.5, 20, 10, 5, 9, 6, 4, 16, 10}
	table := &YearTable{Records: []CountryYear{{MPI: 0.237, Contributions: raw}}}

	StandardizeAll(table)

	for _, ind := range Indicators() {
		assert.Equal(t, 0.237*raw[ind]/100, table.Records[0].Contributions[ind], ind.String())
	}
	assert.InDelta(t, 0.237, table.Records[0].Contributions.Sum(), 1e-12)
}

func TestStandardize_NoBoundsCheck(t *testing.T) {
	records := []CountryYear{{MPI: 0.5, Contributions: Contributions{Assets: 150}}}
	Standardize(records, Assets)
	assert.InDelta(t, 0.75, records[0].Contributions[Assets], 1e-12)
}

func TestCheckContributionSums(t *testing.T) {
	records := []CountryYear{
		{Code: "OK", MPI: 0.2, Contributions: Contributions{50, 50}},
		{Code: "LOW", MPI: 0.2, Contributions: Contributions{50, 40}},
		{Code: "ZERO", MPI: 0, Contributions: Contributions{}},
	}

	warnings := CheckContributionSums(records, 1)
	require.Len(t, warnings, 1)
	assert.Equal(t, "LOW", warnings[0].Code)
	assert.Equal(t, 90.0, warnings[0].Sum)

	assert.Empty(t, CheckContributionSums(records, 0))
}
