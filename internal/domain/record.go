package domain

import (
	"fmt"
	"math"
)

// Projection names the joined-table columns that feed each CountryYear field.
type Projection struct {
	Code       string
	Country    string
	Region     string
	Survey     string
	SurveyYear string
	MPI        string
	Headcount  string
	Intensity  string

	// PopulationYearOffset selects "Population {year+offset}" as the weighting column.
	PopulationYearOffset int
}

// PopulationColumn returns the population column name for a vintage year.
func (p Projection) PopulationColumn(year int) string {
	return fmt.Sprintf("Population %d", year+p.PopulationYearOffset)
}

// CountryYear is one country's unified record for one vintage year.
type CountryYear struct {
	// Index is the record's ordinal in its YearTable.
	Index      int
	Code       string
	Country    string
	Region     string
	Survey     string
	SurveyYear string
	MPI        float64
	Headcount  float64
	Intensity  float64
	Population float64

	// Contributions are percentages of MPI until standardized, absolute afterwards.
	Contributions Contributions
}

// YearTable holds the unified records of one vintage year, keyed by country code.
type YearTable struct {
	Year             int
	PopulationColumn string
	Records          []CountryYear
}

// BuildYearTable projects a reconciled table into typed records.
func BuildYearTable(year int, joined Table, p Projection) (*YearTable, error) {
	popCol := p.PopulationColumn(year)
	names := []string{p.Code, p.Country, p.Region, p.Survey, p.SurveyYear, p.MPI, p.Headcount, p.Intensity, popCol}
	idx := make(map[string]int, len(names)+NumIndicators)
	for _, ind := range Indicators() {
		names = append(names, ind.String())
	}
	for _, n := range names {
		i := joined.ColumnIndex(n)
		if i < 0 {
			return nil, fmt.Errorf("%w: column %q not found in %s", ErrSchemaMismatch, n, joined.Name)
		}
		idx[n] = i
	}

	table := &YearTable{
		Year:             year,
		PopulationColumn: popCol,
		Records:          make([]CountryYear, 0, len(joined.Rows)),
	}
	seen := make(map[string]int, len(joined.Rows))
	for i, row := range joined.Rows {
		rec := CountryYear{
			Index:      i,
			Code:       textOf(cell(row, idx[p.Code])),
			Country:    textOf(cell(row, idx[p.Country])),
			Region:     textOf(cell(row, idx[p.Region])),
			Survey:     textOf(cell(row, idx[p.Survey])),
			SurveyYear: textOf(cell(row, idx[p.SurveyYear])),
			MPI:        cell(row, idx[p.MPI]).Float(),
			Headcount:  cell(row, idx[p.Headcount]).Float(),
			Intensity:  cell(row, idx[p.Intensity]).Float(),
			Population: cell(row, idx[popCol]).Float(),
		}
		for _, ind := range Indicators() {
			rec.Contributions[ind] = cell(row, idx[ind.String()]).Float()
		}
		if prev, dup := seen[rec.Code]; dup {
			return nil, fmt.Errorf("%w: %q at rows %d and %d of year %d", ErrDuplicateCountry, rec.Code, prev, i, year)
		}
		seen[rec.Code] = i
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func textOf(v Value) string {
	if v.Missing {
		return ""
	}
	if v.Numeric {
		return v.String()
	}
	return v.Text
}

// Standardize replaces each record's ind value with MPI * value / 100,
// converting a percentage-of-MPI contribution into an absolute contribution.
// Values outside [0, 100] are not rejected.
func Standardize(records []CountryYear, ind Indicator) {
	for i := range records {
		records[i].Contributions[ind] = records[i].MPI * records[i].Contributions[ind] / 100
	}
}

// StandardizeAll applies Standardize to every indicator.
func StandardizeAll(t *YearTable) {
	for _, ind := range Indicators() {
		Standardize(t.Records, ind)
	}
}

// ContributionWarning flags a record whose raw percentages stray from 100.
type ContributionWarning struct {
	Code    string
	Country string
	Sum     float64
}

// CheckContributionSums returns the records with MPI > 0 whose raw
// contributions do not sum to 100 within tolerance. It must run before
// standardization. A non-positive tolerance disables the check.
func CheckContributionSums(records []CountryYear, tolerance float64) []ContributionWarning {
	if tolerance <= 0 {
		return nil
	}
	var out []ContributionWarning
	for _, r := range records {
		if r.MPI <= 0 {
			continue
		}
		sum := r.Contributions.Sum()
		if math.Abs(sum-100) > tolerance {
			out = append(out, ContributionWarning{Code: r.Code, Country: r.Country, Sum: sum})
		}
	}
	return out
}
