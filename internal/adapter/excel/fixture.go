package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/mpi-etl/internal/domain"
	"github.com/couchcryptid/mpi-etl/internal/schema"
)

// Country is one synthetic country row for a fixture workbook.
type Country struct {
	NumericCode int
	Code        string
	Name        string
	Region      string
	Survey      string
	SurveyYear  string
	MPI         float64
	Headcount   float64
	Intensity   float64
	Population  float64
	// Contributions are percentages of MPI.
	Contributions domain.Contributions
	// ContributionMPI overrides MPI on the contributions sheet when non-zero.
	ContributionMPI float64
}

// WriteWorkbook writes a national-results workbook for year at path, laid out
// as the schema declares: header boilerplate, column captions, one data row
// per country on each sheet, then footer notes.
func WriteWorkbook(path string, s *schema.Schema, year int, countries []Country) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, s.National.Name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(s.Contributions.Name); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeSheet(f, s.National, year, countries, nationalValue); err != nil {
		return err
	}
	if err := writeSheet(f, s.Contributions, year, countries, contributionValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sh schema.Sheet, year int, countries []Country, value func(Country, string) any) error {
	row := 1
	for i := 0; i < sh.SkipHeader; i++ {
		if err := f.SetCellValue(sh.Name, cellName(1, row), fmt.Sprintf("%s (header %d)", sh.Name, i+1)); err != nil {
			return err
		}
		row++
	}

	names := sh.ColumnNames(year)
	for i := 0; i < sh.CaptionRows; i++ {
		captions := make([]any, len(names))
		for j, n := range names {
			captions[j] = n
		}
		if err := f.SetSheetRow(sh.Name, cellName(1, row), &captions); err != nil {
			return fmt.Errorf("write captions of %q: %w", sh.Name, err)
		}
		row++
	}

	for _, c := range countries {
		values := make([]any, len(names))
		for i, n := range names {
			values[i] = value(c, n)
		}
		if err := f.SetSheetRow(sh.Name, cellName(1, row), &values); err != nil {
			return fmt.Errorf("write row %d of %q: %w", row, sh.Name, err)
		}
		row++
	}

	for i := 0; i < sh.SkipFooter; i++ {
		if err := f.SetCellValue(sh.Name, cellName(1, row), fmt.Sprintf("Note %d.", i+1)); err != nil {
			return err
		}
		row++
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func nationalValue(c Country, column string) any {
	switch {
	case column == "ISO Country Numeric Code":
		return c.NumericCode
	case column == "ISO Country Code":
		return c.Code
	case column == "Country":
		return c.Name
	case column == "Region":
		return c.Region
	case column == "Survey":
		return c.Survey
	case column == "Survey Year":
		return c.SurveyYear
	case column == "MPI":
		return c.MPI
	case column == "Headcount":
		return c.Headcount
	case column == "Intensity":
		return c.Intensity
	case column == "Total Indicators":
		return domain.NumIndicators
	case column == "Indicator Missing":
		return ""
	case strings.HasPrefix(column, "Poor "):
		return c.Population * c.Headcount
	case strings.HasPrefix(column, "Population"):
		return c.Population
	default:
		return 0
	}
}

func contributionValue(c Country, column string) any {
	for _, ind := range domain.Indicators() {
		if column == ind.String() {
			return c.Contributions[ind]
		}
	}
	for _, d := range domain.Dimensions() {
		if column == d.String() {
			return c.Contributions.Dimension(d)
		}
	}
	switch column {
	case "MPI":
		if c.ContributionMPI != 0 {
			return c.ContributionMPI
		}
		return c.MPI
	case "Year":
		return c.SurveyYear
	case "Missing Indicators":
		return ""
	default:
		return nationalValue(c, column)
	}
}

// SampleCountries returns a small deterministic country set spanning the
// standard MPI regions. Headcount and intensity are listed in percent and
// stored as fractions; MPI drifts slightly by year so vintages differ.
func SampleCountries(year int) []Country {
	drift := 1 - 0.01*float64(year-2020)
	base := []Country{
		{4, "AFG", "Afghanistan", "South Asia", "MICS", "2015/2016", 0.272, 55.9, 48.6, 34.6,
			domain.Contributions{10.0, 2.1, 19.8, 10.2, 8.4, 9.9, 6.7, 2.2, 10.3, 20.4}, 0},
		{50, "BGD", "Bangladesh", "South Asia", "MICS", "2019", 0.104, 24.6, 42.2, 163.0,
			domain.Contributions{27.1, 1.8, 18.3, 9.2, 14.1, 11.2, 1.4, 3.4, 9.3, 4.2}, 0},
		{24, "AGO", "Angola", "Sub-Saharan Africa", "DHS", "2015/2016", 0.282, 51.1, 55.3, 28.8,
			domain.Contributions{10.5, 3.4, 20.9, 7.3, 12.1, 11.8, 9.0, 10.1, 9.7, 5.2}, 0},
		{231, "ETH", "Ethiopia", "Sub-Saharan Africa", "DHS", "2019", 0.367, 68.7, 53.3, 112.1,
			domain.Contributions{14.6, 1.9, 14.8, 8.6, 13.7, 12.2, 8.9, 11.1, 12.8, 1.4}, 0},
		{400, "JOR", "Jordan", "Arab States", "DHS", "2017/2018", 0.002, 0.4, 35.4, 10.0,
			domain.Contributions{32.1, 19.4, 18.9, 15.5, 0.6, 1.8, 5.5, 1.1, 1.6, 3.5}, 0},
		{116, "KHM", "Cambodia", "East Asia and the Pacific", "DHS", "2014", 0.170, 37.2, 45.8, 16.2,
			domain.Contributions{14.4, 2.1, 23.5, 8.1, 13.1, 11.2, 8.9, 4.5, 11.6, 2.6}, 0},
		{484, "MEX", "Mexico", "Latin America and the Caribbean", "ENSANUT", "2016", 0.026, 6.6, 39.0, 125.9,
			domain.Contributions{7.8, 8.3, 31.4, 16.9, 12.1, 7.5, 4.6, 0.6, 6.7, 4.1}, 0},
		{8, "ALB", "Albania", "Europe and Central Asia", "DHS", "2017/2018", 0.003, 0.7, 39.1, 2.9,
			domain.Contributions{28.3, 6.0, 40.7, 13.6, 3.7, 1.8, 2.0, 0.0, 1.0, 2.9}, 0},
	}
	for i := range base {
		base[i].MPI *= drift
		base[i].Headcount /= 100
		base[i].Intensity /= 100
	}
	return base
}
