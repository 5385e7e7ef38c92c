// Package schema declares the expected layout of the national-results
// workbook: sheet names, header/footer rows to skip, ordered typed columns,
// and how the joined sheets project onto domain records.
package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/mpi-etl/internal/domain"
)

//go:embed mpi.yaml
var defaultSchema []byte

// Column types.
const (
	TypeText   = "text"
	TypeNumber = "number"
)

// Column is one positional column of a sheet.
type Column struct {
	Name     string `yaml:"name" validate:"required"`
	Type     string `yaml:"type" validate:"required,oneof=text number"`
	Required bool   `yaml:"required"`
	// YearOffset, when set, renders the column as "<Name> <year+offset>".
	YearOffset *int `yaml:"year_offset"`
}

// Rendered returns the column name for a vintage year.
func (c Column) Rendered(year int) string {
	if c.YearOffset == nil {
		return c.Name
	}
	return c.Name + " " + strconv.Itoa(year+*c.YearOffset)
}

// Sheet describes one worksheet.
type Sheet struct {
	Name       string `yaml:"sheet" validate:"required"`
	SkipHeader int    `yaml:"skip_header" validate:"min=0"`

	// CaptionRows follow the skipped header and hold the sheet's own column
	// captions; they are discarded in favour of the declared names.
	CaptionRows int      `yaml:"caption_rows" validate:"min=0"`
	SkipFooter  int      `yaml:"skip_footer" validate:"min=0"`
	Columns     []Column `yaml:"columns" validate:"required,min=1,dive"`
}

// ColumnNames returns the rendered column names for a vintage year.
func (s Sheet) ColumnNames(year int) []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Rendered(year)
	}
	return names
}

// MinWidth is the number of columns a data row must reach to cover every
// required column.
func (s Sheet) MinWidth() int {
	width := 0
	for i, c := range s.Columns {
		if c.Required {
			width = i + 1
		}
	}
	return width
}

// Projection maps joined columns onto domain record fields.
type Projection struct {
	Code                 string `yaml:"code" validate:"required"`
	Country              string `yaml:"country" validate:"required"`
	Region               string `yaml:"region" validate:"required"`
	Survey               string `yaml:"survey" validate:"required"`
	SurveyYear           string `yaml:"survey_year" validate:"required"`
	MPI                  string `yaml:"mpi" validate:"required"`
	Headcount            string `yaml:"headcount" validate:"required"`
	Intensity            string `yaml:"intensity" validate:"required"`
	PopulationYearOffset int    `yaml:"population_year_offset"`
}

// Schema is the full workbook layout.
type Schema struct {
	FileName      string     `yaml:"file_name" validate:"required,contains={year}"`
	JoinKey       string     `yaml:"join_key" validate:"required"`
	CheckColumn   string     `yaml:"check_column" validate:"required,nefield=JoinKey"`
	National      Sheet      `yaml:"national"`
	Contributions Sheet      `yaml:"contributions"`
	Projection    Projection `yaml:"projection"`
}

// Default returns the embedded schema.
func Default() (*Schema, error) {
	return Parse(defaultSchema)
}

// Load reads a schema file, or returns the embedded schema when path is empty.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML schema. Unknown keys are rejected.
func Parse(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&s); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	return &s, nil
}

// check verifies cross-field constraints the struct tags cannot express.
func (s *Schema) check() error {
	const anyYear = 2000
	var errs []error

	for _, sh := range []Sheet{s.National, s.Contributions} {
		names := sh.ColumnNames(anyYear)
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			if seen[n] {
				errs = append(errs, fmt.Errorf("sheet %q: duplicate column %q", sh.Name, n))
			}
			seen[n] = true
		}
		if !seen[s.JoinKey] {
			errs = append(errs, fmt.Errorf("sheet %q: join key %q not declared", sh.Name, s.JoinKey))
		}
		if !seen[s.CheckColumn] {
			errs = append(errs, fmt.Errorf("sheet %q: check column %q not declared", sh.Name, s.CheckColumn))
		}
	}

	contrib := make(map[string]bool)
	for _, n := range s.Contributions.ColumnNames(anyYear) {
		contrib[n] = true
	}
	for _, ind := range domain.Indicators() {
		if !contrib[ind.String()] {
			errs = append(errs, fmt.Errorf("sheet %q: indicator %q not declared", s.Contributions.Name, ind.String()))
		}
	}

	pop := s.Projection.toDomain().PopulationColumn(anyYear)
	found := false
	for _, n := range s.National.ColumnNames(anyYear) {
		if n == pop {
			found = true
		}
	}
	if !found {
		errs = append(errs, fmt.Errorf("sheet %q: population column for offset %d not declared",
			s.National.Name, s.Projection.PopulationYearOffset))
	}
	return errors.Join(errs...)
}

// FilePath returns the workbook path for a vintage year under dir.
func (s *Schema) FilePath(dir string, year int) string {
	return filepath.Join(dir, strings.ReplaceAll(s.FileName, "{year}", strconv.Itoa(year)))
}

// DomainProjection returns the projection in domain terms.
func (s *Schema) DomainProjection() domain.Projection {
	return s.Projection.toDomain()
}

func (p Projection) toDomain() domain.Projection {
	return domain.Projection{
		Code:                 p.Code,
		Country:              p.Country,
		Region:               p.Region,
		Survey:               p.Survey,
		SurveyYear:           p.SurveyYear,
		MPI:                  p.MPI,
		Headcount:            p.Headcount,
		Intensity:            p.Intensity,
		PopulationYearOffset: p.PopulationYearOffset,
	}
}
