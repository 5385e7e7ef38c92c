package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/mpi-etl/internal/domain"
)

// Fixed output column names.
const (
	ColumnIndex      = ""
	ColumnCode       = "ISO Country Code"
	ColumnCountry    = "Country"
	ColumnRegion     = "Region"
	ColumnSurvey     = "Survey"
	ColumnSurveyYear = "Survey Year"
	ColumnMPI        = "MPI"
	ColumnHeadcount  = "Headcount"
	ColumnIntensity  = "Intensity"
	ColumnWeight     = "Weight"
)

// Header returns the extract header for a population column name such as
// "Population 2018". Downstream readers match on these exact names.
func Header(populationColumn string) []string {
	h := []string{
		ColumnIndex, ColumnCode, ColumnCountry, ColumnRegion, ColumnSurvey, ColumnSurveyYear,
		ColumnMPI, ColumnHeadcount, ColumnIntensity, populationColumn,
	}
	for _, ind := range domain.Indicators() {
		h = append(h, ind.String())
	}
	h = append(h, ColumnWeight)
	for _, ind := range domain.Indicators() {
		h = append(h, ind.WeightedName())
	}
	for _, d := range domain.Dimensions() {
		h = append(h, d.String())
	}
	for _, d := range domain.Dimensions() {
		h = append(h, d.WeightedName())
	}
	return h
}

// Writer persists weighted extracts as "{slug}_{year}.csv" under a directory.
// It implements pipeline.ExtractWriter.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Path returns the file an extract is written to.
func (w *Writer) Path(e domain.WeightedExtract) string {
	return filepath.Join(w.dir, e.Stem()+".csv")
}

// WriteExtract writes e to a temporary file and renames it into place, so a
// reader never observes a partial extract. It returns the final path.
func (w *Writer) WriteExtract(ctx context.Context, e domain.WeightedExtract) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := w.Path(e)
	tmp, err := os.CreateTemp(w.dir, "."+e.Stem()+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp extract: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	cw := csv.NewWriter(tmp)
	if err := cw.Write(Header(e.PopulationColumn)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range e.Records {
		if err := cw.Write(encodeRecord(r)); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write record %s: %w", r.Code, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flush extract: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close extract: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish extract: %w", err)
	}

	w.logger.Debug("extract written", "path", path, "records", len(e.Records))
	return path, nil
}

func encodeRecord(r domain.WeightedRecord) []string {
	row := []string{
		strconv.Itoa(r.Index), r.Code, r.Country, r.Region, r.Survey, r.SurveyYear,
		formatFloat(r.MPI), formatFloat(r.Headcount), formatFloat(r.Intensity), formatFloat(r.Population),
	}
	for _, v := range r.Contributions {
		row = append(row, formatFloat(v))
	}
	row = append(row, formatFloat(r.Weight))
	for _, v := range r.Weighted {
		row = append(row, formatFloat(v))
	}
	for _, d := range domain.Dimensions() {
		row = append(row, formatFloat(r.Dimension(d)))
	}
	for _, d := range domain.Dimensions() {
		row = append(row, formatFloat(r.WeightedDimension(d)))
	}
	return row
}

// formatFloat writes the shortest decimal that round-trips, without exponents.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
