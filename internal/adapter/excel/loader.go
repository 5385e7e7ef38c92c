package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/mpi-etl/internal/domain"
	"github.com/couchcryptid/mpi-etl/internal/schema"
)

// Loader reads a year's national-results workbook into two raw tables.
// It implements pipeline.SheetLoader.
type Loader struct {
	dir    string
	schema *schema.Schema
	logger *slog.Logger
}

// NewLoader creates a Loader for workbooks under dir.
func NewLoader(dir string, s *schema.Schema, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, schema: s, logger: logger}
}

// Load opens the workbook for year and parses both declared sheets. Empty
// and non-numeric cells in number columns are zero-filled.
func (l *Loader) Load(ctx context.Context, year int) (domain.RawYear, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawYear{}, err
	}

	path := l.schema.FilePath(l.dir, year)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.RawYear{}, &domain.SourceNotFoundError{Year: year, Path: path}
		}
		return domain.RawYear{}, fmt.Errorf("stat workbook: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RawYear{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	national, err := l.readSheet(f, l.schema.National, year)
	if err != nil {
		return domain.RawYear{}, err
	}
	contributions, err := l.readSheet(f, l.schema.Contributions, year)
	if err != nil {
		return domain.RawYear{}, err
	}

	l.logger.Debug("workbook loaded", "year", year, "path", path,
		"national_rows", len(national.Rows), "contribution_rows", len(contributions.Rows))

	return domain.RawYear{Year: year, National: national, Contributions: contributions}, nil
}

func (l *Loader) readSheet(f *excelize.File, sh schema.Sheet, year int) (domain.Table, error) {
	rows, err := f.GetRows(sh.Name, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: sheet %q: %v", domain.ErrSchemaMismatch, sh.Name, err)
	}

	data, err := dataRows(rows, sh)
	if err != nil {
		return domain.Table{}, err
	}

	table := domain.Table{
		Name:    sh.Name,
		Columns: sh.ColumnNames(year),
		Rows:    make([][]domain.Value, 0, len(data)),
	}
	for _, row := range data {
		values := make([]domain.Value, len(sh.Columns))
		for i, col := range sh.Columns {
			var raw string
			if i < len(row) {
				raw = strings.TrimSpace(row[i])
			}
			values[i] = l.parseCell(raw, col, sh.Name)
		}
		table.Rows = append(table.Rows, values)
	}
	return table, nil
}

// dataRows trims the header, caption and footer rows, drops blank rows, and checks the
// remaining rows against the declared width.
func dataRows(rows [][]string, sh schema.Sheet) ([][]string, error) {
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	top := sh.SkipHeader + sh.CaptionRows
	if len(rows) <= top+sh.SkipFooter {
		return nil, fmt.Errorf("%w: sheet %q has %d rows, need more than %d header and %d footer rows",
			domain.ErrSchemaMismatch, sh.Name, len(rows), top, sh.SkipFooter)
	}
	rows = rows[top : len(rows)-sh.SkipFooter]

	data := make([][]string, 0, len(rows))
	widest := 0
	for _, row := range rows {
		if blank(row) {
			continue
		}
		width := len(row)
		for width > 0 && strings.TrimSpace(row[width-1]) == "" {
			width--
		}
		if width > len(sh.Columns) {
			return nil, fmt.Errorf("%w: sheet %q: data row has %d columns, schema declares %d",
				domain.ErrSchemaMismatch, sh.Name, width, len(sh.Columns))
		}
		widest = max(widest, width)
		data = append(data, row)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", domain.ErrSchemaMismatch, sh.Name)
	}
	if widest < sh.MinWidth() {
		return nil, fmt.Errorf("%w: sheet %q: widest data row has %d columns, required columns need %d",
			domain.ErrSchemaMismatch, sh.Name, widest, sh.MinWidth())
	}
	return data, nil
}

func (l *Loader) parseCell(raw string, col schema.Column, sheet string) domain.Value {
	if col.Type == schema.TypeText {
		return domain.Text(raw)
	}
	if raw == "" {
		return domain.Number(0)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		l.logger.Debug("non-numeric cell zero-filled", "sheet", sheet, "column", col.Name, "value", raw)
		return domain.Number(0)
	}
	return domain.Number(v)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
