package domain

import (
	"fmt"
	"strconv"
)

// Join suffixes applied to non-key columns present in both joined tables.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// Value is one cell of a raw table.
type Value struct {
	Text    string
	Number  float64
	Numeric bool
	// Missing is set only for right-hand cells of a left join that found no match.
	Missing bool
}

// Text returns a text Value.
func Text(s string) Value { return Value{Text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Number: f, Numeric: true} }

// Equal reports exact equality. A missing value equals nothing, itself included.
func (v Value) Equal(o Value) bool {
	if v.Missing || o.Missing || v.Numeric != o.Numeric {
		return false
	}
	if v.Numeric {
		return v.Number == o.Number
	}
	return v.Text == o.Text
}

// Float returns the numeric value; text and missing values yield zero.
func (v Value) Float() float64 {
	if v.Numeric && !v.Missing {
		return v.Number
	}
	return 0
}

func (v Value) String() string {
	switch {
	case v.Missing:
		return "<missing>"
	case v.Numeric:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Table is an ordered, column-named set of raw rows.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Value
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RawYear is the pair of raw sheets loaded for one year.
type RawYear struct {
	Year          int
	National      Table
	Contributions Table
}

// Reconcile left-joins right onto left by key and verifies that the check
// column agrees in every joined row.
//
// Non-key columns present in both tables get LeftSuffix/RightSuffix, so the
// check column is compared as check+"_x" against check+"_y". Every left row is
// kept; a left row with no match carries missing right-hand values, which
// fail the check. A left row with several matches is repeated once per match.
func Reconcile(left, right Table, key, check string) (Table, error) {
	lk, rk := left.ColumnIndex(key), right.ColumnIndex(key)
	if lk < 0 || rk < 0 {
		return Table{}, fmt.Errorf("%w: join key %q missing from %s or %s", ErrSchemaMismatch, key, left.Name, right.Name)
	}
	if check == key || left.ColumnIndex(check) < 0 || right.ColumnIndex(check) < 0 {
		return Table{}, fmt.Errorf("%w: check column %q must be a non-key column of both %s and %s",
			ErrSchemaMismatch, check, left.Name, right.Name)
	}

	inRight := make(map[string]bool, len(right.Columns))
	for i, c := range right.Columns {
		if i != rk {
			inRight[c] = true
		}
	}
	inLeft := make(map[string]bool, len(left.Columns))
	for i, c := range left.Columns {
		if i != lk {
			inLeft[c] = true
		}
	}

	joined := Table{Name: left.Name + "+" + right.Name}
	for i, c := range left.Columns {
		if i != lk && inRight[c] {
			c += LeftSuffix
		}
		joined.Columns = append(joined.Columns, c)
	}
	rightCols := make([]int, 0, len(right.Columns)-1)
	for i, c := range right.Columns {
		if i == rk {
			continue
		}
		if inLeft[c] {
			c += RightSuffix
		}
		joined.Columns = append(joined.Columns, c)
		rightCols = append(rightCols, i)
	}

	index := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		k := joinKey(cell(row, rk))
		index[k] = append(index[k], i)
	}

	for _, lrow := range left.Rows {
		base := make([]Value, len(left.Columns))
		copy(base, lrow)
		matches := index[joinKey(cell(lrow, lk))]
		if len(matches) == 0 {
			row := base
			for range rightCols {
				row = append(row, Value{Missing: true})
			}
			joined.Rows = append(joined.Rows, row)
			continue
		}
		for _, m := range matches {
			row := make([]Value, len(base), len(joined.Columns))
			copy(row, base)
			for _, ci := range rightCols {
				row = append(row, cell(right.Rows[m], ci))
			}
			joined.Rows = append(joined.Rows, row)
		}
	}

	cx := joined.ColumnIndex(check + LeftSuffix)
	cy := joined.ColumnIndex(check + RightSuffix)
	keyCol := joined.ColumnIndex(key)
	for i, row := range joined.Rows {
		if !row[cx].Equal(row[cy]) {
			return Table{}, &SourceMismatchError{
				Column: check,
				Key:    row[keyCol].String(),
				Row:    i,
				Left:   row[cx],
				Right:  row[cy],
			}
		}
	}
	return joined, nil
}

// cell returns row[i], or a zero-filled value for short rows.
func cell(row []Value, i int) Value {
	if i < len(row) {
		return row[i]
	}
	return Value{}
}

func joinKey(v Value) string {
	if v.Numeric {
		return "n:" + strconv.FormatFloat(v.Number, 'g', -1, 64)
	}
	return "s:" + v.Text
}
