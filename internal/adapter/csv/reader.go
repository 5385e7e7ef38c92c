package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// stemRe splits "{slug}_{year}.csv".
var stemRe = regexp.MustCompile(`^(.+)_(\d{4})\.csv$`)

// File is a persisted extract read back as text.
type File struct {
	Path   string
	Slug   string
	Year   int
	Header []string
	Rows   [][]string
}

// Column returns the position of a header name, or -1.
func (f *File) Column(name string) int {
	for i, h := range f.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Float parses the named column of row i.
func (f *File) Float(i int, name string) (float64, error) {
	c := f.Column(name)
	if c < 0 {
		return 0, fmt.Errorf("%s: no column %q", f.Path, name)
	}
	if c >= len(f.Rows[i]) {
		return 0, fmt.Errorf("%s: row %d has no column %q", f.Path, i, name)
	}
	v, err := strconv.ParseFloat(f.Rows[i][c], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: row %d column %q: %w", f.Path, i, name, err)
	}
	return v, nil
}

// Text returns the named column of row i, or "" when absent.
func (f *File) Text(i int, name string) string {
	c := f.Column(name)
	if c < 0 || c >= len(f.Rows[i]) {
		return ""
	}
	return f.Rows[i][c]
}

// ReadFile reads one extract.
func ReadFile(path string) (*File, error) {
	m := stemRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return nil, fmt.Errorf("%s: not an extract file name", path)
	}
	year, _ := strconv.Atoi(m[2])

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	all, err := csv.NewReader(fh).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: empty extract", path)
	}
	return &File{Path: path, Slug: m[1], Year: year, Header: all[0], Rows: all[1:]}, nil
}

// ReadDir reads every extract in dir, ordered by year then slug.
func ReadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []*File
	for _, e := range entries {
		if e.IsDir() || !stemRe.MatchString(e.Name()) || e.Name()[0] == '.' {
			continue
		}
		f, err := ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Year != files[j].Year {
			return files[i].Year < files[j].Year
		}
		return files[i].Slug < files[j].Slug
	})
	return files, nil
}
