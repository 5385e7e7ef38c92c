package verify

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/mpi-etl/internal/adapter/csv"
	"github.com/couchcryptid/mpi-etl/internal/domain"
)

var projection = domain.Projection{PopulationYearOffset: -2}

func sampleTable() *domain.YearTable {
	t := &domain.YearTable{
		Year:             2021,
		PopulationColumn: "Population 2019",
		Records: []domain.CountryYear{
			{Index: 0, Code: "AFG", Country: "Afghanistan", Region: "South Asia", MPI: 0.27, Population: 38,
				Contributions: domain.Contributions{10, 2.1, 19.8, 10.2, 8.4, 9.9, 6.7, 2.2, 10.3, 20.4}},
			{Index: 1, Code: "AGO", Country: "Angola", Region: "Sub-Saharan Africa", MPI: 0.28, Population: 31,
				Contributions: domain.Contributions{10.5, 3.4, 20.9, 7.3, 12.1, 11.8, 9, 10.1, 9.7, 5.2}},
			{Index: 2, Code: "BGD", Country: "Bangladesh", Region: "South Asia", MPI: 0.1, Population: 163,
				Contributions: domain.Contributions{27.1, 1.8, 18.3, 9.2, 14.1, 11.2, 1.4, 3.4, 9.3, 4.2}},
		},
	}
	domain.StandardizeAll(t)
	return t
}

// writeExtracts persists every partition of the sample table and reads them back.
func writeExtracts(t *testing.T) (string, []*csv.File) {
	t.Helper()
	dir := t.TempDir()
	parts, err := domain.PartitionByRegion(sampleTable())
	require.NoError(t, err)

	w := csv.NewWriter(dir, slog.Default())
	for _, p := range parts {
		e, err := domain.Aggregate(p)
		require.NoError(t, err)
		_, err = w.WriteExtract(context.Background(), e)
		require.NoError(t, err)
	}
	files, err := csv.ReadDir(dir)
	require.NoError(t, err)
	return dir, files
}

// rewrite replaces from with to in one extract and re-reads the directory.
func rewrite(t *testing.T, dir, name, from, to string) []*csv.File {
	t.Helper()
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), from)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), from, to, 1)), 0o644))
	files, err := csv.ReadDir(dir)
	require.NoError(t, err)
	return files
}

func TestRun_AllPass(t *testing.T) {
	_, files := writeExtracts(t)
	require.Len(t, files, 3)

	for _, p := range New(projection).Run(files) {
		assert.True(t, p.Passed(), "%s: %v", p.Name, p.Errors)
	}
}

func TestHeaders(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p := New(projection).Headers(nil)
		assert.False(t, p.Passed())
		assert.Equal(t, []string{"no extracts found"}, p.Errors)
	})

	t.Run("wrong population column", func(t *testing.T) {
		_, files := writeExtracts(t)
		p := New(domain.Projection{PopulationYearOffset: -3}).Headers(files)
		assert.Len(t, p.Errors, 3)
	})

	t.Run("renamed column", func(t *testing.T) {
		dir, _ := writeExtracts(t)
		files := rewrite(t, dir, "global_2021.csv", "Living Standards_w", "Living standards_w")
		p := New(projection).Headers(files)
		require.Len(t, p.Errors, 1)
		assert.Contains(t, p.Errors[0], "global_2021.csv")
	})
}

func TestWeightSums(t *testing.T) {
	dir, files := writeExtracts(t)
	global := files[0]
	require.Equal(t, "global", global.Slug)
	weight := global.Rows[0][global.Column(csv.ColumnWeight)]

	files = rewrite(t, dir, "global_2021.csv", ","+weight+",", ",0.5,")
	p := New(projection).WeightSums(files)
	require.Len(t, p.Errors, 1)
	assert.Contains(t, p.Errors[0], "weights sum to")
}

func TestAdditivity(t *testing.T) {
	dir, files := writeExtracts(t)
	sa := files[1]
	require.Equal(t, "south_asia", sa.Slug)
	health := sa.Rows[0][sa.Column("Health")]

	files = rewrite(t, dir, "south_asia_2021.csv", ","+health+",", ",1,")
	p := New(projection).Additivity(files)
	require.Len(t, p.Errors, 1)
	assert.Contains(t, p.Errors[0], "Health")
}

func TestCompleteness(t *testing.T) {
	t.Run("missing regional extract", func(t *testing.T) {
		dir, _ := writeExtracts(t)
		require.NoError(t, os.Remove(filepath.Join(dir, "sub_saharan_africa_2021.csv")))
		files, err := csv.ReadDir(dir)
		require.NoError(t, err)

		p := New(projection).Completeness(files)
		require.Len(t, p.Errors, 1)
		assert.Contains(t, p.Errors[0], "AGO is in global but in no regional extract")
	})

	t.Run("missing global", func(t *testing.T) {
		dir, _ := writeExtracts(t)
		require.NoError(t, os.Remove(filepath.Join(dir, "global_2021.csv")))
		files, err := csv.ReadDir(dir)
		require.NoError(t, err)

		p := New(projection).Completeness(files)
		assert.Equal(t, []string{"2021: no global extract"}, p.Errors)
	})

	t.Run("duplicate across regions", func(t *testing.T) {
		dir, _ := writeExtracts(t)
		files := rewrite(t, dir, "sub_saharan_africa_2021.csv", ",AGO,", ",AFG,")

		p := New(projection).Completeness(files)
		assert.Len(t, p.Errors, 2)
	})
}
