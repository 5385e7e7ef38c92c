package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "ISO Country Code", s.JoinKey)
	assert.Equal(t, "MPI", s.CheckColumn)

	assert.Equal(t, "1.1 National MPI Results", s.National.Name)
	assert.Equal(t, 8, s.National.SkipHeader)
	assert.Equal(t, 1, s.National.CaptionRows)
	assert.Equal(t, 10, s.National.SkipFooter)
	assert.Len(t, s.National.Columns, 22)

	assert.Equal(t, "1.3 Contribut'n of Deprivations", s.Contributions.Name)
	assert.Equal(t, 8, s.Contributions.SkipHeader)
	assert.Equal(t, 1, s.Contributions.CaptionRows)
	assert.Equal(t, 3, s.Contributions.SkipFooter)
	assert.Len(t, s.Contributions.Columns, 22)

	assert.Equal(t, "Population 2018", s.DomainProjection().PopulationColumn(2020))
}

func TestColumnNames_RenderYearOffsets(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	names := s.National.ColumnNames(2021)
	assert.Contains(t, names, "Population 2018")
	assert.Contains(t, names, "Population 2019")
	assert.Contains(t, names, "Poor Population 2019")
	assert.Equal(t, "Population YOS", names[14])
}

func TestMinWidth(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 17, s.National.MinWidth())
	assert.Equal(t, 20, s.Contributions.MinWidth())
}

func TestFilePath(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "raw", "Global MPI 2022 National Results.xlsx"), s.FilePath("data/raw", 2022))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "unknown key",
			mutate:  func(y string) string { return y + "\nextra: true\n" },
			wantErr: "decode schema",
		},
		{
			name:    "bad column type",
			mutate:  func(y string) string { return strings.Replace(y, "type: number }", "type: float }", 1) },
			wantErr: "Type",
		},
		{
			name: "file name without year",
			mutate: func(y string) string {
				return strings.Replace(y,
					`file_name: "Global MPI {year} National Results.xlsx"`,
					`file_name: "Global MPI 2020 National Results.xlsx"`, 1)
			},
			wantErr: "FileName",
		},
		{
			name:    "missing indicator column",
			mutate:  func(y string) string { return strings.Replace(y, "name: Housing,", "name: Shelter,", 1) },
			wantErr: `indicator "Housing"`,
		},
		{
			name:    "join key not declared",
			mutate:  func(y string) string { return strings.Replace(y, "join_key: ISO Country Code", "join_key: ISO3", 1) },
			wantErr: `join key "ISO3"`,
		},
		{
			name: "population offset not declared",
			mutate: func(y string) string {
				return strings.Replace(y, "population_year_offset: -2", "population_year_offset: -5", 1)
			},
			wantErr: "population column",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(string(defaultSchema))))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses embedded schema", func(t *testing.T) {
		s, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "MPI", s.CheckColumn)
	})

	t.Run("override file", func(t *testing.T) {
		custom := strings.Replace(string(defaultSchema), "skip_footer: 10", "skip_footer: 12", 1)
		path := filepath.Join(t.TempDir(), "schema.yaml")
		require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))

		s, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 12, s.National.SkipFooter)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read schema")
	})
}
