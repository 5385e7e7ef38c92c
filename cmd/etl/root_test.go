package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/mpi-etl/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Years:         []int{2020},
		RawDir:        "./data/raw",
		OutputDir:     "./data/interm",
		OnSourceError: config.PolicyAbort,
		Workers:       1,
	}
}

func TestApplyOverrides_Flags(t *testing.T) {
	v := viper.New()
	cmd := newRunCmd(v)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--years", "2021,2022", "--out-dir", "/tmp/out", "--on-source-error", "skip", "--workers", "4",
	}))

	cfg := baseConfig()
	require.NoError(t, applyOverrides(cfg, v))
	assert.Equal(t, []int{2021, 2022}, cfg.Years)
	assert.Equal(t, "./data/raw", cfg.RawDir)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, config.PolicySkip, cfg.OnSourceError)
	assert.Equal(t, 4, cfg.Workers)
}

func TestApplyOverrides_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("years: [2019, 2023]\nraw-dir: /data/raw\n"), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := baseConfig()
	require.NoError(t, applyOverrides(cfg, v))
	assert.Equal(t, []int{2019, 2023}, cfg.Years)
	assert.Equal(t, "/data/raw", cfg.RawDir)
}

func TestApplyOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad policy", args: []string{"--on-source-error", "retry"}},
		{name: "bad year", args: []string{"--years", "20x1"}},
		{name: "too many workers", args: []string{"--workers", "65"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			cmd := newRunCmd(v)
			require.NoError(t, cmd.Flags().Parse(tt.args))
			assert.Error(t, applyOverrides(baseConfig(), v))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "mpi-etl "+version+"\n", out.String())
}
