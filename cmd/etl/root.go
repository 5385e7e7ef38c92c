package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/couchcryptid/mpi-etl/internal/config"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "etl",
		Short: "Regional MPI extract builder",
		Long: `etl reads the Global MPI national-results workbooks for the requested
years, reconciles their two sheets, standardizes the indicator contributions,
and writes one population-weighted extract per region and year.

Settings come from the environment (MPI_YEARS, RAW_DIR, OUTPUT_DIR, ...).
Flags and an optional YAML config file override them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if cfgFile == "" {
				return nil
			}
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", cfgFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file overriding environment settings")

	root.AddCommand(newRunCmd(v), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mpi-etl", version)
		},
	}
}

// applyOverrides copies flag and config file values set in v onto cfg and
// revalidates it.
func applyOverrides(cfg *config.Config, v *viper.Viper) error {
	if v.IsSet("years") {
		var years []int
		if _, isList := v.Get("years").([]any); isList {
			years = v.GetIntSlice("years")
		} else {
			var err error
			if years, err = config.ParseYears(v.GetString("years")); err != nil {
				return fmt.Errorf("invalid years: %w", err)
			}
		}
		cfg.Years = years
	}
	if v.IsSet("raw-dir") {
		cfg.RawDir = v.GetString("raw-dir")
	}
	if v.IsSet("out-dir") {
		cfg.OutputDir = v.GetString("out-dir")
	}
	if v.IsSet("schema") {
		cfg.SchemaFile = v.GetString("schema")
	}
	if v.IsSet("on-source-error") {
		cfg.OnSourceError = v.GetString("on-source-error")
	}
	if v.IsSet("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("http-addr") {
		cfg.HTTPAddr = v.GetString("http-addr")
	}
	return cfg.Validate()
}
