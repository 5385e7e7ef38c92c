// Command genmock writes deterministic national-results workbooks laid out
// as the sheet schema declares, for local runs and demos.
//
// Usage:
//
//	go run ./cmd/genmock -years 2020,2021,2022,2023 -out data/raw
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/mpi-etl/internal/adapter/excel"
	"github.com/couchcryptid/mpi-etl/internal/config"
	"github.com/couchcryptid/mpi-etl/internal/schema"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	yearsFlag := flag.String("years", "2020,2021,2022,2023", "comma-separated vintage years")
	out := flag.String("out", "data/raw", "output directory for the workbooks")
	schemaFile := flag.String("schema", "", "YAML sheet schema (default: built-in)")
	flag.Parse()

	years, err := config.ParseYears(*yearsFlag)
	if err != nil {
		return fmt.Errorf("invalid -years: %w", err)
	}
	if len(years) == 0 {
		flag.Usage()
		return fmt.Errorf("missing required flag: -years")
	}

	s, err := schema.Load(*schemaFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}

	for _, year := range years {
		path := s.FilePath(*out, year)
		countries := excel.SampleCountries(year)
		if err := excel.WriteWorkbook(path, s, year, countries); err != nil {
			return fmt.Errorf("write %d workbook: %w", year, err)
		}
		log.Printf("%d: %d countries -> %s", year, len(countries), path)
	}
	return nil
}
