// Command validate audits the extracts in an output directory: header
// contract, weight normalization, composite additivity and partition
// completeness per year.
//
// Usage:
//
//	go run ./cmd/validate -dir data/interm
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/mpi-etl/internal/adapter/csv"
	"github.com/couchcryptid/mpi-etl/internal/schema"
	"github.com/couchcryptid/mpi-etl/internal/verify"
)

func main() {
	dir := flag.String("dir", "data/interm", "directory containing {region}_{year}.csv extracts")
	schemaFile := flag.String("schema", "", "YAML sheet schema (default: built-in)")
	flag.Parse()

	if code := run(*dir, *schemaFile); code != 0 {
		os.Exit(code)
	}
}

func run(dir, schemaFile string) int {
	fmt.Println("=== MPI Extract Validation ===")
	fmt.Println()

	s, err := schema.Load(schemaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load schema: %v\n", err)
		return 1
	}
	files, err := csv.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read extracts: %v\n", err)
		return 1
	}

	phases := verify.New(s.DomainProjection()).Run(files)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.Passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.Errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.Name, status)
	}

	rows := 0
	for _, f := range files {
		rows += len(f.Rows)
	}
	fmt.Println()
	fmt.Printf("Extracts: %d files, %d rows\n", len(files), rows)

	for _, p := range phases {
		if p.Passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.Name)
		for i, e := range p.Errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}
