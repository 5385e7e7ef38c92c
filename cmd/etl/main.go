// Command etl builds the regional MPI extracts from the national-results
// workbooks of the requested vintage years.
//
// Usage:
//
//	go run ./cmd/etl run --years 2020,2021 --raw-dir data/raw --out-dir data/interm
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
