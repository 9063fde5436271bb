package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/parquet"
)

// ExportStore exports every table of the results store to Parquet files next to outputFile.
func ExportStore(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	store := Manager.GetResultStore()
	if store == nil {
		return errors.New("results store is not initialized")
	}
	return exportResults(store, outputFile)
}

func exportResults(store contract.ResultStore, outputFile string) error {
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TableSizes[sizeTable] == 0 && status.TableSizes[qualityTable] == 0 && status.TotalRuns == 0 {
		return errors.New("no results found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)

	sizes, err := store.GetAllSizes()
	if err != nil {
		return fmt.Errorf("failed to retrieve size rows: %w", err)
	}
	qualities, err := store.GetAllQualities()
	if err != nil {
		return fmt.Errorf("failed to retrieve quality rows: %w", err)
	}
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	failures, err := store.GetAllFailures()
	if err != nil {
		return fmt.Errorf("failed to retrieve failures: %w", err)
	}

	sizesFile := outputFile + ".size.parquet"
	if err := parquet.WriteSizesParquet(parquet.ConvertSizeRecords(sizes), sizesFile); err != nil {
		return fmt.Errorf("failed to write size rows: %w", err)
	}
	fmt.Printf("Exported %d size rows to: %s\n", len(sizes), sizesFile)

	qualityFile := outputFile + ".quality.parquet"
	if err := parquet.WriteQualitiesParquet(parquet.ConvertQualityRecords(qualities), qualityFile); err != nil {
		return fmt.Errorf("failed to write quality rows: %w", err)
	}
	fmt.Printf("Exported %d quality rows to: %s\n", len(qualities), qualityFile)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	failuresFile := outputFile + ".failures.parquet"
	if err := parquet.WriteFailuresParquet(parquet.ConvertFailureRecords(failures), failuresFile); err != nil {
		return fmt.Errorf("failed to write failures: %w", err)
	}
	fmt.Printf("Exported %d failures to: %s\n", len(failures), failuresFile)

	fmt.Println("\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Spark.")
	return nil
}
