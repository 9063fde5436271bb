package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
)

// PrintRunSummary outputs the outcome of a measurement run.
func PrintRunSummary(summary schema.RunSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteRunSummaryCSV(w, summary)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteRunSummaryTable(w, summary, cfg)
		}, "Wrote table")
	}
}

// WriteRunSummaryCSV writes the run counters as metric,value rows.
func WriteRunSummaryCSV(w io.Writer, summary schema.RunSummary) error {
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		rows := [][]string{
			{"selected", strconv.Itoa(summary.Selected)},
			{"succeeded", strconv.Itoa(summary.Succeeded)},
			{"failed", strconv.Itoa(summary.Failed)},
			{"not_started", strconv.Itoa(summary.NotStarted)},
		}
		for _, stage := range slices.Sorted(maps.Keys(summary.ByStage)) {
			rows = append(rows, []string{"failed_" + string(stage), strconv.Itoa(summary.ByStage[stage])})
		}
		rows = append(rows, []string{"duration", summary.Duration})
		return cw.WriteAll(rows)
	})
}

// WriteRunSummaryTable writes the run counters and the failures per stage.
func WriteRunSummaryTable(w io.Writer, summary schema.RunSummary, cfg *contract.Config) error {
	red, green, _ := colorizers(cfg)
	failed := strconv.Itoa(summary.Failed)
	if summary.Failed > 0 {
		failed = red(failed)
	}
	rows := [][]string{{
		strconv.Itoa(summary.Selected),
		green(strconv.Itoa(summary.Succeeded)),
		failed,
		strconv.Itoa(summary.NotStarted),
	}}
	if err := renderTable(w, []string{"Selected", "Succeeded", "Failed", "Not started"}, rows); err != nil {
		return err
	}
	for _, stage := range slices.Sorted(maps.Keys(summary.ByStage)) {
		_, _ = fmt.Fprintf(w, "  %s failures: %d\n", stage, summary.ByStage[stage])
	}
	_, _ = fmt.Fprintf(w, "Run completed in %s with %d workers\n", summary.Duration, cfg.Workers)
	return nil
}

// PrintMergeReport outputs the outcome of merging shard summaries.
func PrintMergeReport(report schema.MergeReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"table", "rows", "conflicts"}, func(cw *csv.Writer) error {
				return cw.WriteAll([][]string{
					{"size", strconv.Itoa(report.SizeRows), strconv.Itoa(report.SizeConflicts)},
					{"quality", strconv.Itoa(report.QualityRows), strconv.Itoa(report.QualityConflicts)},
				})
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteMergeTable(w, report)
		}, "Wrote table")
	}
}

// WriteMergeTable writes the merged row counts and the source shards.
func WriteMergeTable(w io.Writer, report schema.MergeReport) error {
	rows := [][]string{
		{"size", strconv.Itoa(report.SizeRows), strconv.Itoa(report.SizeConflicts)},
		{"quality", strconv.Itoa(report.QualityRows), strconv.Itoa(report.QualityConflicts)},
	}
	if err := renderTable(w, []string{"Table", "Rows", "Conflicts"}, rows); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Merged %d source files\n", len(report.Sources))
	for _, src := range report.Sources {
		_, _ = fmt.Fprintf(w, "  %s\n", src)
	}
	return nil
}

// PrintStoreStatus outputs the results store status.
func PrintStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteStoreStatus(w, status)
	}, "Wrote status")
}

// WriteStoreStatus writes the store status as plain lines.
func WriteStoreStatus(w io.Writer, status schema.StoreStatus) error {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Local().Format(time.DateTime))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
	return nil
}
