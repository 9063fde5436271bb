package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
)

// missingPreviewLimit caps the repositories listed in the missing table.
const missingPreviewLimit = 10

// validationExamples caps the repositories named per validation category in the table.
const validationExamples = 3

// PrintMissingReport outputs the missing report, dispatching based on the output format configured.
func PrintMissingReport(report schema.MissingReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteMissingCSV(w, report)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteMissingTable(w, report, cfg)
		}, "Wrote table")
	}
}

// missingFlags reports for each repository of Next whether it lacks a size or quality row.
func missingFlags(report schema.MissingReport) (size, quality map[string]bool) {
	size = make(map[string]bool, len(report.MissingSize))
	quality = make(map[string]bool, len(report.MissingQuality))
	for _, r := range report.MissingSize {
		size[r] = true
	}
	for _, r := range report.MissingQuality {
		quality[r] = true
	}
	return size, quality
}

// WriteMissingCSV writes one row per repository missing either summary, in list order.
func WriteMissingCSV(w io.Writer, report schema.MissingReport) error {
	noSize, noQuality := missingFlags(report)
	return writeCSVWithHeader(w, []string{"repo", "url", "missing_size", "missing_quality"}, func(cw *csv.Writer) error {
		for _, r := range report.Next {
			row := []string{r.Repo, r.URL, strconv.FormatBool(noSize[r.Repo]), strconv.FormatBool(noQuality[r.Repo])}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMissingTable writes the coverage counts and the first repositories to re-process.
func WriteMissingTable(w io.Writer, report schema.MissingReport, cfg *contract.Config) error {
	red, green, _ := colorizers(cfg)
	mark := func(missing bool) string {
		if missing {
			return red("missing")
		}
		return green("ok")
	}

	_, _ = fmt.Fprintf(w, "Listed repositories: %d\n", report.Total)
	_, _ = fmt.Fprintf(w, "Size rows present: %d/%d\n", report.SizePresent, report.Total)
	_, _ = fmt.Fprintf(w, "Quality rows present: %d/%d\n", report.QualityPresent, report.Total)
	_, _ = fmt.Fprintf(w, "Missing size: %d, missing quality: %d, missing both: %d\n",
		len(report.MissingSize), len(report.MissingQuality), len(report.MissingBoth))

	if len(report.Next) > 0 {
		noSize, noQuality := missingFlags(report)
		width := getMaxTableRepoWidth(cfg, 30)
		var rows [][]string
		for i, r := range report.Next {
			if i >= missingPreviewLimit {
				break
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), truncateRepo(r.Repo, width), mark(noSize[r.Repo]), mark(noQuality[r.Repo])})
		}
		_, _ = fmt.Fprintf(w, "\nShowing %d of %d repositories to re-process\n", len(rows), len(report.Next))
		if err := renderTable(w, []string{"#", "Repo", "Size", "Quality"}, rows); err != nil {
			return err
		}
	}

	if report.WrittenTo != "" {
		_, _ = fmt.Fprintf(w, "Work list written to %s\n", report.WrittenTo)
	}
	return nil
}

// PrintValidationReport outputs the validation report, dispatching based on the output format configured.
func PrintValidationReport(report schema.ValidationReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteValidationCSV(w, report)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteValidationTable(w, report, cfg)
		}, "Wrote table")
	}
}

// WriteValidationCSV writes one category,repo row per finding.
func WriteValidationCSV(w io.Writer, report schema.ValidationReport) error {
	return writeCSVWithHeader(w, []string{"category", "repo"}, func(cw *csv.Writer) error {
		for _, category := range schema.ValidationCategories {
			for _, repo := range report.Categories[category] {
				if err := cw.Write([]string{category, repo}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteValidationTable writes the count and a few example repositories per category.
func WriteValidationTable(w io.Writer, report schema.ValidationReport, cfg *contract.Config) error {
	red, green, _ := colorizers(cfg)

	var rows [][]string
	flagged := 0
	for _, category := range schema.ValidationCategories {
		repos := report.Categories[category]
		count := strconv.Itoa(len(repos))
		if len(repos) > 0 {
			count = red(count)
			flagged += len(repos)
		} else {
			count = green(count)
		}
		examples := repos[:min(len(repos), validationExamples)]
		rows = append(rows, []string{category, count, strings.Join(examples, ", ")})
	}
	if err := renderTable(w, []string{"Category", "Count", "Examples"}, rows); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Checked %d repositories; %d findings\n", report.Total, flagged)
	return nil
}
