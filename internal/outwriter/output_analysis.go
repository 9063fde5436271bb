package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
)

// Correlation strength labels by |r_spearman|.
const (
	strongLabel   = "strong"
	moderateLabel = "moderate"
	weakLabel     = "weak"
)

// strengthLabel buckets a rank correlation by magnitude.
func strengthLabel(r float64) string {
	switch a := math.Abs(r); {
	case a >= 0.5:
		return strongLabel
	case a >= 0.3:
		return moderateLabel
	default:
		return weakLabel
	}
}

// PrintAnalysis outputs the analysis report, dispatching based on the output format configured.
func PrintAnalysis(report schema.AnalysisReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteAnalysisCSV(w, report)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteAnalysisTable(w, report, cfg)
		}, "Wrote table"); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// WriteAnalysisCSV writes the ranked correlations in the correlation table layout.
func WriteAnalysisCSV(w io.Writer, report schema.AnalysisReport) error {
	return writeCSVWithHeader(w, schema.CorrelationHeader, func(cw *csv.Writer) error {
		for _, c := range report.Top {
			if err := cw.Write(c.CorrelationRow()); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteAnalysisTable writes the ranked correlations, the per-process strength and a summary line.
func WriteAnalysisTable(w io.Writer, report schema.AnalysisReport, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	_, green, yellow := colorizers(cfg)

	_, _ = fmt.Fprintf(w, "Top correlations (n >= %d)\n", cfg.TopMinN)
	var rows [][]string
	for i, c := range report.Top {
		label := strengthLabel(c.Spearman)
		switch label {
		case strongLabel:
			label = green(label)
		case moderateLabel:
			label = yellow(label)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(c.Process),
			c.X,
			c.Y,
			fmtFloat(c.Spearman),
			fmtFloat(c.Pearson),
			formatP(c.SpearmanP, cfg.Precision),
			fmt.Sprintf(intFmt, c.N),
			label,
		})
	}
	if err := renderTable(w, []string{"Rank", "Process", "X", "Y", "Spearman", "Pearson", "P", "N", "Strength"}, rows); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "\nMedian |Spearman| by process metric")
	rows = nil
	for _, s := range report.Strength {
		rows = append(rows, []string{
			string(s.Process),
			s.X,
			fmtFloat(s.MedianAbsRho),
			fmt.Sprintf(intFmt, s.Correlations),
		})
	}
	if err := renderTable(w, []string{"Process", "X", "Median |r|", "Pairs"}, rows); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Analyzed %d repositories (%d fully measured, %d anomalous); computed %d correlations\n",
		report.Repos, report.Measured, report.Anomalous, report.Computed)
	return nil
}

// formatP renders tiny p-values in scientific notation.
func formatP(p float64, precision int) string {
	switch {
	case math.IsNaN(p):
		return "-"
	case p != 0 && p < math.Pow(10, -float64(precision)):
		return strconv.FormatFloat(p, 'e', 2, 64)
	default:
		return strconv.FormatFloat(p, 'f', precision, 64)
	}
}
