// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
// NaN renders as "-" in tables.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		if math.IsNaN(v) {
			return "-"
		}
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// renderTable writes a right-aligned table with the given header and rows.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// getTermWidth returns the --width override, the detected terminal width, or 80.
func getTermWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80
	}
	return detectedWidth
}

// getMaxTableRepoWidth returns the room left for repository names once the
// fixed columns are laid out.
func getMaxTableRepoWidth(cfg *contract.Config, fixedWidth int) int {
	// Reserve space for table borders, separators, and padding
	available := getTermWidth(cfg) - fixedWidth - 20
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}

// truncateRepo shortens a repository name to width, keeping the tail.
func truncateRepo(repo string, width int) string {
	runes := []rune(repo)
	if len(runes) <= width || width < 4 {
		return repo
	}
	return "..." + string(runes[len(runes)-width+3:])
}

// colorizers returns red, green and yellow Sprint functions, or plain ones with colors off.
func colorizers(cfg *contract.Config) (red, green, yellow func(...any) string) {
	if !cfg.UseColors {
		return fmt.Sprint, fmt.Sprint, fmt.Sprint
	}
	red = color.New(color.FgRed).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	return red, green, yellow
}
