// Package dataset reads and writes the CSV tables and failure logs exchanged between pipeline stages.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/repostudy/schema"
)

// utf8BOM is stripped from the first header cell of tables produced on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// table is a parsed CSV file with case-insensitive column lookup.
type table struct {
	index map[string]int
	rows  [][]string
}

// get returns the cell for the first matching column name, or "".
func (t *table) get(row []string, names ...string) string {
	for _, name := range names {
		if i, ok := t.index[strings.ToLower(name)]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

// has reports whether any of the column names is present.
func (t *table) has(names ...string) bool {
	for _, name := range names {
		if _, ok := t.index[strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}

// readTable parses a CSV file with a header row.
func readTable(path string) (*table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTable(bytes.TrimPrefix(data, utf8BOM))
}

func parseTable(data []byte) (*table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header: %w", err)
	}
	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read CSV row: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// readOptionalTable is readTable that treats an absent file as an empty table.
func readOptionalTable(path string) (*table, error) {
	t, err := readTable(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &table{index: map[string]int{}}, nil
	}
	return t, err
}

// ReadRepoList reads the repository list. Rows without repo or url are skipped.
// A missing or unreadable file is an error.
func ReadRepoList(path string) ([]schema.RepoRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read repository list %s: %w", path, err)
	}
	repos := make([]schema.RepoRecord, 0, len(t.rows))
	for _, row := range t.rows {
		rec := schema.RepoRecord{
			Repo:      t.get(row, "repo"),
			URL:       t.get(row, "url"),
			Stars:     schema.ParseInt(t.get(row, "stars")),
			CreatedAt: t.get(row, "created_at"),
			Releases:  schema.ParseCount(t.get(row, "releases")),
			AgeYears:  schema.ParseFloat(t.get(row, "age_years")),
		}
		if rec.Repo == "" || rec.URL == "" {
			continue
		}
		repos = append(repos, rec)
	}
	return repos, nil
}

// ReadSizeSummary reads a size summary in file order. An absent file yields no rows.
func ReadSizeSummary(path string) ([]schema.SizeRecord, error) {
	t, err := readOptionalTable(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read size summary %s: %w", path, err)
	}
	recs := make([]schema.SizeRecord, 0, len(t.rows))
	for _, row := range t.rows {
		repo := t.get(row, "repo")
		if repo == "" {
			continue
		}
		recs = append(recs, schema.SizeRecord{
			Repo:    repo,
			Files:   schema.ParseInt(t.get(row, "files", "nFiles")),
			Code:    schema.ParseInt(t.get(row, "code")),
			Comment: schema.ParseInt(t.get(row, "comment")),
			Blank:   schema.ParseInt(t.get(row, "blank")),
		})
	}
	return recs, nil
}

// ReadQualitySummary reads a quality summary in file order. An absent file yields no rows.
// Summaries written before n_classes existed read with NClasses zero.
func ReadQualitySummary(path string) ([]schema.QualityRecord, error) {
	t, err := readOptionalTable(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read quality summary %s: %w", path, err)
	}
	summary := func(row []string, metric string) schema.MetricSummary {
		return schema.MetricSummary{
			Mean:   schema.ParseFloat(t.get(row, metric+"_mean")),
			Median: schema.ParseFloat(t.get(row, metric+"_median")),
			Std:    schema.ParseFloat(t.get(row, metric+"_std")),
		}
	}
	recs := make([]schema.QualityRecord, 0, len(t.rows))
	for _, row := range t.rows {
		repo := t.get(row, "repo")
		if repo == "" {
			continue
		}
		recs = append(recs, schema.QualityRecord{
			Repo:     repo,
			NClasses: schema.ParseInt(t.get(row, "n_classes")),
			CBO:      summary(row, "cbo"),
			DIT:      summary(row, "dit"),
			LCOM:     summary(row, "lcom"),
		})
	}
	return recs, nil
}

// WriteCSVAtomic writes header and rows to a temporary file beside path, then renames it into place.
func WriteCSVAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	// CreateTemp uses 0600; summaries are shared artifacts.
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// WriteRepoList writes the repository list atomically.
func WriteRepoList(path string, repos []schema.RepoRecord) error {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, r.RepoRow())
	}
	return WriteCSVAtomic(path, schema.RepoHeader, rows)
}

// WriteSizeSummary writes a size summary atomically.
func WriteSizeSummary(path string, recs []schema.SizeRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.SizeRow())
	}
	return WriteCSVAtomic(path, schema.SizeHeader, rows)
}

// WriteQualitySummary writes a quality summary atomically.
func WriteQualitySummary(path string, recs []schema.QualityRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.QualityRow())
	}
	return WriteCSVAtomic(path, schema.QualityHeader, rows)
}

// WriteMerged writes the merged analysis table atomically.
func WriteMerged(path string, recs []schema.MergedRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.MergedRow())
	}
	return WriteCSVAtomic(path, schema.MergedHeader, rows)
}

// WriteCorrelations writes the correlation table atomically.
func WriteCorrelations(path string, recs []schema.CorrelationRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.CorrelationRow())
	}
	return WriteCSVAtomic(path, schema.CorrelationHeader, rows)
}

// WriteWorkList writes a repo,url list that the measurement loop accepts as input.
func WriteWorkList(path string, repos []schema.RepoRecord) error {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{r.Repo, r.URL})
	}
	return WriteCSVAtomic(path, []string{"repo", "url"}, rows)
}

// AppendFailure appends one entry to the failure log.
// Tabs and newlines in the reason collapse to spaces so each entry stays on one line.
func AppendFailure(path string, entry schema.FailureEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s\t%s\t%s\n", entry.Repo, entry.Stage, oneLine(entry.Reason))
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func oneLine(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ReadFailures reads a failure log. An absent log yields no entries.
func ReadFailures(path string) ([]schema.FailureEntry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var entries []schema.FailureEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 3)
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		entry := schema.FailureEntry{Repo: parts[0], Stage: schema.FailureStage(parts[1])}
		if len(parts) == 3 {
			entry.Reason = parts[2]
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// ProbeWritable verifies that dir exists (creating it if needed) and accepts new files.
func ProbeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	return nil
}

// SummaryFiles returns every "<base>*.csv" file in dir. The canonical "<base>.csv"
// comes first and shard files follow in name order.
func SummaryFiles(dir, base string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, base+"*.csv"))
	if err != nil {
		return nil, err
	}
	canonical := filepath.Join(dir, base+".csv")
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i] == canonical || matches[j] == canonical {
			return matches[i] == canonical
		}
		return matches[i] < matches[j]
	})
	return matches, nil
}
