package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
)

// Limits of the source-list strategies.
const (
	clocChunkSize          = 2000
	maxModuleRoots         = 10
	maxModuleRootsExtended = 50
	javaMatchPattern       = `--match-f=\.java$`
)

var errNoJavaSources = errors.New("no Java sources found")

// ClocStrategy is one way of asking cloc for the size of a checkout.
type ClocStrategy struct {
	Name string
	Run  func(ctx context.Context, root string) (schema.SizeRecord, error)
}

// clocCounts is one language entry (or the SUM entry) of cloc's JSON report.
type clocCounts struct {
	NFiles  int64 `json:"nFiles"`
	Blank   int64 `json:"blank"`
	Comment int64 `json:"comment"`
	Code    int64 `json:"code"`
}

func (c clocCounts) record() schema.SizeRecord {
	return schema.SizeRecord{Files: c.NFiles, Code: c.Code, Comment: c.Comment, Blank: c.Blank}
}

// parseClocJSON reads cloc's --json report, preferring the SUM entry and otherwise
// adding up every language entry. Empty output means cloc counted nothing.
func parseClocJSON(data []byte) (schema.SizeRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return schema.SizeRecord{}, nil
	}
	var report map[string]json.RawMessage
	if err := json.Unmarshal(data, &report); err != nil {
		return schema.SizeRecord{}, fmt.Errorf("invalid cloc JSON: %w", err)
	}
	if raw, ok := report["SUM"]; ok {
		var sum clocCounts
		if err := json.Unmarshal(raw, &sum); err != nil {
			return schema.SizeRecord{}, fmt.Errorf("invalid cloc SUM entry: %w", err)
		}
		return sum.record(), nil
	}
	var total schema.SizeRecord
	for lang, raw := range report {
		if lang == "header" {
			continue
		}
		var c clocCounts
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		total = total.Add(c.record())
	}
	return total, nil
}

// hasTotals reports whether cloc found anything at all.
func hasTotals(rec schema.SizeRecord) bool {
	return rec.Files > 0 || rec.Code > 0
}

// sizeMeasurer builds the cloc strategy chain for one checkout.
type sizeMeasurer struct {
	counter  contract.SizeCounter
	scratch  string // directory for list files, outside the checkout
	extended bool

	sources    []string
	sourcesErr error
	walked     bool
}

func newSizeMeasurer(counter contract.SizeCounter, scratch string, extended bool) *sizeMeasurer {
	return &sizeMeasurer{counter: counter, scratch: scratch, extended: extended}
}

// Strategies returns the chain in the order it is tried.
func (m *sizeMeasurer) Strategies() []ClocStrategy {
	chain := []ClocStrategy{
		{Name: "scan", Run: m.scan},
		{Name: "vcs", Run: m.vcs},
		{Name: "list-file", Run: m.listFile},
		{Name: "module-roots", Run: m.moduleRoots},
	}
	if m.extended {
		chain = append(chain,
			ClocStrategy{Name: "match-f", Run: m.matchAll},
			ClocStrategy{Name: "chunked-list", Run: m.chunkedList},
		)
	}
	return chain
}

func (m *sizeMeasurer) count(ctx context.Context, dir string, args ...string) (schema.SizeRecord, error) {
	out, err := m.counter.Count(ctx, dir, args...)
	if err != nil {
		return schema.SizeRecord{}, err
	}
	return parseClocJSON(out)
}

func excludeDirArg() string {
	return "--exclude-dir=" + strings.Join(excludedDirs, ",")
}

func (m *sizeMeasurer) scan(ctx context.Context, root string) (schema.SizeRecord, error) {
	return m.count(ctx, root, excludeDirArg(), "--include-lang="+javaLanguage, ".")
}

func (m *sizeMeasurer) vcs(ctx context.Context, root string) (schema.SizeRecord, error) {
	return m.count(ctx, root, "--vcs=git", excludeDirArg(), "--include-lang="+javaLanguage)
}

// javaSources walks the checkout once and caches the result for later strategies.
func (m *sizeMeasurer) javaSources(root string) ([]string, error) {
	if !m.walked {
		m.sources, m.sourcesErr = findJavaSources(root)
		m.walked = true
	}
	if m.sourcesErr != nil {
		return nil, m.sourcesErr
	}
	if len(m.sources) == 0 {
		return nil, errNoJavaSources
	}
	return m.sources, nil
}

func (m *sizeMeasurer) listFile(ctx context.Context, root string) (schema.SizeRecord, error) {
	files, err := m.javaSources(root)
	if err != nil {
		return schema.SizeRecord{}, err
	}
	return m.countList(ctx, root, files)
}

// countList writes the absolute paths of files to a list file and counts them.
func (m *sizeMeasurer) countList(ctx context.Context, root string, files []string) (schema.SizeRecord, error) {
	list, err := os.CreateTemp(m.scratch, "cloc-list-*.txt")
	if err != nil {
		return schema.SizeRecord{}, err
	}
	defer func() { _ = os.Remove(list.Name()) }()

	var buf bytes.Buffer
	for _, f := range files {
		buf.WriteString(filepath.Join(root, filepath.FromSlash(f)))
		buf.WriteByte('\n')
	}
	if _, err := list.Write(buf.Bytes()); err != nil {
		_ = list.Close()
		return schema.SizeRecord{}, err
	}
	if err := list.Close(); err != nil {
		return schema.SizeRecord{}, err
	}
	return m.count(ctx, root, "--list-file="+list.Name())
}

func (m *sizeMeasurer) moduleRoots(ctx context.Context, root string) (schema.SizeRecord, error) {
	files, err := m.javaSources(root)
	if err != nil {
		return schema.SizeRecord{}, err
	}
	limit := maxModuleRoots
	if m.extended {
		limit = maxModuleRootsExtended
	}

	var total schema.SizeRecord
	var errs []error
	counted := 0
	for _, mod := range moduleRoots(files, limit) {
		args := []string{javaMatchPattern}
		if !m.extended {
			args = append(args, excludeDirArg())
		}
		rec, err := m.count(ctx, root, append(args, mod)...)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mod, err))
			continue
		}
		total = total.Add(rec)
		counted++
	}
	if counted == 0 {
		return schema.SizeRecord{}, errors.Join(errs...)
	}
	return total, nil
}

func (m *sizeMeasurer) matchAll(ctx context.Context, root string) (schema.SizeRecord, error) {
	return m.count(ctx, root, javaMatchPattern, ".")
}

func (m *sizeMeasurer) chunkedList(ctx context.Context, root string) (schema.SizeRecord, error) {
	files, err := m.javaSources(root)
	if err != nil {
		return schema.SizeRecord{}, err
	}
	var total schema.SizeRecord
	var errs []error
	counted := 0
	for start := 0; start < len(files); start += clocChunkSize {
		end := min(start+clocChunkSize, len(files))
		rec, err := m.countList(ctx, root, files[start:end])
		if err != nil {
			errs = append(errs, fmt.Errorf("chunk %d: %w", start/clocChunkSize, err))
			continue
		}
		total = total.Add(rec)
		counted++
	}
	if counted == 0 {
		return schema.SizeRecord{}, errors.Join(errs...)
	}
	return total, nil
}

// runClocChain tries each strategy in order and returns the first non-zero result
// with the name of the strategy that produced it. When every strategy came back
// empty or failed, the last parseable zero result is returned; it is an error only
// when no strategy produced a parseable result at all.
func runClocChain(ctx context.Context, chain []ClocStrategy, root string) (schema.SizeRecord, string, error) {
	var zero *schema.SizeRecord
	zeroFrom := ""
	var errs []error
	for _, s := range chain {
		rec, err := s.Run(ctx, root)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if hasTotals(rec) {
			return rec, s.Name, nil
		}
		zero, zeroFrom = &rec, s.Name
	}
	if zero != nil {
		return *zero, zeroFrom, nil
	}
	if len(errs) == 0 {
		return schema.SizeRecord{}, "", errors.New("no cloc strategy configured")
	}
	return schema.SizeRecord{}, "", errors.Join(errs...)
}
