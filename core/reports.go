package core

import (
	"context"
	"os"
	"path/filepath"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/internal/outwriter"
	"github.com/huangsam/repostudy/schema"
)

// ExecuteMissing reports the listed repositories that lack a size or quality row and,
// when requested, writes them as the next work list.
// It serves as the main entry point for the 'missing' command.
func ExecuteMissing(_ context.Context, cfg *contract.Config) error {
	report, err := CheckMissing(cfg)
	if err != nil {
		return err
	}
	return outwriter.PrintMissingReport(report, cfg)
}

// CheckMissing builds the missing report from cfg's inputs. With cfg.WriteMissing set,
// the repositories missing either summary are written to the work list in cfg.OutDir.
func CheckMissing(cfg *contract.Config) (schema.MissingReport, error) {
	tables, err := LoadTables(cfg.InputPath, cfg.InDir, cfg.OutSuffix)
	if err != nil {
		return schema.MissingReport{}, err
	}
	report := BuildMissingReport(tables)
	if !cfg.WriteMissing {
		return report, nil
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return report, err
	}
	path := filepath.Join(cfg.OutDir, schema.MissingReposFile)
	if err := dataset.WriteWorkList(path, report.Next); err != nil {
		return report, err
	}
	report.WrittenTo = path
	return report, nil
}

// ExecuteValidate checks the canonical summaries for anomalies and metric outliers.
// It serves as the main entry point for the 'validate' command.
func ExecuteValidate(_ context.Context, cfg *contract.Config) error {
	tables, err := LoadSummaries(cfg.InDir, cfg.OutSuffix)
	if err != nil {
		return err
	}
	return outwriter.PrintValidationReport(BuildValidationReport(tables), cfg)
}
