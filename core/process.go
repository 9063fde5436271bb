// Package core has core logic for measurement, merging, analysis and collection.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/dataset"
	"github.com/huangsam/repostudy/internal/outwriter"
	"github.com/huangsam/repostudy/schema"
)

// Scratch namespace layout.
const (
	checkoutDirName = "src"
	ckOutputDirName = "ck"
)

var errCanceled = errors.New("run interrupted before measurement finished")

// Tools are the external collaborators of the measurement loop.
// A nil Size or Quality disables that measurement step.
type Tools struct {
	VCS     contract.VCSClient
	Size    contract.SizeCounter
	Quality contract.QualityMeter
}

// ExecuteProcess resolves the external tools, measures every selected repository and
// prints the run summary. It serves as the main entry point for the 'process' command.
func ExecuteProcess(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := contract.ResolveTools(cfg); err != nil {
		return err
	}
	tools := Tools{VCS: contract.NewLocalGitClient(cfg.GitExe, cfg.CloneTimeout)}
	if !cfg.SkipCloc {
		tools.Size = contract.NewLocalClocClient(cfg.ClocExe, cfg.ClocTimeout)
	}
	if !cfg.SkipCK {
		tools.Quality = contract.NewLocalCKClient(cfg.JavaExe, cfg.CKJar, cfg.CKXms, cfg.CKXmx, cfg.CKTimeout)
	}
	summary, err := RunProcess(ctx, cfg, tools, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintRunSummary(summary, cfg)
}

// SelectTasks builds the work plan: rows matching the filter are indexed in order, the
// first StartAt are skipped, rows whose offset from StartAt falls on this shard are kept,
// and the plan stops at MaxRepos (0 means no cap).
func SelectTasks(repos []schema.RepoRecord, cfg *contract.Config) []schema.RepoTask {
	mod := max(cfg.ShardMod, 1)
	var tasks []schema.RepoTask
	i := 0
	for _, r := range repos {
		if cfg.Filter != nil && !cfg.Filter.MatchString(r.Repo) {
			continue
		}
		idx := i
		i++
		if idx < cfg.StartAt || (idx-cfg.StartAt)%mod != cfg.ShardIdx {
			continue
		}
		tasks = append(tasks, schema.RepoTask{Index: idx, Repo: r.Repo, URL: r.URL})
		if cfg.MaxRepos > 0 && len(tasks) >= cfg.MaxRepos {
			break
		}
	}
	return tasks
}

// RunProcess runs the measurement loop with the given tools. Repository-scoped
// failures are logged and recorded; only run-fatal conditions are returned.
func RunProcess(ctx context.Context, cfg *contract.Config, tools Tools, mgr contract.StoreManager) (schema.RunSummary, error) {
	start := time.Now()

	repos, err := dataset.ReadRepoList(cfg.InputPath)
	if err != nil {
		return schema.RunSummary{}, err
	}
	tasks := SelectTasks(repos, cfg)

	if err := dataset.ProbeWritable(cfg.OutDir); err != nil {
		return schema.RunSummary{}, err
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return schema.RunSummary{}, fmt.Errorf("cannot create work directory %s: %w", cfg.WorkDir, err)
	}

	var store contract.ResultStore
	if mgr != nil {
		store = mgr.GetResultStore()
	}
	sink, err := NewResultSink(cfg.OutDir, cfg.OutSuffix, store)
	if err != nil {
		return schema.RunSummary{}, err
	}

	if !shouldSuppressHeader(ctx) {
		logProcessHeader(cfg, tools, len(tasks), len(repos))
	}

	// --- Begin Run Tracking (if configured) ---
	var runID int64
	if store != nil {
		params := map[string]any{
			"input":     cfg.InputPath,
			"out_dir":   cfg.OutDir,
			"suffix":    cfg.OutSuffix,
			"filter":    cfg.FilterStr,
			"start_at":  cfg.StartAt,
			"max":       cfg.MaxRepos,
			"shard_mod": cfg.ShardMod,
			"shard_idx": cfg.ShardIdx,
			"workers":   cfg.Workers,
			"skip_cloc": tools.Size == nil,
			"skip_ck":   tools.Quality == nil,
		}
		runID, err = store.BeginRun(start, params)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if runID > 0 {
			ctx = withRunID(ctx, runID)
		}
	}

	summary := measureAll(ctx, cfg, tools, sink, tasks)
	summary.Duration = time.Since(start).Round(time.Millisecond).String()

	// --- End Run Tracking ---
	if store != nil && runID > 0 {
		if err := store.EndRun(runID, time.Now(), summary); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}
	if ctx.Err() != nil {
		contract.LogWarn("Run interrupted", ctx.Err())
	}
	return summary, nil
}

// repoOutcome is what a worker reports back for one repository.
type repoOutcome struct {
	repo     string
	failures []schema.FailureStage
}

// measureAll fans the tasks out to cfg.Workers workers and tallies their outcomes.
// Dispatch stops as soon as ctx is canceled; tasks never handed out count as not started.
func measureAll(ctx context.Context, cfg *contract.Config, tools Tools, sink *ResultSink, tasks []schema.RepoTask) schema.RunSummary {
	w := &repoWorker{cfg: cfg, tools: tools, sink: sink}
	bar := newProgressBar(cfg, len(tasks), "Measuring repositories")

	taskCh := make(chan schema.RepoTask)
	outcomeCh := make(chan repoOutcome, len(tasks))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for t := range taskCh {
				outcomeCh <- w.processRepo(ctx, t)
				_ = bar.Add(1)
			}
		})
	}

	dispatched := 0
dispatch:
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case taskCh <- t:
			dispatched++
		}
	}
	close(taskCh)

	wg.Wait()
	close(outcomeCh)
	_ = bar.Finish()

	summary := schema.RunSummary{
		Selected:   len(tasks),
		NotStarted: len(tasks) - dispatched,
		ByStage:    make(map[schema.FailureStage]int),
	}
	for o := range outcomeCh {
		if len(o.failures) == 0 {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		for _, stage := range o.failures {
			summary.ByStage[stage]++
		}
	}
	return summary
}

// repoWorker runs acquire, measure, persist and reclaim for one repository at a time.
type repoWorker struct {
	cfg   *contract.Config
	tools Tools
	sink  *ResultSink
}

func (w *repoWorker) processRepo(ctx context.Context, task schema.RepoTask) repoOutcome {
	out := repoOutcome{repo: task.Repo}
	fail := func(stage schema.FailureStage, err error) {
		contract.LogStage(string(stage), contract.OutcomeFail, task.Repo, err.Error())
		w.sink.RecordFailure(ctx, schema.FailureEntry{Repo: task.Repo, Stage: stage, Reason: err.Error()})
		out.failures = append(out.failures, stage)
	}

	ns, err := os.MkdirTemp(w.cfg.WorkDir, contract.ScratchName(task.Repo)+"-*")
	if err != nil {
		fail(schema.CloneStage, fmt.Errorf("cannot create scratch directory: %w", err))
		return out
	}

	w.measure(ctx, task, ns, fail)
	w.reclaim(task, ns, fail)

	if len(out.failures) == 0 {
		contract.LogStage("repo", contract.OutcomeOK, task.Repo, "")
	}
	return out
}

// measure runs the tool steps. Tool invocations are detached from ctx cancellation so an
// in-flight invocation finishes; cancellation is checked between steps instead.
func (w *repoWorker) measure(ctx context.Context, task schema.RepoTask, ns string, fail func(schema.FailureStage, error)) {
	toolCtx := context.WithoutCancel(ctx)
	src := filepath.Join(ns, checkoutDirName)

	if err := w.acquire(toolCtx, task, src); err != nil {
		fail(schema.CloneStage, err)
		return
	}
	if ctx.Err() != nil {
		fail(schema.CanceledStage, errCanceled)
		return
	}

	if w.tools.Size != nil {
		w.measureSize(toolCtx, task, ns, src, fail)
		if ctx.Err() != nil {
			fail(schema.CanceledStage, errCanceled)
			return
		}
	}

	if w.tools.Quality != nil {
		rec, target, err := measureQuality(toolCtx, w.tools.Quality, task.Repo, src, filepath.Join(ns, ckOutputDirName))
		if err != nil {
			fail(schema.CKStage, err)
			return
		}
		if target != src {
			rel, _ := filepath.Rel(src, target)
			contract.LogStage("ck", contract.OutcomeFallback, task.Repo, "measured "+filepath.ToSlash(rel))
		}
		if err := w.sink.PutQuality(rec); err != nil {
			fail(schema.PersistStage, err)
		}
	}
}

// acquire shallow-clones the repository, falling back to extracting its Java sources.
func (w *repoWorker) acquire(ctx context.Context, task schema.RepoTask, dest string) error {
	cloneErr := w.tools.VCS.ShallowClone(ctx, task.URL, dest)
	if cloneErr == nil {
		return nil
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("%w; cannot remove partial clone: %w", cloneErr, err)
	}
	n, err := w.tools.VCS.ExtractSources(ctx, task.URL, dest, isJavaSource)
	if err != nil {
		return fmt.Errorf("%w; extraction fallback: %w", cloneErr, err)
	}
	contract.LogStage("clone", contract.OutcomeFallback, task.Repo, fmt.Sprintf("extracted %d Java sources", n))
	return nil
}

func (w *repoWorker) measureSize(ctx context.Context, task schema.RepoTask, ns, src string, fail func(schema.FailureStage, error)) {
	m := newSizeMeasurer(w.tools.Size, ns, w.cfg.ClocExtended)
	chain := m.Strategies()
	rec, strategy, err := runClocChain(ctx, chain, src)
	if err != nil {
		fail(schema.ClocStage, err)
		return
	}
	rec.Repo = task.Repo
	switch {
	case !hasTotals(rec):
		contract.LogStage("cloc", contract.OutcomeFallback, task.Repo, "every strategy counted zero Java files")
	case strategy != chain[0].Name:
		contract.LogStage("cloc", contract.OutcomeFallback, task.Repo, "counted with "+strategy)
	}
	if err := w.sink.PutSize(rec); err != nil {
		fail(schema.PersistStage, err)
	}
}

func (w *repoWorker) reclaim(task schema.RepoTask, ns string, fail func(schema.FailureStage, error)) {
	if w.cfg.KeepTemp {
		contract.LogStage("reclaim", contract.OutcomeSkip, task.Repo, "kept "+ns)
		return
	}
	if err := os.RemoveAll(ns); err != nil {
		fail(schema.ReclaimStage, err)
	}
}

func logProcessHeader(cfg *contract.Config, tools Tools, selected, total int) {
	steps := "clone"
	if tools.Size != nil {
		steps += " + cloc"
	}
	if tools.Quality != nil {
		steps += " + ck"
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %d of %d repositories (%s) with %d worker(s), shard %d/%d\n",
		contract.StageLabel("process", contract.OutcomeInfo), selected, total, steps,
		max(cfg.Workers, 1), cfg.ShardIdx, max(cfg.ShardMod, 1))
}
