package schema

import "time"

// StoreStatus represents the status of the results store.
type StoreStatus struct {
	Backend     string           `json:"backend"`
	Connected   bool             `json:"connected"`
	TotalRuns   int              `json:"total_runs"`
	LastRunID   int64            `json:"last_run_id"`
	LastRunTime time.Time        `json:"last_run_time"`
	TableSizes  map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the repostudy_runs table.
type RunRecord struct {
	RunID     int64
	StartTime time.Time
	EndTime   *time.Time
	Suffix    string
	Selected  int
	Succeeded int
	Failed    int
}

// FailureRecord represents a row from the repostudy_failures table.
type FailureRecord struct {
	RunID      int64
	Repo       string
	Stage      string
	Reason     string
	RecordedAt time.Time
}
