package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the results store.
	DatabaseBackend string

	// FailureStage represents the pipeline step a repository failed in.
	FailureStage string

	// ProcessGroup represents a family of process metrics (popularity, maturity, ...).
	ProcessGroup string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All failure stages recorded in the failure log.
const (
	CloneStage    FailureStage = "clone"
	ClocStage     FailureStage = "cloc"
	CKStage       FailureStage = "ck"
	PersistStage  FailureStage = "persist"
	ReclaimStage  FailureStage = "reclaim"
	CanceledStage FailureStage = "canceled"
)

// All process metric groups.
const (
	PopularityGroup ProcessGroup = "popularity"
	MaturityGroup   ProcessGroup = "maturity"
	ActivityGroup   ProcessGroup = "activity"
	SizeGroup       ProcessGroup = "size"
)

// Canonical file names inside the output directory.
const (
	RepoListFile        = "repos_list.csv"
	SizeSummaryBase     = "cloc_summary"
	QualitySummaryBase  = "ck_summary"
	FailureLogBase      = "failures"
	MergedSummaryFile   = "analysis_summary.csv"
	CorrelationsFile    = "correlations.csv"
	MissingReposFile    = "missing_repos_next.csv"
	ClassMetricsFile    = "class.csv"
	summaryFileExt      = ".csv"
	failureLogExtension = ".log"
)

// AllFailureStages lists every stage in pipeline order.
var AllFailureStages = []FailureStage{CloneStage, ClocStage, CKStage, PersistStage, ReclaimStage, CanceledStage}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ProcessGroups lists the process groups in report order.
var ProcessGroups = []ProcessGroup{PopularityGroup, MaturityGroup, ActivityGroup, SizeGroup}

// ProcessMetrics maps each process group to the merged-table columns it covers.
var ProcessMetrics = map[ProcessGroup][]string{
	PopularityGroup: {"stars"},
	MaturityGroup:   {"age_years"},
	ActivityGroup:   {"releases"},
	SizeGroup:       {"code", "comment", "files"},
}

// QualityMetrics lists the quality columns correlated against every process column.
var QualityMetrics = []string{
	"cbo_mean", "cbo_median", "cbo_std",
	"dit_mean", "dit_median", "dit_std",
	"lcom_mean", "lcom_median", "lcom_std",
}

// Outlier thresholds on per-repository medians.
const (
	LCOMMedianOutlier = 100.0
	CBOMedianOutlier  = 10.0
	DITMedianOutlier  = 4.0
)
