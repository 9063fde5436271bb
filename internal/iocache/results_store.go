package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// ResultStoreImpl implements the ResultStore interface on a SQL database.
// With the none backend db is nil and every method is a no-op.
type ResultStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	now        func() time.Time
}

var _ contract.ResultStore = &ResultStoreImpl{} // Compile-time check

// openDB opens and pings the database for backend. An empty SQLite connStr selects
// the default database file.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// host=localhost port=5432 user=postgres password=secret dbname=postgres
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, "", fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, "", fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, driverName, nil
}

// NewResultStore creates a ResultStore with the specified backend and creates its tables.
func NewResultStore(backend schema.DatabaseBackend, connStr string) (contract.ResultStore, error) {
	if backend == schema.NoneBackend {
		return &ResultStoreImpl{backend: backend, now: time.Now}, nil
	}

	db, driverName, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createStoreTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create results tables: %w", err)
	}
	return &ResultStoreImpl{db: db, backend: backend, driverName: driverName, now: time.Now}, nil
}

func (rs *ResultStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

func (rs *ResultStoreImpl) table(name string) string {
	return quoteTableName(name, rs.backend)
}

// BeginRun implements the ResultStore interface.
func (rs *ResultStoreImpl) BeginRun(startTime time.Time, params map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	suffix, _ := params["suffix"].(string)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, out_suffix, config_params) VALUES ($1, $2, $3) RETURNING run_id`, rs.table(runsTable))
		err = rs.db.QueryRow(query, startTime, suffix, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, out_suffix, config_params) VALUES (?, ?, ?)`, rs.table(runsTable))
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), suffix, string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun implements the ResultStore interface.
func (rs *ResultStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	if rs.disabled() {
		return nil
	}

	startTime, err := rs.runStart(runID)
	if err != nil {
		return err
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, selected = $3, succeeded = $4, failed = $5, not_started = $6 WHERE run_id = $7`, rs.table(runsTable))
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, selected = ?, succeeded = ?, failed = ?, not_started = ? WHERE run_id = ?`, rs.table(runsTable))
	}
	_, err = rs.db.Exec(query, formatTime(endTime, rs.backend), durationMs,
		summary.Selected, summary.Succeeded, summary.Failed, summary.NotStarted, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %d: %w", runID, err)
	}
	return nil
}

func (rs *ResultStoreImpl) runStart(runID int64) (time.Time, error) {
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, rs.table(runsTable), placeholders(rs.backend, 1, 1))
	var start time.Time
	if err := rs.scanTime(rs.db.QueryRow(query, runID), &start); err != nil {
		return time.Time{}, fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	return start, nil
}

// scanTime scans one timestamp column. SQLite stores timestamps as RFC 3339 text.
func (rs *ResultStoreImpl) scanTime(row *sql.Row, dst *time.Time) error {
	if rs.backend != schema.SQLiteBackend {
		return row.Scan(dst)
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	*dst = t
	return nil
}

// UpsertSize implements the ResultStore interface.
func (rs *ResultStoreImpl) UpsertSize(rec schema.SizeRecord) error {
	if rs.disabled() {
		return nil
	}
	_, err := rs.db.Exec(upsertQuery(rs.backend, sizeTable, sizeColumns),
		rec.Repo, rec.Files, rec.Code, rec.Comment, rec.Blank, formatTime(rs.now(), rs.backend))
	if err != nil {
		return fmt.Errorf("failed to upsert size row for %s: %w", rec.Repo, err)
	}
	return nil
}

// UpsertQuality implements the ResultStore interface. NaN statistics are stored as NULL.
func (rs *ResultStoreImpl) UpsertQuality(rec schema.QualityRecord) error {
	if rs.disabled() {
		return nil
	}
	_, err := rs.db.Exec(upsertQuery(rs.backend, qualityTable, qualityColumns),
		rec.Repo, rec.NClasses,
		nullFloat(rec.CBO.Mean), nullFloat(rec.CBO.Median), nullFloat(rec.CBO.Std),
		nullFloat(rec.DIT.Mean), nullFloat(rec.DIT.Median), nullFloat(rec.DIT.Std),
		nullFloat(rec.LCOM.Mean), nullFloat(rec.LCOM.Median), nullFloat(rec.LCOM.Std),
		formatTime(rs.now(), rs.backend))
	if err != nil {
		return fmt.Errorf("failed to upsert quality row for %s: %w", rec.Repo, err)
	}
	return nil
}

// RecordFailure implements the ResultStore interface.
func (rs *ResultStoreImpl) RecordFailure(runID int64, entry schema.FailureEntry) error {
	if rs.disabled() {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, repo, stage, reason, recorded_at) VALUES (%s)`,
		rs.table(failuresTable), placeholders(rs.backend, 1, 5))
	_, err := rs.db.Exec(query, runID, entry.Repo, string(entry.Stage), entry.Reason, formatTime(rs.now(), rs.backend))
	if err != nil {
		return fmt.Errorf("failed to record failure for %s: %w", entry.Repo, err)
	}
	return nil
}

// GetAllSizes implements the ResultStore interface.
func (rs *ResultStoreImpl) GetAllSizes() ([]schema.SizeRecord, error) {
	if rs.disabled() {
		return nil, nil
	}
	rows, err := rs.db.Query(fmt.Sprintf(`SELECT repo, files, code, comment, blank FROM %s ORDER BY repo`, rs.table(sizeTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to query size rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SizeRecord
	for rows.Next() {
		var r schema.SizeRecord
		if err := rows.Scan(&r.Repo, &r.Files, &r.Code, &r.Comment, &r.Blank); err != nil {
			return nil, fmt.Errorf("failed to scan size row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating size rows: %w", err)
	}
	return results, nil
}

// GetAllQualities implements the ResultStore interface.
func (rs *ResultStoreImpl) GetAllQualities() ([]schema.QualityRecord, error) {
	if rs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT repo, n_classes,
		cbo_mean, cbo_median, cbo_std, dit_mean, dit_median, dit_std, lcom_mean, lcom_median, lcom_std
		FROM %s ORDER BY repo`, rs.table(qualityTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quality rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.QualityRecord
	for rows.Next() {
		var r schema.QualityRecord
		var stats [9]sql.NullFloat64
		if err := rows.Scan(&r.Repo, &r.NClasses,
			&stats[0], &stats[1], &stats[2], &stats[3], &stats[4], &stats[5], &stats[6], &stats[7], &stats[8]); err != nil {
			return nil, fmt.Errorf("failed to scan quality row: %w", err)
		}
		r.CBO = schema.MetricSummary{Mean: floatOrNaN(stats[0]), Median: floatOrNaN(stats[1]), Std: floatOrNaN(stats[2])}
		r.DIT = schema.MetricSummary{Mean: floatOrNaN(stats[3]), Median: floatOrNaN(stats[4]), Std: floatOrNaN(stats[5])}
		r.LCOM = schema.MetricSummary{Mean: floatOrNaN(stats[6]), Median: floatOrNaN(stats[7]), Std: floatOrNaN(stats[8])}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quality rows: %w", err)
	}
	return results, nil
}

// GetAllRuns implements the ResultStore interface.
func (rs *ResultStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, out_suffix, selected, succeeded, failed FROM %s ORDER BY run_id`, rs.table(runsTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var r schema.RunRecord
		var suffix sql.NullString
		var selected, succeeded, failed sql.NullInt64

		switch rs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr sql.NullString
			if err := rows.Scan(&r.RunID, &startStr, &endStr, &suffix, &selected, &succeeded, &failed); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if r.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr.Valid {
				end, err := time.Parse(time.RFC3339Nano, endStr.String)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				r.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			var end sql.NullTime
			if err := rows.Scan(&r.RunID, &r.StartTime, &end, &suffix, &selected, &succeeded, &failed); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if end.Valid {
				r.EndTime = &end.Time
			}
		}
		r.Suffix = suffix.String
		r.Selected, r.Succeeded, r.Failed = int(selected.Int64), int(succeeded.Int64), int(failed.Int64)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllFailures implements the ResultStore interface.
func (rs *ResultStoreImpl) GetAllFailures() ([]schema.FailureRecord, error) {
	if rs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT run_id, repo, stage, reason, recorded_at FROM %s ORDER BY run_id, repo`, rs.table(failuresTable))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FailureRecord
	for rows.Next() {
		var r schema.FailureRecord
		var reason sql.NullString
		switch rs.backend {
		case schema.SQLiteBackend:
			var recordedStr string
			if err := rows.Scan(&r.RunID, &r.Repo, &r.Stage, &reason, &recordedStr); err != nil {
				return nil, fmt.Errorf("failed to scan failure: %w", err)
			}
			if r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedStr); err != nil {
				return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&r.RunID, &r.Repo, &r.Stage, &reason, &r.RecordedAt); err != nil {
				return nil, fmt.Errorf("failed to scan failure: %w", err)
			}
		}
		r.Reason = reason.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating failures: %w", err)
	}
	return results, nil
}

// GetStatus implements the ResultStore interface.
func (rs *ResultStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(runsTable)))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		query := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", rs.table(runsTable))
		switch rs.backend {
		case schema.SQLiteBackend:
			var lastRunTimeStr string
			if err := rs.db.QueryRow(query).Scan(&status.LastRunID, &lastRunTimeStr); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
			lastRunTime, err := time.Parse(time.RFC3339Nano, lastRunTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last run time: %w", err)
			}
			status.LastRunTime = lastRunTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := rs.db.QueryRow(query).Scan(&status.LastRunID, &status.LastRunTime); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
		}
	}

	for _, table := range storeTables {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", rs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// Close implements the ResultStore interface.
func (rs *ResultStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
