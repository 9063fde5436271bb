package iocache

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/huangsam/repostudy/schema"
)

// Table names of the results store.
const (
	sizeTable     = "repostudy_size"
	qualityTable  = "repostudy_quality"
	runsTable     = "repostudy_runs"
	failuresTable = "repostudy_failures"
)

// storeTables lists every table in creation order.
var storeTables = []string{sizeTable, qualityTable, runsTable, failuresTable}

var (
	sizeColumns    = []string{"repo", "files", "code", "comment", "blank", "updated_at"}
	qualityColumns = []string{
		"repo", "n_classes",
		"cbo_mean", "cbo_median", "cbo_std",
		"dit_mean", "dit_median", "dit_std",
		"lcom_mean", "lcom_median", "lcom_std",
		"updated_at",
	}
)

// quoteTableName quotes a table name for the backend.
func quoteTableName(tableName string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "`" + tableName + "`"
	default:
		return `"` + tableName + `"`
	}
}

// placeholders returns n bind parameters in the backend's syntax, starting at index start.
func placeholders(backend schema.DatabaseBackend, start, n int) string {
	parts := make([]string, n)
	for i := range n {
		if backend == schema.PostgreSQLBackend {
			parts[i] = fmt.Sprintf("$%d", start+i)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// upsertQuery builds an insert that replaces the row with the same repo.
func upsertQuery(backend schema.DatabaseBackend, tableName string, columns []string) string {
	quoted := quoteTableName(tableName, backend)
	cols := strings.Join(columns, ", ")
	values := placeholders(backend, 1, len(columns))

	switch backend {
	case schema.MySQLBackend:
		sets := make([]string, 0, len(columns)-1)
		for _, c := range columns[1:] {
			sets = append(sets, fmt.Sprintf("%s = new.%s", c, c))
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE %s`, quoted, cols, values, strings.Join(sets, ", "))

	case schema.PostgreSQLBackend:
		sets := make([]string, 0, len(columns)-1)
		for _, c := range columns[1:] {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (repo) DO UPDATE SET %s`, quoted, cols, values, strings.Join(sets, ", "))

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`, quoted, cols, values)
	}
}

// createTableQuery returns the CREATE TABLE statement of tableName for the backend.
func createTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(tableName, backend)

	// Column types per backend: key text, free text, float, timestamp, autoincrement id.
	keyType, textType, floatType, timeType, idType := "TEXT", "TEXT", "REAL", "TEXT", "INTEGER PRIMARY KEY AUTOINCREMENT"
	switch backend {
	case schema.MySQLBackend:
		keyType, floatType, timeType, idType = "VARCHAR(255)", "DOUBLE", "DATETIME(6)", "BIGINT AUTO_INCREMENT PRIMARY KEY"
	case schema.PostgreSQLBackend:
		floatType, timeType, idType = "DOUBLE PRECISION", "TIMESTAMPTZ", "BIGSERIAL PRIMARY KEY"
	}

	switch tableName {
	case sizeTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				repo %s PRIMARY KEY,
				files BIGINT NOT NULL,
				code BIGINT NOT NULL,
				comment BIGINT NOT NULL,
				blank BIGINT NOT NULL,
				updated_at %s NOT NULL
			);
		`, quoted, keyType, timeType)

	case qualityTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				repo %[2]s PRIMARY KEY,
				n_classes BIGINT NOT NULL,
				cbo_mean %[3]s, cbo_median %[3]s, cbo_std %[3]s,
				dit_mean %[3]s, dit_median %[3]s, dit_std %[3]s,
				lcom_mean %[3]s, lcom_median %[3]s, lcom_std %[3]s,
				updated_at %[4]s NOT NULL
			);
		`, quoted, keyType, floatType, timeType)

	case runsTable:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s,
				start_time %s NOT NULL,
				end_time %s,
				run_duration_ms BIGINT,
				out_suffix %s,
				selected INT,
				succeeded INT,
				failed INT,
				not_started INT,
				config_params %s
			);
		`, quoted, idType, timeType, timeType, textType, textType)

	default: // failuresTable
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repo %s NOT NULL,
				stage %s NOT NULL,
				reason %s,
				recorded_at %s NOT NULL
			);
		`, quoted, keyType, keyType, textType, timeType)
	}
}

// createStoreTables creates every results table.
func createStoreTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range storeTables {
		if _, err := db.Exec(createTableQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}

// nullFloat stores NaN as NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// floatOrNaN reads a nullable column back, NULL becoming NaN.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
