package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nfhs-dash/internal/db"
	"github.com/nfhs-dash/internal/debug"
	"github.com/nfhs-dash/internal/etl"
)

// Tracker keeps an audit trail of snapshot builds: what was matched, what
// was rejected and what needs operator review
type Tracker struct {
	conn *db.Connection
}

// NewTracker creates a new audit tracker
func NewTracker(conn *db.Connection) *Tracker {
	return &Tracker{conn: conn}
}

// Run is one recorded snapshot build
type Run struct {
	ID               string
	BuiltAt          time.Time
	OverridesVersion string
	Features         int
	Rejections       int
	Anomalies        int
	Summary          etl.Summary
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshot_run (
		run_id TEXT PRIMARY KEY,
		built_at TEXT NOT NULL,
		overrides_version TEXT,
		features INTEGER NOT NULL,
		rejections INTEGER NOT NULL,
		anomalies INTEGER NOT NULL,
		summary TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS region_match (
		run_id TEXT NOT NULL,
		raw_name TEXT NOT NULL,
		canonical_name TEXT,
		method TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		ambiguous INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sub_region_match (
		run_id TEXT NOT NULL,
		region TEXT NOT NULL,
		sub_region TEXT NOT NULL,
		canonical_region TEXT,
		canonical_sub_region TEXT,
		geo_key TEXT NOT NULL,
		method TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		ambiguous INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rejection (
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		row_no INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		round TEXT,
		indicator TEXT,
		raw_value TEXT,
		reason TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS anomaly (
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		level TEXT NOT NULL,
		region TEXT,
		sub_region TEXT,
		chosen TEXT,
		candidates TEXT,
		score DOUBLE PRECISION NOT NULL
	)`,
}

// EnsureSchema creates the audit tables when they do not exist
func (t *Tracker) EnsureSchema() error {
	for _, stmt := range schema {
		if _, err := t.conn.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return nil
}

// RecordSnapshot saves a snapshot's matches, rejections and anomalies in one
// transaction
func (t *Tracker) RecordSnapshot(localDebug bool, snap *etl.Snapshot) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	debug.DebugOutput(localDebug, "Recording snapshot %s", snap.ID)

	summary, err := json.Marshal(snap.Summary())
	if err != nil {
		return fmt.Errorf("failed to encode snapshot summary: %w", err)
	}

	tx, err := t.conn.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rejections := snap.Rejections()
	anomalies := snap.Anomalies()
	version := ""
	if snap.Overrides != nil {
		version = snap.Overrides.Version
	}
	features := 0
	if snap.Registry != nil {
		features = snap.Registry.Len()
	}

	_, err = tx.Exec(t.conn.Rebind(`
		INSERT INTO snapshot_run (run_id, built_at, overrides_version, features, rejections, anomalies, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), snap.ID, snap.BuiltAt.UTC().Format(time.RFC3339Nano), version, features,
		len(rejections), len(anomalies), string(summary))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot run: %w", err)
	}

	if snap.Reconciliation != nil {
		if err := t.insertMatches(tx, snap); err != nil {
			return err
		}
	}

	rejStmt, err := tx.Prepare(t.conn.Rebind(`
		INSERT INTO rejection (run_id, source, row_no, column_name, round, indicator, raw_value, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare rejection insert: %w", err)
	}
	defer rejStmt.Close()

	for _, r := range rejections {
		if _, err := rejStmt.Exec(snap.ID, r.Source, r.Row, r.Column, r.Round, r.Indicator, r.Value, string(r.Reason)); err != nil {
			return fmt.Errorf("failed to insert rejection: %w", err)
		}
	}
	debug.DebugOutput(localDebug, "Recorded %d rejections", len(rejections))

	for _, a := range anomalies {
		_, err = tx.Exec(t.conn.Rebind(`
			INSERT INTO anomaly (run_id, kind, level, region, sub_region, chosen, candidates, score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), snap.ID, string(a.Kind), string(a.Level), a.Region, a.SubRegion, a.Chosen,
			strings.Join(a.Candidates, "|"), a.Score)
		if err != nil {
			return fmt.Errorf("failed to insert anomaly: %w", err)
		}
	}
	debug.DebugOutput(localDebug, "Recorded %d anomalies", len(anomalies))

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Tracker) insertMatches(tx *sql.Tx, snap *etl.Snapshot) error {
	for _, m := range snap.Reconciliation.Regions {
		_, err := tx.Exec(t.conn.Rebind(`
			INSERT INTO region_match (run_id, raw_name, canonical_name, method, score, ambiguous)
			VALUES (?, ?, ?, ?, ?, ?)
		`), snap.ID, m.Raw, m.Canonical, string(m.Method), m.Score, boolInt(m.Ambiguous))
		if err != nil {
			return fmt.Errorf("failed to insert region match: %w", err)
		}
	}

	for _, m := range snap.Reconciliation.SubRegions {
		_, err := tx.Exec(t.conn.Rebind(`
			INSERT INTO sub_region_match (run_id, region, sub_region, canonical_region, canonical_sub_region, geo_key, method, score, ambiguous)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), snap.ID, m.Region, m.SubRegion, m.CanonicalRegion, m.CanonicalSubRegion, m.Key,
			string(m.Method), m.Score, boolInt(m.Ambiguous))
		if err != nil {
			return fmt.Errorf("failed to insert sub-region match: %w", err)
		}
	}
	return nil
}

// RecentRuns returns the latest recorded runs, newest first
func (t *Tracker) RecentRuns(limit int) ([]Run, error) {
	rows, err := t.conn.DB.Query(t.conn.Rebind(`
		SELECT run_id, built_at, overrides_version, features, rejections, anomalies, summary
		FROM snapshot_run
		ORDER BY built_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var builtAt string
		var version, summary sql.NullString
		if err := rows.Scan(&r.ID, &builtAt, &version, &r.Features, &r.Rejections, &r.Anomalies, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.BuiltAt, err = time.Parse(time.RFC3339Nano, builtAt); err != nil {
			return nil, fmt.Errorf("failed to parse run time: %w", err)
		}
		r.OverridesVersion = version.String
		if summary.Valid {
			if err := json.Unmarshal([]byte(summary.String), &r.Summary); err != nil {
				return nil, fmt.Errorf("failed to decode run summary: %w", err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRows returns the number of audit rows a run wrote to a table
func (t *Tracker) CountRows(table, runID string) (int, error) {
	switch table {
	case "region_match", "sub_region_match", "rejection", "anomaly":
	default:
		return 0, fmt.Errorf("unknown audit table %q", table)
	}

	var n int
	err := t.conn.DB.QueryRow(t.conn.Rebind("SELECT COUNT(*) FROM "+table+" WHERE run_id = ?"), runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
