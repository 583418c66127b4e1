package db

import "database/sql"

// SchemaSQL is the complete schema for fresh installs.
// It reflects the state after every migration in migrations.go.
//
// Tests load it through GetSchemaSQL() and never declare their own tables,
// so a repository query against a missing column fails in tests first.
//
// When adding a column or table:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Runs (one batch invocation)
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	family TEXT NOT NULL CHECK(family IN ('checkin', 'unlock', 'stake', 'all')),
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'interrupted')) DEFAULT 'running',
	dry_run INTEGER NOT NULL DEFAULT 0,
	total INTEGER NOT NULL DEFAULT 0,
	processed INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	errored INTEGER NOT NULL DEFAULT 0,
	items_succeeded INTEGER NOT NULL DEFAULT 0,
	items_failed INTEGER NOT NULL DEFAULT 0,
	checkpoint_failures INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

-- Run accounts (per-account outcome of a run)
CREATE TABLE IF NOT EXISTS run_accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	account_index INTEGER NOT NULL,
	address TEXT NOT NULL,
	outcome TEXT NOT NULL CHECK(outcome IN ('processed', 'skipped', 'errored')),
	reason TEXT,
	items_succeeded INTEGER NOT NULL DEFAULT 0,
	items_failed INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
	UNIQUE(run_id, account_index)
);

CREATE INDEX IF NOT EXISTS idx_run_accounts_run ON run_accounts(run_id);
`

// InitSchema creates the schema on a fresh database and migrates an existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	// Fresh install: create the current schema and mark every migration applied.
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
