package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	login      TEXT NOT NULL UNIQUE COLLATE NOCASE,
	position   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_position ON accounts(position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY,
	login        TEXT NOT NULL,
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME NOT NULL,
	outcome      TEXT NOT NULL CHECK(outcome IN ('succeeded', 'failed', 'discarded')),
	error_kind   TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	record_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_login_finished
	ON sync_runs(login, finished_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
