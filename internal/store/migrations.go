package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create call windows",
		SQL: `
			CREATE TABLE call_windows (
				call_id        TEXT NOT NULL,
				window_number  INTEGER NOT NULL,
				turns          TEXT NOT NULL,
				ai_tips        TEXT NOT NULL DEFAULT '[]',
				activity_feed  TEXT NOT NULL DEFAULT '[]',
				created_at     TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (call_id, window_number)
			);

			CREATE INDEX idx_windows_call ON call_windows (call_id, window_number);
		`,
	},
	{
		Version: 2,
		Name:    "create call analytics",
		SQL: `
			CREATE TABLE call_analytics (
				client_email  TEXT NOT NULL,
				created_at    TEXT NOT NULL,
				call_id       TEXT NOT NULL,
				payload       TEXT NOT NULL,
				PRIMARY KEY (client_email, created_at)
			);

			CREATE INDEX idx_analytics_email ON call_analytics (client_email, created_at DESC);
		`,
	},
}
