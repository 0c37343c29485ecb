package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- Finalized run reports
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	resiliency_score INTEGER NOT NULL,
	stability_score INTEGER NOT NULL,
	report_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

-- Per-scenario compact scores, one row per scenario per run
CREATE TABLE IF NOT EXISTS scenario_scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	score INTEGER NOT NULL,
	weight REAL NOT NULL,
	passed INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_scenario_scores_run_id ON scenario_scores(run_id);
CREATE INDEX IF NOT EXISTS idx_scenario_scores_name ON scenario_scores(name);
`
