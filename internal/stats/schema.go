package stats

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TIMESTAMP NOT NULL,
    mode TEXT NOT NULL,
    status TEXT NOT NULL,
    aborted BOOLEAN NOT NULL DEFAULT 0,
    backup_ref TEXT
);

CREATE TABLE IF NOT EXISTS run_sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    source TEXT NOT NULL,
    attempted INTEGER NOT NULL,
    succeeded INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    error TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_items (
    run_source_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    current_version TEXT,
    new_version TEXT,
    FOREIGN KEY (run_source_id) REFERENCES run_sources(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS external_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    op TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_sources_run ON run_sources(run_id);
CREATE INDEX IF NOT EXISTS idx_run_items_source ON run_items(run_source_id);
CREATE INDEX IF NOT EXISTS idx_run_items_name ON run_items(name);
CREATE INDEX IF NOT EXISTS idx_external_timestamp ON external_events(timestamp);
`
