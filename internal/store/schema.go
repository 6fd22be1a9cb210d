package store

const schema = `
CREATE TABLE IF NOT EXISTS operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    env_name TEXT,
    status TEXT NOT NULL,
    detail TEXT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS env_sizes (
    path TEXT PRIMARY KEY,
    size_bytes INTEGER NOT NULL,
    scanned_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);
CREATE INDEX IF NOT EXISTS idx_operations_started ON operations(started_at);
`
