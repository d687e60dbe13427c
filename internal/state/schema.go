package state

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS operations (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    target      TEXT NOT NULL,
    action      TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    result      TEXT,
    detail      TEXT,
    started_at  INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS operations_target ON operations (target, started_at);
`

// MySQL/MariaDB cannot index TEXT without a prefix, and CREATE INDEX has
// no IF NOT EXISTS, so the index is declared inline.
const mysqlSchema = `
CREATE TABLE IF NOT EXISTS operations (
    id          VARCHAR(36) PRIMARY KEY,
    kind        VARCHAR(16) NOT NULL,
    target      VARCHAR(255) NOT NULL,
    action      VARCHAR(32) NOT NULL,
    outcome     VARCHAR(32) NOT NULL,
    result      TEXT,
    detail      TEXT,
    started_at  BIGINT NOT NULL,
    finished_at BIGINT NOT NULL,
    INDEX operations_target (target, started_at)
)`
