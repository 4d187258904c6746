package store

// schema contains all record table definitions.
//
// Tables:
//   - retracer_media_records - vault metadata index, keyed by per-message unique id
//   - retracer_deletions - correlation results from remote deletions
//
// The content hash on media records identifies bytes for operator display;
// it is deliberately not unique and never used as a lookup key, so identical
// bytes stored for two messages stay two independent records.
const schema = `
CREATE TABLE IF NOT EXISTS retracer_media_records (
    unique_id TEXT PRIMARY KEY,
    message_id TEXT NOT NULL,
    chat_jid TEXT NOT NULL,
    sender_jid TEXT NOT NULL,
    filename TEXT NOT NULL,
    category TEXT NOT NULL,
    message_type TEXT NOT NULL,
    mimetype TEXT,
    size_bytes INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    path TEXT NOT NULL,
    message_ts INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_media_records_message
    ON retracer_media_records(message_id);

CREATE INDEX IF NOT EXISTS idx_media_records_sender
    ON retracer_media_records(sender_jid, category, message_ts);

CREATE TABLE IF NOT EXISTS retracer_deletions (
    id TEXT PRIMARY KEY,
    message_id TEXT NOT NULL,
    chat_jid TEXT NOT NULL,
    sender_jid TEXT NOT NULL,
    original_ts INTEGER NOT NULL,
    deleted_ts INTEGER NOT NULL,
    recovered_text TEXT,
    has_media INTEGER NOT NULL DEFAULT 0,
    media_type TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deletions_deleted_ts
    ON retracer_deletions(deleted_ts);

CREATE INDEX IF NOT EXISTS idx_deletions_message
    ON retracer_deletions(message_id);
`
