package store

import (
	"database/sql"
	"errors"
	"time"
)

// MediaRecord is one vault index entry. The unique id is per message, never
// per content: storing identical bytes for two messages yields two records.
type MediaRecord struct {
	UniqueID    string
	MessageID   string
	ChatJID     string
	SenderJID   string
	Filename    string
	Category    string
	MessageType string
	Mimetype    string
	SizeBytes   int64
	ContentHash string
	Path        string
	MessageTime time.Time
	CreatedAt   time.Time
}

// MediaRecordStore handles vault index operations.
type MediaRecordStore struct {
	store *Store
}

// NewMediaRecordStore creates a new MediaRecordStore.
func NewMediaRecordStore(s *Store) *MediaRecordStore {
	return &MediaRecordStore{store: s}
}

// Put inserts a media record.
func (s *MediaRecordStore) Put(r *MediaRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.store.Exec(`
		INSERT INTO retracer_media_records
			(unique_id, message_id, chat_jid, sender_jid, filename, category,
			 message_type, mimetype, size_bytes, content_hash, path, message_ts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.UniqueID, r.MessageID, r.ChatJID, r.SenderJID, r.Filename, r.Category,
		r.MessageType, r.Mimetype, r.SizeBytes, r.ContentHash, r.Path,
		r.MessageTime.Unix(), r.CreatedAt.Unix())
	return err
}

// GetByMessageID returns the most recent record originating from the given
// message id, or nil when none exists.
func (s *MediaRecordStore) GetByMessageID(messageID string) (*MediaRecord, error) {
	row := s.store.QueryRow(`
		SELECT unique_id, message_id, chat_jid, sender_jid, filename, category,
		       message_type, mimetype, size_bytes, content_hash, path, message_ts, created_at
		FROM retracer_media_records
		WHERE message_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, messageID)

	rec, err := scanMediaRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// FindNearest returns the record from the given sender and category whose
// message timestamp is closest to ts within the window, or nil. This backs
// the best-effort correlation fallback; with two qualifying records from the
// same sender it can pick the wrong one, which callers must treat as a
// documented imprecision.
func (s *MediaRecordStore) FindNearest(senderJID, category string, ts time.Time, window time.Duration) (*MediaRecord, error) {
	lo := ts.Add(-window).Unix()
	hi := ts.Add(window).Unix()

	row := s.store.QueryRow(`
		SELECT unique_id, message_id, chat_jid, sender_jid, filename, category,
		       message_type, mimetype, size_bytes, content_hash, path, message_ts, created_at
		FROM retracer_media_records
		WHERE sender_jid = ? AND category = ? AND message_ts BETWEEN ? AND ?
		ORDER BY ABS(message_ts - ?) ASC
		LIMIT 1
	`, senderJID, category, lo, hi, ts.Unix())

	rec, err := scanMediaRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Delete removes a record by unique id.
func (s *MediaRecordStore) Delete(uniqueID string) error {
	_, err := s.store.Exec(`DELETE FROM retracer_media_records WHERE unique_id = ?`, uniqueID)
	return err
}

// All returns every index entry, oldest first. Used by the sweep paths.
func (s *MediaRecordStore) All() ([]*MediaRecord, error) {
	rows, err := s.store.Query(`
		SELECT unique_id, message_id, chat_jid, sender_jid, filename, category,
		       message_type, mimetype, size_bytes, content_hash, path, message_ts, created_at
		FROM retracer_media_records
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*MediaRecord
	for rows.Next() {
		rec, err := scanMediaRecordRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of index entries.
func (s *MediaRecordStore) Count() (int, error) {
	var n int
	err := s.store.QueryRow(`SELECT COUNT(*) FROM retracer_media_records`).Scan(&n)
	return n, err
}

// TotalSize returns the sum of stored byte counts.
func (s *MediaRecordStore) TotalSize() (int64, error) {
	var n sql.NullInt64
	err := s.store.QueryRow(`SELECT SUM(size_bytes) FROM retracer_media_records`).Scan(&n)
	return n.Int64, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMediaRecord(row *sql.Row) (*MediaRecord, error) {
	return scanMedia(row)
}

func scanMediaRecordRows(rows *sql.Rows) (*MediaRecord, error) {
	return scanMedia(rows)
}

func scanMedia(row rowScanner) (*MediaRecord, error) {
	var r MediaRecord
	var mimetype sql.NullString
	var messageTS, createdAt int64

	err := row.Scan(&r.UniqueID, &r.MessageID, &r.ChatJID, &r.SenderJID,
		&r.Filename, &r.Category, &r.MessageType, &mimetype, &r.SizeBytes,
		&r.ContentHash, &r.Path, &messageTS, &createdAt)
	if err != nil {
		return nil, err
	}

	r.Mimetype = mimetype.String
	r.MessageTime = time.Unix(messageTS, 0)
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}
