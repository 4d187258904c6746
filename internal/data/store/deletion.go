package store

import (
	"database/sql"
	"errors"
	"time"
)

// DeletionRecord links a remote deletion notification to previously archived
// content. Created only after a successful correlation, never updated, and
// deliberately exempt from the retention window so recovery intent survives
// even after the underlying content expires.
type DeletionRecord struct {
	ID            string
	MessageID     string
	ChatJID       string
	SenderJID     string
	OriginalTime  time.Time
	DeletedTime   time.Time
	RecoveredText string
	HasMedia      bool
	MediaType     string
	CreatedAt     time.Time
}

// ListFilter selects a subset of deletion records.
type ListFilter string

const (
	FilterAll    ListFilter = ""
	FilterMedia  ListFilter = "media"
	FilterText   ListFilter = "text"
	FilterRecent ListFilter = "recent"
)

// DeletionStore handles deletion record operations.
type DeletionStore struct {
	store *Store
}

// NewDeletionStore creates a new DeletionStore.
func NewDeletionStore(s *Store) *DeletionStore {
	return &DeletionStore{store: s}
}

// Put inserts a deletion record.
func (s *DeletionStore) Put(r *DeletionRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.store.Exec(`
		INSERT INTO retracer_deletions
			(id, message_id, chat_jid, sender_jid, original_ts, deleted_ts,
			 recovered_text, has_media, media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.MessageID, r.ChatJID, r.SenderJID,
		r.OriginalTime.Unix(), r.DeletedTime.Unix(),
		r.RecoveredText, boolToInt(r.HasMedia), r.MediaType, r.CreatedAt.Unix())
	return err
}

// Get returns a deletion record by id, or nil when unknown.
func (s *DeletionStore) Get(id string) (*DeletionRecord, error) {
	row := s.store.QueryRow(`
		SELECT id, message_id, chat_jid, sender_jid, original_ts, deleted_ts,
		       recovered_text, has_media, media_type, created_at
		FROM retracer_deletions WHERE id = ?
	`, id)

	rec, err := scanDeletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// List returns up to limit deletion records, newest deletion first,
// optionally filtered. FilterRecent restricts to the last 24 hours.
func (s *DeletionStore) List(limit int, filter ListFilter) ([]*DeletionRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, message_id, chat_jid, sender_jid, original_ts, deleted_ts,
		       recovered_text, has_media, media_type, created_at
		FROM retracer_deletions
	`
	var args []interface{}

	switch filter {
	case FilterMedia:
		query += ` WHERE has_media = 1`
	case FilterText:
		query += ` WHERE has_media = 0`
	case FilterRecent:
		query += ` WHERE deleted_ts >= ?`
		args = append(args, time.Now().Add(-24*time.Hour).Unix())
	}

	query += ` ORDER BY deleted_ts DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*DeletionRecord
	for rows.Next() {
		rec, err := scanDeletion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of deletion records.
func (s *DeletionStore) Count() (int, error) {
	var n int
	err := s.store.QueryRow(`SELECT COUNT(*) FROM retracer_deletions`).Scan(&n)
	return n, err
}

// Clear removes all deletion records. Operator-initiated only; retention
// never touches this table.
func (s *DeletionStore) Clear() error {
	_, err := s.store.Exec(`DELETE FROM retracer_deletions`)
	return err
}

func scanDeletion(row rowScanner) (*DeletionRecord, error) {
	var r DeletionRecord
	var recoveredText, mediaType sql.NullString
	var originalTS, deletedTS, createdAt int64
	var hasMedia int

	err := row.Scan(&r.ID, &r.MessageID, &r.ChatJID, &r.SenderJID,
		&originalTS, &deletedTS, &recoveredText, &hasMedia, &mediaType, &createdAt)
	if err != nil {
		return nil, err
	}

	r.OriginalTime = time.Unix(originalTS, 0)
	r.DeletedTime = time.Unix(deletedTS, 0)
	r.RecoveredText = recoveredText.String
	r.HasMedia = hasMedia == 1
	r.MediaType = mediaType.String
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
