// Package vault implements content-addressed binary storage for message
// attachments: per-category directories on disk plus a sqlite metadata
// index keyed by a fresh per-message unique id.
//
// The content hash exists for identification and operator display only.
// Identical bytes stored for two different messages always produce two
// independent files and two index entries; cross-message deduplication is a
// deliberate non-goal.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/archive"
	"retracer/internal/data/store"
)

// correlationWindow bounds the fallback media heuristic: a record from the
// same sender and category within this distance of the deleted message's
// timestamp is accepted as its media.
const correlationWindow = 60 * time.Second

// SizeLimitError is returned by Store when the payload exceeds the
// configured maximum. It carries the offending size so the caller can word
// the operator notification.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("media size %d exceeds limit %d", e.Size, e.Limit)
}

// Context carries everything the vault needs to know about the message a
// payload originated from.
type Context struct {
	MessageID string
	ChatJID   types.JID
	SenderJID types.JID
	Timestamp time.Time
	Mimetype  string
	Filename  string // original filename, for documents

	// MediaType optionally overrides mimetype classification, for
	// stickers and view-once media whose mimetype alone is ambiguous.
	MediaType string
}

// Vault stores attachment bytes under root/<category>/<messageType>/ and
// tracks them in the media record index.
type Vault struct {
	root    string
	maxSize int64
	records *store.MediaRecordStore
	log     waLog.Logger
}

// New creates a Vault rooted at root.
func New(root string, maxSize int64, records *store.MediaRecordStore, log waLog.Logger) *Vault {
	return &Vault{
		root:    root,
		maxSize: maxSize,
		records: records,
		log:     log.Sub("Vault"),
	}
}

// Root returns the vault root directory.
func (v *Vault) Root() string {
	return v.root
}

// Store writes the payload to disk and indexes it. Returns a SizeLimitError
// when the payload exceeds the configured maximum.
func (v *Vault) Store(data []byte, ctx Context) (*store.MediaRecord, error) {
	size := int64(len(data))
	if v.maxSize > 0 && size > v.maxSize {
		return nil, &SizeLimitError{Size: size, Limit: v.maxSize}
	}

	sum := sha256.Sum256(data)
	category := Classify(ctx.Mimetype, ctx.MediaType)
	messageType := string(archive.CategoryForChat(ctx.ChatJID))

	uniqueID := uuid.NewString()
	filename := ctx.Filename
	if filename == "" {
		filename = uniqueID + ExtensionFor(ctx.Mimetype)
	}

	dir := filepath.Join(v.root, category, messageType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vault dir: %w", err)
	}

	path := filepath.Join(dir, uniqueID+ExtensionFor(ctx.Mimetype))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write media file: %w", err)
	}

	rec := &store.MediaRecord{
		UniqueID:    uniqueID,
		MessageID:   ctx.MessageID,
		ChatJID:     ctx.ChatJID.String(),
		SenderJID:   ctx.SenderJID.String(),
		Filename:    filename,
		Category:    category,
		MessageType: messageType,
		Mimetype:    ctx.Mimetype,
		SizeBytes:   size,
		ContentHash: hex.EncodeToString(sum[:]),
		Path:        path,
		MessageTime: ctx.Timestamp,
		CreatedAt:   time.Now(),
	}

	if err := v.records.Put(rec); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to index media record: %w", err)
	}

	v.log.Debugf("Stored %s media for message %s (%d bytes, hash %.12s)",
		category, ctx.MessageID, size, rec.ContentHash)
	return rec, nil
}

// GetByMessageID returns the stored bytes for the message id, or (nil, nil)
// when either the index entry or the backing file is missing. A missing
// file is "not found", never an error: the sweep paths own reconciling the
// index with the filesystem.
func (v *Vault) GetByMessageID(messageID string) ([]byte, *store.MediaRecord, error) {
	rec, err := v.records.GetByMessageID(messageID)
	if err != nil {
		return nil, nil, fmt.Errorf("media index lookup failed: %w", err)
	}
	if rec == nil {
		return nil, nil, nil
	}
	return v.readRecord(rec)
}

// FindNearMessage is the best-effort fallback correlation: the record from
// the same sender and media category closest in time to ts, within 60
// seconds. Two qualifying near-simultaneous messages from one sender can
// misattribute content; callers surface results from this path as fuzzy.
func (v *Vault) FindNearMessage(senderJID, category string, ts time.Time) ([]byte, *store.MediaRecord, error) {
	rec, err := v.records.FindNearest(senderJID, category, ts, correlationWindow)
	if err != nil {
		return nil, nil, fmt.Errorf("media index lookup failed: %w", err)
	}
	if rec == nil {
		return nil, nil, nil
	}
	v.log.Warnf("Media for sender %s matched by time-window heuristic (record %s); attribution is best-effort",
		senderJID, rec.UniqueID)
	return v.readRecord(rec)
}

func (v *Vault) readRecord(rec *store.MediaRecord) ([]byte, *store.MediaRecord, error) {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		if os.IsNotExist(err) {
			v.log.Debugf("Media record %s has no backing file (%s), treating as not found",
				rec.UniqueID, rec.Path)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read media file %s: %w", rec.Path, err)
	}
	return data, rec, nil
}

// Stats returns index entry count and total stored bytes.
func (v *Vault) Stats() (count int, totalBytes int64, err error) {
	count, err = v.records.Count()
	if err != nil {
		return 0, 0, err
	}
	totalBytes, err = v.records.TotalSize()
	return count, totalBytes, err
}
