// Package recovery correlates remote deletion notifications with previously
// archived content and reconstructs that content on demand. Correlation is
// best-effort: the archive and the vault are independently keyed, and either
// side may already have been swept by retention.
package recovery

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/archive"
	"retracer/internal/data/store"
)

// Detector turns deletion notifications into deletion records.
type Detector struct {
	archive   *archive.Store
	deletions *store.DeletionStore
	log       waLog.Logger
}

// NewDetector creates a Detector.
func NewDetector(arch *archive.Store, deletions *store.DeletionStore, log waLog.Logger) *Detector {
	return &Detector{
		archive:   arch,
		deletions: deletions,
		log:       log.Sub("Detector"),
	}
}

// OnDeletion correlates a deletion notification to the archive and, on a
// match, creates a deletion record. Returns nil (with no error) when no
// archived message matches: a record is never fabricated from the deletion
// event alone.
func (d *Detector) OnDeletion(messageID, chatJID string, deletedAt time.Time) (*store.DeletionRecord, error) {
	msg := d.archive.FindByID(messageID)
	if msg == nil {
		d.log.Infof("Deletion of %s in %s has no archived counterpart, ignoring", messageID, chatJID)
		return nil, nil
	}
	if chatJID != "" && msg.ChatJID != chatJID {
		// Ids are globally unique, so trust the id and note the mismatch.
		d.log.Warnf("Deletion chat %s differs from archived chat %s for message %s",
			chatJID, msg.ChatJID, messageID)
	}

	rec := &store.DeletionRecord{
		ID:            uuid.NewString(),
		MessageID:     msg.ID,
		ChatJID:       msg.ChatJID,
		SenderJID:     msg.SenderJID,
		OriginalTime:  msg.Timestamp,
		DeletedTime:   deletedAt,
		RecoveredText: msg.Body,
		HasMedia:      msg.HasMedia(),
	}
	if rec.HasMedia {
		rec.MediaType = string(msg.ContentType)
	}

	if err := d.deletions.Put(rec); err != nil {
		return nil, fmt.Errorf("failed to save deletion record: %w", err)
	}

	d.log.Infof("Recorded deletion %s: message %s from %s (media: %v)",
		rec.ID, rec.MessageID, rec.SenderJID, rec.HasMedia)
	return rec, nil
}
