package recovery

import (
	"fmt"

	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/archive"
	"retracer/internal/data/store"
	"retracer/internal/vault"
)

// Status is the worded outcome of a recovery attempt. A human reads these
// directly, so misses are statuses, never raw errors.
type Status string

const (
	StatusOK       Status = "ok"
	StatusExpired  Status = "expired"
	StatusNotFound Status = "not_found"
)

// Result is the reconstructed content for one deletion record.
type Result struct {
	Status Status
	Record *store.DeletionRecord

	Text        string
	Media       []byte
	MediaRecord *store.MediaRecord

	// FuzzyMedia marks media matched by the time-window heuristic rather
	// than the message id; attribution may be wrong for near-simultaneous
	// same-sender messages.
	FuzzyMedia bool
}

// Engine reconstructs deleted content from the archive and the vault.
type Engine struct {
	archive   *archive.Store
	vault     *vault.Vault
	deletions *store.DeletionStore
	log       waLog.Logger
}

// NewEngine creates an Engine.
func NewEngine(arch *archive.Store, v *vault.Vault, deletions *store.DeletionStore, log waLog.Logger) *Engine {
	return &Engine{
		archive:   arch,
		vault:     v,
		deletions: deletions,
		log:       log.Sub("Recovery"),
	}
}

// Recover reconstructs the content behind a deletion record. Idempotent and
// read-only: it re-fetches from the archive and vault every time, so the
// result reflects what retention has left. StatusOK requires the archived
// message and, when the record declares media, the media bytes too.
func (e *Engine) Recover(deletionID string) (*Result, error) {
	rec, err := e.deletions.Get(deletionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deletion record: %w", err)
	}
	if rec == nil {
		return &Result{Status: StatusNotFound}, nil
	}

	msg := e.archive.FindByID(rec.MessageID)
	if msg == nil {
		e.log.Infof("Archived message %s for deletion %s is gone (retention)", rec.MessageID, deletionID)
		return &Result{Status: StatusExpired, Record: rec}, nil
	}

	res := &Result{
		Status: StatusOK,
		Record: rec,
		Text:   msg.Body,
	}

	if !rec.HasMedia {
		return res, nil
	}

	data, mediaRec, err := e.vault.GetByMessageID(rec.MessageID)
	if err != nil {
		return nil, err
	}
	if mediaRec == nil {
		// Exact link missed: fall back to the sender/category/±60s
		// heuristic against the vault index.
		data, mediaRec, err = e.vault.FindNearMessage(rec.SenderJID, mediaCategory(rec.MediaType), rec.OriginalTime)
		if err != nil {
			return nil, err
		}
		res.FuzzyMedia = mediaRec != nil
	}
	if mediaRec == nil {
		e.log.Infof("Media for deletion %s is gone (retention)", deletionID)
		return &Result{Status: StatusExpired, Record: rec, Text: msg.Body}, nil
	}

	res.Media = data
	res.MediaRecord = mediaRec
	return res, nil
}

// ListDeleted returns deletion records for operator listing.
func (e *Engine) ListDeleted(limit int, filter store.ListFilter) ([]*store.DeletionRecord, error) {
	return e.deletions.List(limit, filter)
}

// mediaCategory maps an archived content type to the vault category it was
// stored under.
func mediaCategory(contentType string) string {
	switch archive.ContentType(contentType) {
	case archive.ContentVideo:
		return vault.CategoryVideo
	case archive.ContentAudio:
		return vault.CategoryAudio
	case archive.ContentDocument:
		return vault.CategoryDocument
	case archive.ContentSticker:
		return vault.CategorySticker
	default:
		return vault.CategoryImage
	}
}
