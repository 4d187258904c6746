package recovery

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"

	"retracer/internal/archive"
	"retracer/internal/data/store"
	"retracer/internal/infra/logger"
	"retracer/internal/vault"
)

type fixture struct {
	archive   *archive.Store
	vault     *vault.Vault
	deletions *store.DeletionStore
	detector  *Detector
	engine    *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewWithOutput("test", "ERROR", io.Discard)

	db, err := store.New(filepath.Join(t.TempDir(), "retracer.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	arch := archive.NewStore(t.TempDir(), log)
	v := vault.New(t.TempDir(), 0, store.NewMediaRecordStore(db), log)
	deletions := store.NewDeletionStore(db)

	return &fixture{
		archive:   arch,
		vault:     v,
		deletions: deletions,
		detector:  NewDetector(arch, deletions, log),
		engine:    NewEngine(arch, v, deletions, log),
	}
}

func sender() types.JID {
	return types.NewJID("15551234567", types.DefaultUserServer)
}

func groupChat() types.JID {
	return types.NewJID("120363041234567890", types.GroupServer)
}

func TestDeleteThenRecoverText(t *testing.T) {
	f := newFixture(t)
	sent := time.Now().Add(-10 * time.Minute)

	require.NoError(t, f.archive.Append(&archive.ArchivedMessage{
		ID:          "ABC123",
		ChatJID:     groupChat().String(),
		SenderJID:   sender().String(),
		Timestamp:   sent,
		Category:    archive.CategoryGroup,
		ContentType: archive.ContentText,
		Body:        "hello",
	}))

	rec, err := f.detector.OnDeletion("ABC123", groupChat().String(), time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "hello", rec.RecoveredText)
	assert.False(t, rec.HasMedia)

	res, err := f.engine.Recover(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Contains(t, res.Text, "hello")
	assert.Nil(t, res.Media)

	// Idempotent: a second recovery returns the same content.
	res2, err := f.engine.Recover(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Text, res2.Text)
}

func TestDeletionWithoutArchivedMessageCreatesNothing(t *testing.T) {
	f := newFixture(t)

	rec, err := f.detector.OnDeletion("NEVER-SEEN", groupChat().String(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, rec)

	count, err := f.deletions.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecoverUnknownDeletionIsNotFound(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Recover("no-such-deletion")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestRecoverWithLinkedMedia(t *testing.T) {
	f := newFixture(t)
	sent := time.Now().Add(-5 * time.Minute)
	payload := []byte("image payload")

	mediaRec, err := f.vault.Store(payload, vault.Context{
		MessageID: "IMG42",
		ChatJID:   sender().ToNonAD(),
		SenderJID: sender(),
		Timestamp: sent,
		Mimetype:  "image/jpeg",
	})
	require.NoError(t, err)

	require.NoError(t, f.archive.Append(&archive.ArchivedMessage{
		ID:          "IMG42",
		ChatJID:     sender().ToNonAD().String(),
		SenderJID:   sender().String(),
		Timestamp:   sent,
		Category:    archive.CategoryIndividual,
		ContentType: archive.ContentImage,
		Body:        "[Image]",
		Mimetype:    "image/jpeg",
		MediaID:     mediaRec.UniqueID,
	}))

	rec, err := f.detector.OnDeletion("IMG42", sender().ToNonAD().String(), time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.HasMedia)
	assert.Equal(t, "image", rec.MediaType)

	res, err := f.engine.Recover(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, payload, res.Media)
	assert.False(t, res.FuzzyMedia)
}

func TestRecoverFallsBackToTimeWindowHeuristic(t *testing.T) {
	f := newFixture(t)
	sent := time.Now().Add(-5 * time.Minute).Truncate(time.Second)
	payload := []byte("heuristic payload")

	// Vault record stored under a different message id, as happens when
	// the exact link was never captured.
	_, err := f.vault.Store(payload, vault.Context{
		MessageID: "OTHER-ID",
		ChatJID:   sender().ToNonAD(),
		SenderJID: sender(),
		Timestamp: sent.Add(20 * time.Second),
		Mimetype:  "image/jpeg",
	})
	require.NoError(t, err)

	require.NoError(t, f.archive.Append(&archive.ArchivedMessage{
		ID:          "FUZZY1",
		ChatJID:     sender().ToNonAD().String(),
		SenderJID:   sender().String(),
		Timestamp:   sent,
		Category:    archive.CategoryIndividual,
		ContentType: archive.ContentImage,
		Body:        "[Image]",
	}))

	rec, err := f.detector.OnDeletion("FUZZY1", sender().ToNonAD().String(), time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)

	res, err := f.engine.Recover(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, payload, res.Media)
	assert.True(t, res.FuzzyMedia, "heuristic matches must be flagged as fuzzy")
}

func TestRecoverAfterRetentionIsExpired(t *testing.T) {
	f := newFixture(t)
	sent := time.Now().AddDate(0, 0, -5)

	require.NoError(t, f.archive.Append(&archive.ArchivedMessage{
		ID:          "STALE1",
		ChatJID:     groupChat().String(),
		SenderJID:   sender().String(),
		Timestamp:   sent,
		Category:    archive.CategoryGroup,
		ContentType: archive.ContentText,
		Body:        "soon to expire",
	}))

	rec, err := f.detector.OnDeletion("STALE1", groupChat().String(), time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Retention removes the underlying partition; the deletion record
	// survives on purpose.
	_, err = f.archive.SweepExpired(time.Now().Add(-72 * time.Hour))
	require.NoError(t, err)

	res, err := f.engine.Recover(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, res.Status)
	require.NotNil(t, res.Record)
	// The record still remembers what the text was, even though the
	// recovery itself reports expired.
	assert.Equal(t, "soon to expire", res.Record.RecoveredText)
}

func TestRecoverMediaSweptIsExpired(t *testing.T) {
	f := newFixture(t)
	sent := time.Now().Add(-time.Hour)

	mediaRec, err := f.vault.Store([]byte("bytes"), vault.Context{
		MessageID: "SWEPT1",
		ChatJID:   sender().ToNonAD(),
		SenderJID: sender(),
		Timestamp: sent,
		Mimetype:  "image/jpeg",
	})
	require.NoError(t, err)

	require.NoError(t, f.archive.Append(&archive.ArchivedMessage{
		ID:          "SWEPT1",
		ChatJID:     sender().ToNonAD().String(),
		SenderJID:   sender().String(),
		Timestamp:   sent,
		Category:    archive.CategoryIndividual,
		ContentType: archive.ContentImage,
		Body:        "[Image]",
		MediaID:     mediaRec.UniqueID,
	}))

	rec, err := f.detector.OnDeletion("SWEPT1", "", time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Only the media disappears; the text survives.
	_, _, err = f.vault.GetByMessageID("SWEPT1")
	require.NoError(t, err)
	require.NoError(t, os.Remove(mediaRec.Path))
	_, err = f.vault.PruneIndex(time.Now().Add(-72 * time.Hour))
	require.NoError(t, err)

	res, err := f.engine.Recover(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, res.Status)
	assert.Equal(t, "[Image]", res.Text)
}

func TestListDeletedFilters(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	mkMsg := func(id string, ct archive.ContentType, body string) {
		require.NoError(t, f.archive.Append(&archive.ArchivedMessage{
			ID:          id,
			ChatJID:     groupChat().String(),
			SenderJID:   sender().String(),
			Timestamp:   now.Add(-time.Hour),
			Category:    archive.CategoryGroup,
			ContentType: ct,
			Body:        body,
		}))
		_, err := f.detector.OnDeletion(id, groupChat().String(), now)
		require.NoError(t, err)
	}

	mkMsg("T1", archive.ContentText, "plain")
	mkMsg("T2", archive.ContentText, "more text")
	mkMsg("M1", archive.ContentImage, "[Image]")

	all, err := f.engine.ListDeleted(10, store.FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	media, err := f.engine.ListDeleted(10, store.FilterMedia)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "M1", media[0].MessageID)

	text, err := f.engine.ListDeleted(10, store.FilterText)
	require.NoError(t, err)
	assert.Len(t, text, 2)

	limited, err := f.engine.ListDeleted(2, store.FilterAll)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
