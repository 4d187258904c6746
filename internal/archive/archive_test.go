package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retracer/internal/infra/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logger.NewWithOutput("test", "ERROR", io.Discard))
}

func msg(id string, ts time.Time, category Category, body string) *ArchivedMessage {
	return &ArchivedMessage{
		ID:          id,
		ChatJID:     "15551234567@s.whatsapp.net",
		SenderJID:   "15551234567@s.whatsapp.net",
		Timestamp:   ts,
		Category:    category,
		ContentType: ContentText,
		Body:        body,
	}
}

func TestAppendAndReadPartition(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(msg(fmt.Sprintf("MSG%d", i), now, CategoryIndividual, fmt.Sprintf("body %d", i))))
	}

	got := s.ReadPartition(now, CategoryIndividual)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("MSG%d", i), m.ID)
		assert.Equal(t, fmt.Sprintf("body %d", i), m.Body)
		assert.False(t, m.ArchivedAt.IsZero())
	}

	// Other partitions stay empty.
	assert.Empty(t, s.ReadPartition(now, CategoryGroup))
	assert.Empty(t, s.ReadPartition(now.AddDate(0, 0, -1), CategoryIndividual))
}

func TestQueueFlushPreservesBatchOrder(t *testing.T) {
	s := testStore(t)
	q := NewQueue(s, 64, 10, time.Second, logger.NewWithOutput("test", "ERROR", io.Discard))
	now := time.Now()

	for i := 0; i < 7; i++ {
		require.True(t, q.Enqueue(msg(fmt.Sprintf("Q%d", i), now, CategoryGroup, "queued")))
	}

	assert.Equal(t, 7, q.FlushBatch())
	assert.Equal(t, 0, q.Len())

	got := s.ReadPartition(now, CategoryGroup)
	require.Len(t, got, 7)
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("Q%d", i), m.ID)
	}
}

func TestQueueFlushHonorsBatchSize(t *testing.T) {
	s := testStore(t)
	q := NewQueue(s, 64, 3, time.Second, logger.NewWithOutput("test", "ERROR", io.Discard))
	now := time.Now()

	for i := 0; i < 5; i++ {
		q.Enqueue(msg(fmt.Sprintf("B%d", i), now, CategoryIndividual, "queued"))
	}

	assert.Equal(t, 3, q.FlushBatch())
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.FlushBatch())
}

func TestQueueFullDropIsObservable(t *testing.T) {
	s := testStore(t)
	q := NewQueue(s, 2, 10, time.Second, logger.NewWithOutput("test", "ERROR", io.Discard))
	now := time.Now()

	assert.True(t, q.Enqueue(msg("F1", now, CategoryIndividual, "x")))
	assert.True(t, q.Enqueue(msg("F2", now, CategoryIndividual, "x")))
	assert.False(t, q.Enqueue(msg("F3", now, CategoryIndividual, "x")))

	enqueued, _, dropped := q.Stats()
	assert.Equal(t, uint64(2), enqueued)
	assert.Equal(t, uint64(1), dropped)
}

func TestReadPartitionSkipsCorruptedLines(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	require.NoError(t, s.Append(msg("GOOD1", now, CategoryIndividual, "first")))

	path := PartitionPath(s.Root(), now, CategoryIndividual)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{this is not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(msg("GOOD2", now, CategoryIndividual, "second")))

	got := s.ReadPartition(now, CategoryIndividual)
	require.Len(t, got, 2)
	assert.Equal(t, "GOOD1", got[0].ID)
	assert.Equal(t, "GOOD2", got[1].ID)
}

func TestFindByIDRecentWindow(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	require.NoError(t, s.Append(msg("RECENT", now.Add(-time.Hour), CategoryGroup, "hello")))

	found := s.FindByID("RECENT")
	require.NotNil(t, found)
	assert.Equal(t, "hello", found.Body)
	assert.Equal(t, CategoryGroup, found.Category)

	assert.Nil(t, s.FindByID("MISSING"))
}

func TestFindByIDFallsBackToFullWalk(t *testing.T) {
	s := testStore(t)
	old := time.Now().AddDate(0, 0, -10)

	require.NoError(t, s.Append(msg("ANCIENT", old, CategoryIndividual, "long ago")))

	found := s.FindByID("ANCIENT")
	require.NotNil(t, found)
	assert.Equal(t, "long ago", found.Body)
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	s := testStore(t)
	now := time.Now()
	old := now.AddDate(0, 0, -5)

	require.NoError(t, s.Append(msg("OLD", old, CategoryIndividual, "stale")))
	require.NoError(t, s.Append(msg("NEW", now, CategoryIndividual, "fresh")))

	cutoff := now.Add(-72 * time.Hour)

	removed, err := s.SweepExpired(cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(PartitionPath(s.Root(), old, CategoryIndividual))
	assert.True(t, os.IsNotExist(err))
	assert.Nil(t, s.FindByID("OLD"))
	assert.NotNil(t, s.FindByID("NEW"))

	// Day directory for the swept partition is pruned.
	_, err = os.Stat(filepath.Dir(PartitionPath(s.Root(), old, CategoryIndividual)))
	assert.True(t, os.IsNotExist(err))

	removed, err = s.SweepExpired(cutoff)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestQueueStartFlushesOnTimer(t *testing.T) {
	s := testStore(t)
	q := NewQueue(s, 64, 10, 20*time.Millisecond, logger.NewWithOutput("test", "ERROR", io.Discard))
	now := time.Now()

	q.Start(t.Context())
	q.Enqueue(msg("TIMED", now, CategoryIndividual, "tick"))

	require.Eventually(t, func() bool {
		return s.FindByID("TIMED") != nil
	}, 2*time.Second, 10*time.Millisecond)

	q.Stop()
}
