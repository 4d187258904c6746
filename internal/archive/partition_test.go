package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
)

func TestPartitionPath(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 30, 0, 0, time.Local)

	path := PartitionPath("/data/archive", ts, CategoryGroup)
	assert.Equal(t, filepath.Join("/data/archive", "2026", "08", "25", "group.jsonl"), path)

	// Same (day, category) always maps to the same file regardless of
	// time of day.
	later := ts.Add(9 * time.Hour)
	assert.Equal(t, path, PartitionPath("/data/archive", later, CategoryGroup))
}

func TestPartitionDayRoundTrip(t *testing.T) {
	root := "/data/archive"
	ts := time.Date(2026, 1, 2, 23, 59, 59, 0, time.Local)

	day, ok := PartitionDay(root, PartitionPath(root, ts, CategoryIndividual))
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local), day)

	_, ok = PartitionDay(root, filepath.Join(root, "stray.jsonl"))
	assert.False(t, ok)
}

func TestCategoryForChat(t *testing.T) {
	cases := []struct {
		chat types.JID
		want Category
	}{
		{types.NewJID("15551234567", types.DefaultUserServer), CategoryIndividual},
		{types.NewJID("120363041234567890", types.GroupServer), CategoryGroup},
		{types.StatusBroadcastJID, CategoryStatus},
		{types.NewJID("1234567890", types.BroadcastServer), CategoryBroadcast},
		{types.NewJID("120363147258369000", types.NewsletterServer), CategoryNewsletter},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryForChat(tc.chat), "chat %s", tc.chat)
	}
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryGroup, ParseCategory(" Group "))
	assert.Equal(t, CategoryNewsletter, ParseCategory("newsletter"))
	assert.Equal(t, CategoryIndividual, ParseCategory("whatever"))
}
