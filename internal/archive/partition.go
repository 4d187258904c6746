package archive

import (
	"path/filepath"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/types"
)

// partitionLayout is the day-bucket directory layout under the archive root.
const partitionLayout = "2006/01/02"

// partitionExt is the extension of partition files. One JSON record per
// line; the file is only ever appended to.
const partitionExt = ".jsonl"

// PartitionPath returns the deterministic file location for (timestamp,
// category): root/YYYY/MM/DD/<category>.jsonl. Both the archive and the
// deletion search derive paths exclusively through this function.
func PartitionPath(root string, ts time.Time, category Category) string {
	return filepath.Join(root, ts.Format(partitionLayout), string(category)+partitionExt)
}

// PartitionDay parses the day a partition file belongs to from its path.
// The second return is false for paths not produced by PartitionPath.
func PartitionDay(root, path string) (time.Time, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return time.Time{}, false
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	day, err := time.ParseInLocation(partitionLayout, dir, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// CategoryForChat maps a chat JID shape to its archive category.
func CategoryForChat(chat types.JID) Category {
	switch {
	case chat.Server == types.GroupServer:
		return CategoryGroup
	case chat.Server == types.BroadcastServer && chat.User == "status":
		return CategoryStatus
	case chat.Server == types.BroadcastServer:
		return CategoryBroadcast
	case chat.Server == types.NewsletterServer:
		return CategoryNewsletter
	default:
		return CategoryIndividual
	}
}

// ParseCategory normalizes operator/config input to a Category, defaulting
// to individual.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryGroup:
		return CategoryGroup
	case CategoryStatus:
		return CategoryStatus
	case CategoryBroadcast:
		return CategoryBroadcast
	case CategoryNewsletter:
		return CategoryNewsletter
	default:
		return CategoryIndividual
	}
}
