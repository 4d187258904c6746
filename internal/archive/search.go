package archive

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// recentSearchDays bounds the hot-path window of FindByID. It matches the
// default retention window, so the fallback walk only matters for
// non-default retention configurations or clock skew.
const recentSearchDays = 3

// FindByID locates an archived message by id. It scans the most recent
// recentSearchDays of partitions in SearchPriority order and, only if that
// misses, falls back to a walk of the whole archive. The walk is O(total
// files) and deliberately a last resort, never the hot path.
func (s *Store) FindByID(id string) *ArchivedMessage {
	now := time.Now()
	for offset := 0; offset < recentSearchDays; offset++ {
		day := now.AddDate(0, 0, -offset)
		for _, category := range SearchPriority {
			for _, m := range s.ReadPartition(day, category) {
				if m.ID == id {
					return m
				}
			}
		}
	}

	s.log.Debugf("Message %s not in recent partitions, walking full archive", id)
	return s.findByIDFull(id)
}

// findByIDFull walks every partition file under the root.
func (s *Store) findByIDFull(id string) *ArchivedMessage {
	var found *ArchivedMessage

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warnf("Archive walk error at %s: %v", path, err)
			return nil
		}
		if found != nil {
			return filepath.SkipAll
		}
		if d.IsDir() || !strings.HasSuffix(path, partitionExt) {
			return nil
		}
		for _, m := range s.readFile(path) {
			if m.ID == id {
				found = m
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("Full archive walk failed: %v", err)
	}
	return found
}

// CountMessages returns the total number of records across all partitions.
// Walks everything; operator stats only.
func (s *Store) CountMessages() int {
	total := 0
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, partitionExt) {
			return nil
		}
		total += len(s.readFile(path))
		return nil
	})
	return total
}
