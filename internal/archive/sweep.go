package archive

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepExpired removes every partition whose whole day lies before the
// cutoff, then prunes emptied day/month/year directories. Keying on the
// partition date rather than file mtime keeps the sweep deterministic: a
// partition is eligible exactly when no record in it can be younger than
// the cutoff. Idempotent; a second run right after removes nothing.
func (s *Store) SweepExpired(cutoff time.Time) (int, error) {
	removed := 0

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warnf("Sweep walk error at %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, partitionExt) {
			return nil
		}

		day, ok := PartitionDay(s.root, path)
		if !ok {
			s.log.Warnf("Skipping unrecognized file in archive: %s", path)
			return nil
		}

		dayEnd := day.AddDate(0, 0, 1)
		if dayEnd.After(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			s.log.Errorf("Failed to remove expired partition %s: %v", path, err)
			return nil
		}
		removed++
		s.log.Debugf("Removed expired partition %s", path)
		return nil
	})
	if err != nil {
		return removed, err
	}

	s.pruneEmptyDirs()
	return removed, nil
}

// pruneEmptyDirs removes empty day/month/year directories left behind by a
// sweep. Best effort; a non-empty directory simply refuses removal.
func (s *Store) pruneEmptyDirs() {
	var dirs []string
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != s.root {
			dirs = append(dirs, path)
		}
		return nil
	})

	// Deepest first so a day removal can empty its month, and so on.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
}
