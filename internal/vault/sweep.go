package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// SweepFilesystem walks the vault directories directly, not the index, and
// removes every file whose modification time is older than the cutoff. The
// direct walk is what also catches orphaned files that have no index entry
// at all. Idempotent.
func (v *Vault) SweepFilesystem(cutoff time.Time) (int, error) {
	removed := 0

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			v.log.Warnf("Vault sweep walk error at %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			v.log.Warnf("Failed to stat %s during sweep: %v", path, err)
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			v.log.Errorf("Failed to remove expired media %s: %v", path, err)
			return nil
		}
		removed++
		v.log.Debugf("Removed expired media file %s", path)
		return nil
	})

	return removed, err
}

// PruneIndex drops index entries that are expired or whose backing file is
// gone. Kept separate from SweepFilesystem so drift between the index and
// the filesystem self-heals in both directions instead of hiding behind one
// ambiguous operation.
func (v *Vault) PruneIndex(cutoff time.Time) (int, error) {
	records, err := v.records.All()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, rec := range records {
		stale := rec.CreatedAt.Before(cutoff)
		if !stale {
			if _, err := os.Stat(rec.Path); os.IsNotExist(err) {
				stale = true
			}
		}
		if !stale {
			continue
		}

		if err := v.records.Delete(rec.UniqueID); err != nil {
			v.log.Errorf("Failed to prune media record %s: %v", rec.UniqueID, err)
			continue
		}
		pruned++
	}
	return pruned, nil
}

// Sweep runs both cleanup paths: filesystem first, then the index.
func (v *Vault) Sweep(cutoff time.Time) (files, entries int, err error) {
	files, err = v.SweepFilesystem(cutoff)
	if err != nil {
		return files, 0, err
	}
	entries, err = v.PruneIndex(cutoff)
	return files, entries, err
}
