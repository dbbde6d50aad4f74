package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
)

// RestoreResult reports what a restore did per manifest entry.
type RestoreResult struct {
	ID       string   `json:"backup_id" yaml:"backup_id"`
	Restored []string `json:"restored" yaml:"restored"`
	Skipped  []string `json:"skipped" yaml:"skipped"`
	Errors   []string `json:"errors" yaml:"errors"`
}

// OK reports whether every restorable entry was restored.
func (r *RestoreResult) OK() bool {
	return len(r.Errors) == 0
}

// Restore puts every artifact of transaction id back at its original
// location. Plain files are copied back; archives are extracted into the
// parent of the recorded directory. Record-only entries are skipped. A
// failing entry does not stop the others.
func (m *Manager) Restore(id string) (*RestoreResult, error) {
	man, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	id, dir, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	logger := logging.Get("backup").With("id", id)
	res := &RestoreResult{
		ID:       id,
		Restored: []string{},
		Skipped:  []string{},
		Errors:   []string{},
	}

	for _, e := range man.Files {
		if e.RecordOnly() {
			res.Skipped = append(res.Skipped, e.Original)
			continue
		}

		if err := restoreEntry(dir, e); err != nil {
			logger.Warn("restore failed", "original", e.Original, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", e.Original, err))
			continue
		}
		logger.Info("restored", "original", e.Original, "artifact", e.Backup)
		res.Restored = append(res.Restored, e.Original)
	}
	return res, nil
}

func restoreEntry(dir string, e Entry) error {
	if validName(e.Backup) != nil {
		return fmt.Errorf("invalid artifact name %q", e.Backup)
	}
	artifact := filepath.Join(dir, e.Backup)
	info, err := os.Stat(artifact)
	if err != nil {
		return err
	}

	if IsArchive(e.Backup) {
		return extractArchive(artifact, filepath.Dir(e.Original))
	}

	if err := os.MkdirAll(filepath.Dir(e.Original), 0o755); err != nil {
		return err
	}
	tmp := e.Original + ".ccdisk-restore"
	if _, err := copyFile(artifact, tmp, info); err != nil {
		return err
	}
	if err := os.Rename(tmp, e.Original); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
