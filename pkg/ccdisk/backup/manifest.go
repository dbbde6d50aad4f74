package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ManifestName is the manifest file inside each transaction directory.
const ManifestName = "manifest.json"

// Manifest describes one backup transaction.
type Manifest struct {
	Created     time.Time `json:"created"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Host        string    `json:"host"`
	Actor       string    `json:"actor"`
	Files       []Entry   `json:"files"`
}

// Entry records one backed-up or deleted path. Backup is the artifact name
// inside the transaction directory, or empty when only the deletion was
// recorded.
type Entry struct {
	Original string `json:"original"`
	Backup   string `json:"backup"`
	Size     int64  `json:"size"`
}

// RecordOnly reports whether the entry has no artifact.
func (e Entry) RecordOnly() bool {
	return e.Backup == ""
}

// TotalSize sums the recorded sizes.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Size
	}
	return total
}

// writeManifest replaces dir/manifest.json atomically: the document is
// written and synced to a uniquely named temp file which is then renamed
// over the old manifest.
func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, ManifestName), data, 0o644)
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = []Entry{}
	}
	return &m, nil
}

// writeFileAtomic writes data to path through a synced temp file and rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	_, writeErr := f.Write(data)
	syncErr := f.Sync()
	closeErr := f.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("failed to write temp file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
