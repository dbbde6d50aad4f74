package executor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Keys written into settings.json.
const (
	settingsEnvKey         = "env"
	nonessentialTrafficVar = "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC"
	cleanupPeriodDaysKey   = "cleanupPeriodDays"
	settingsBackupName     = "settings.json"
)

// readSettings loads settings.json as a generic document. A missing file is
// an empty document; the bool reports whether the file existed.
func readSettings(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, false, nil
	}
	if err != nil {
		return nil, false, types.Classify("read", path, err)
	}

	doc := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, true, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, true, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, true, nil
}

// setEnv sets env[name]=value, creating the env object when absent.
func setEnv(doc map[string]any, name, value string) error {
	raw, ok := doc[settingsEnvKey]
	if !ok || raw == nil {
		doc[settingsEnvKey] = map[string]any{name: value}
		return nil
	}
	env, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("settings %q is not an object", settingsEnvKey)
	}
	env[name] = value
	return nil
}

// writeSettings replaces path with doc via a temp file and rename.
func writeSettings(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.Classify("mkdir", filepath.Dir(path), err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return types.Classify("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return types.Classify("rename", path, err)
	}
	return nil
}
