// Package backup implements the transactional backup store. Every
// destructive action opens a transaction: a timestamped directory under the
// backup root holding copied files, directory archives and a manifest that
// lists what was saved or deleted. Transactions can be listed and restored.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/metrics"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

const (
	// TimestampLayout names transaction directories.
	TimestampLayout = "2006-01-02T15-04-05"

	// Latest is the alias for the most recently created transaction.
	Latest = "latest"
)

// Manager owns a backup root.
type Manager struct {
	root  string
	now   func() time.Time
	host  string
	actor string

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for transaction ids.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHost overrides the host recorded in manifests.
func WithHost(host string) Option {
	return func(m *Manager) { m.host = host }
}

// WithActor overrides the user recorded in manifests.
func WithActor(actor string) Option {
	return func(m *Manager) { m.actor = actor }
}

// New returns a Manager rooted at root. The directory is created lazily.
func New(root string, opts ...Option) *Manager {
	m := &Manager{
		root:  root,
		now:   time.Now,
		host:  hostname(),
		actor: username(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the backup root.
func (m *Manager) Root() string {
	return m.root
}

// Transaction is an open backup transaction.
type Transaction struct {
	id       string
	dir      string
	manifest Manifest
}

// ID returns the transaction id, which is also its directory name.
func (t *Transaction) ID() string { return t.id }

// Dir returns the transaction directory.
func (t *Transaction) Dir() string { return t.dir }

// Entries returns a copy of the manifest entries recorded so far.
func (t *Transaction) Entries() []Entry {
	out := make([]Entry, len(t.manifest.Files))
	copy(out, t.manifest.Files)
	return out
}

// CreateTransaction creates a new transaction directory with an empty
// manifest and points the latest alias at it. Two transactions created in
// the same second get distinct ids via a numeric suffix.
func (m *Manager) CreateTransaction(action, description string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.root, 0o700); err != nil {
		return nil, backupErr("create backup root", m.root, err)
	}

	created := m.now()
	base := created.Format(TimestampLayout)

	id, dir := "", ""
	for n := 0; ; n++ {
		id = base
		if n > 0 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		dir = filepath.Join(m.root, id)
		err := os.Mkdir(dir, 0o700)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, backupErr("create transaction", dir, err)
		}
	}

	tx := &Transaction{
		id:  id,
		dir: dir,
		manifest: Manifest{
			Created:     created,
			Action:      action,
			Description: description,
			Host:        m.host,
			Actor:       m.actor,
			Files:       []Entry{},
		},
	}
	if err := writeManifest(dir, &tx.manifest); err != nil {
		return nil, backupErr("write manifest", dir, err)
	}

	if err := m.setLatest(id); err != nil {
		logging.Get("backup").Warn("failed to update latest alias", "id", id, "error", err)
	}

	logging.Get("backup").Info("transaction created", "id", id, "action", action)
	return tx, nil
}

// BackupFile copies src into the transaction under name (the base name of
// src when empty) and records it. The artifact is complete on disk before
// the manifest mentions it.
func (m *Manager) BackupFile(tx *Transaction, src, name string) (string, error) {
	if name == "" {
		name = filepath.Base(src)
	}
	if err := validName(name); err != nil {
		return "", err
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", types.Classify("stat", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("backup %s: not a regular file", src)
	}

	dest := filepath.Join(tx.dir, name)
	size, err := copyFile(src, dest, info)
	if err != nil {
		return "", backupErr("copy", src, err)
	}

	if err := m.record(tx, Entry{Original: src, Backup: name, Size: size}); err != nil {
		return "", err
	}
	return dest, nil
}

// BackupDirectoryAsArchive packs dir into a gzip-compressed tarball named
// archiveName inside the transaction and records it. Restoring extracts
// the archive into the parent of dir.
func (m *Manager) BackupDirectoryAsArchive(tx *Transaction, dir, archiveName string) (string, error) {
	if !IsArchive(archiveName) {
		archiveName += ".tgz"
	}
	if err := validName(archiveName); err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", types.Classify("stat", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("archive %s: not a directory", dir)
	}

	dest := filepath.Join(tx.dir, archiveName)
	partial := dest + ".partial"
	if err := writeArchive(partial, dir); err != nil {
		_ = os.Remove(partial)
		return "", backupErr("archive", dir, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return "", backupErr("archive", dir, err)
	}

	entry := Entry{Original: dir, Backup: archiveName, Size: metrics.DirSize(dir)}
	if err := m.record(tx, entry); err != nil {
		return "", err
	}
	return dest, nil
}

// RecordDeletion notes that original was deleted without an artifact.
func (m *Manager) RecordDeletion(tx *Transaction, original string, size int64) error {
	return m.record(tx, Entry{Original: original, Size: size})
}

// Discard deletes a transaction whose backups could not be completed. When
// latest pointed at it, the alias moves to the newest remaining transaction
// or is removed.
func (m *Manager) Discard(tx *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.RemoveAll(tx.dir); err != nil {
		return backupErr("discard", tx.dir, err)
	}
	logging.Get("backup").Info("transaction discarded", "id", tx.id)

	if latest, err := m.resolveLatest(); err != nil || latest != tx.id {
		return nil
	}

	remaining, err := m.List()
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := os.Remove(filepath.Join(m.root, Latest)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return backupErr("remove latest alias", m.root, err)
		}
		return nil
	}
	return m.setLatest(remaining[0].ID)
}

func (m *Manager) record(tx *Transaction, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx.manifest.Files = append(tx.manifest.Files, e)
	if err := writeManifest(tx.dir, &tx.manifest); err != nil {
		tx.manifest.Files = tx.manifest.Files[:len(tx.manifest.Files)-1]
		return backupErr("write manifest", tx.dir, err)
	}
	return nil
}

// Summary describes one transaction for listings.
type Summary struct {
	ID          string    `json:"timestamp" yaml:"timestamp"`
	Path        string    `json:"path" yaml:"path"`
	Action      string    `json:"action" yaml:"action"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Created     time.Time `json:"created" yaml:"created"`
	Files       int       `json:"files" yaml:"files"`
	Size        int64     `json:"size" yaml:"size"`
	SizeHuman   string    `json:"size_human" yaml:"size_human"`
	Latest      bool      `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// List returns all transactions, newest first. Directories whose names are
// not transaction ids are ignored. A missing root yields an empty list.
func (m *Manager) List() ([]Summary, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, types.Classify("list", m.root, err)
	}

	latest, _ := m.resolveLatest()

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, _, ok := parseID(e.Name()); !ok {
			continue
		}
		out = append(out, m.summarize(e.Name(), latest))
	}

	sort.Slice(out, func(i, j int) bool {
		return idLess(out[j].ID, out[i].ID)
	})
	return out, nil
}

func (m *Manager) summarize(id, latest string) Summary {
	dir := filepath.Join(m.root, id)
	size := metrics.DirSize(dir)
	s := Summary{
		ID:        id,
		Path:      dir,
		Action:    "unknown",
		Size:      size,
		SizeHuman: types.FormatSize(size),
		Latest:    id == latest,
	}

	man, err := readManifest(dir)
	if err != nil {
		logging.Get("backup").Debug("unreadable manifest", "id", id, "error", err)
		if ts, _, ok := parseID(id); ok {
			s.Created = ts
		}
		return s
	}

	s.Action = man.Action
	s.Description = man.Description
	s.Created = man.Created
	s.Files = len(man.Files)
	return s
}

// Get returns the manifest of a transaction. "latest" is accepted.
func (m *Manager) Get(id string) (*Manifest, error) {
	id, dir, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	man, err := readManifest(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no manifest", types.ErrTransactionNotFound, id)
		}
		return nil, err
	}
	return man, nil
}

// lookup resolves id, including the latest alias, to an existing
// transaction directory.
func (m *Manager) lookup(id string) (string, string, error) {
	if id == "" {
		return "", "", errors.New("backup id cannot be empty")
	}
	if id == Latest {
		resolved, err := m.resolveLatest()
		if err != nil {
			return "", "", fmt.Errorf("%w: %s", types.ErrTransactionNotFound, id)
		}
		id = resolved
	}
	if validName(id) != nil {
		return "", "", fmt.Errorf("%w: %s", types.ErrTransactionNotFound, id)
	}

	dir := filepath.Join(m.root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("%w: %s", types.ErrTransactionNotFound, id)
	}
	return id, dir, nil
}

// setLatest points root/latest at id, as a symlink where supported and as
// a pointer file otherwise.
func (m *Manager) setLatest(id string) error {
	link := filepath.Join(m.root, Latest)
	tmp := fmt.Sprintf("%s.%s.tmp", link, uuid.NewString())

	if err := os.Symlink(id, tmp); err == nil {
		if err := os.Rename(tmp, link); err == nil {
			return nil
		}
		_ = os.Remove(tmp)
	}

	return writeFileAtomic(link, []byte(id+"\n"), 0o644)
}

func (m *Manager) resolveLatest() (string, error) {
	link := filepath.Join(m.root, Latest)
	if target, err := os.Readlink(link); err == nil {
		return filepath.Base(target), nil
	}
	data, err := os.ReadFile(link)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("empty latest pointer")
	}
	return id, nil
}

// parseID splits a transaction id into its timestamp and collision suffix.
func parseID(id string) (time.Time, int, bool) {
	if len(id) < len(TimestampLayout) {
		return time.Time{}, 0, false
	}
	ts, err := time.ParseInLocation(TimestampLayout, id[:len(TimestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}

	rest := id[len(TimestampLayout):]
	if rest == "" {
		return ts, 0, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(rest, "-"))
	if err != nil || !strings.HasPrefix(rest, "-") || n < 1 {
		return time.Time{}, 0, false
	}
	return ts, n, true
}

func idLess(a, b string) bool {
	ta, na, _ := parseID(a)
	tb, nb, _ := parseID(b)
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return na < nb
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || name == ManifestName ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name %q", name)
	}
	return nil
}

func copyFile(src, dest string, info fs.FileInfo) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, err
	}

	_ = os.Chtimes(dest, info.ModTime(), info.ModTime())
	return n, nil
}

// backupErr classifies err and tags it as a backup store failure. The
// underlying kind stays matchable with errors.Is.
func backupErr(op, path string, err error) error {
	classified := types.Classify(op, path, err)
	if errors.Is(classified, types.ErrBackupIO) {
		return classified
	}
	return fmt.Errorf("%w: %w", types.ErrBackupIO, classified)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func username() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
