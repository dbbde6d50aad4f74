// Package history keeps past scan reports in a Badger database so that two
// scans can be compared later.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Key prefixes for different data types.
const (
	prefixReport  = "r:" // full report JSON
	prefixSummary = "s:" // listing summary
	prefixMeta    = "m:" // metadata
)

const (
	schemaKey = prefixMeta + "__schema__"

	// CurrentSchemaVersion is written on open.
	CurrentSchemaVersion = 1

	// idLayout sorts lexically in creation order.
	idLayout = "20060102T150405.000000000Z"
)

// Aliases accepted by Get.
const (
	Latest   = "latest"
	Previous = "previous"
)

// ErrNotFound is returned when a stored report doesn't exist.
var ErrNotFound = errors.New("history entry not found")

// Entry summarizes one stored scan.
type Entry struct {
	ID            string    `json:"id" yaml:"id"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	Findings      int       `json:"findings" yaml:"findings"`
	TopRisk       string    `json:"top_risk,omitempty" yaml:"top_risk,omitempty"`
	Actions       int       `json:"actions" yaml:"actions"`
	ClaudeDirSize int64     `json:"claude_dir_size" yaml:"claude_dir_size"`
	ClaudeJSON    int64     `json:"claude_json_size" yaml:"claude_json_size"`
}

// Store is the scan history backed by Badger.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	inMemory      bool
	retentionDays int
}

// InMemory keeps the database in memory only.
func InMemory() Option {
	return func(o *storeOptions) { o.inMemory = true }
}

// WithRetention expires saved reports after days. Zero keeps them forever.
func WithRetention(days int) Option {
	return func(o *storeOptions) { o.retentionDays = days }
}

// Open opens or creates the history database at path. Badger refuses a
// second process opening the same directory; that error is returned as is.
func Open(path string, opts ...Option) (*Store, error) {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	bopts := badger.DefaultOptions(path)
	if o.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = badgerLogger{logging.Get("history")}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening history at %s: %w", path, err)
	}

	s := &Store{db: db}
	if o.retentionDays > 0 {
		s.ttl = time.Duration(o.retentionDays) * 24 * time.Hour
	}
	if err := s.setSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a report and returns its id.
func (s *Store) Save(r *types.ScanReport) (string, error) {
	id := r.CreatedAt.UTC().Format(idLayout)

	report, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	summary, err := json.Marshal(summarize(id, r))
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(prefixReport+id, report)); err != nil {
			return err
		}
		return txn.SetEntry(s.entry(prefixSummary+id, summary))
	})
	if err != nil {
		return "", fmt.Errorf("saving report %s: %w", id, err)
	}

	logging.Get("history").Debug("report saved", "id", id, "bytes", len(report))
	return id, nil
}

func (s *Store) entry(key string, value []byte) *badger.Entry {
	e := badger.NewEntry([]byte(key), value)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	return e
}

// List returns the stored scans, newest first.
func (s *Store) List() ([]Entry, error) {
	out := []Entry{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSummary)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys sort oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Get returns a stored report by id. "latest" and "previous" name the
// newest and second newest scans.
func (s *Store) Get(id string) (*types.ScanReport, error) {
	id, err := s.resolve(id)
	if err != nil {
		return nil, err
	}

	var r types.ScanReport
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixReport + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) resolve(id string) (string, error) {
	var idx int
	switch strings.ToLower(id) {
	case "":
		return "", errors.New("history id cannot be empty")
	case Latest:
		idx = 0
	case Previous:
		idx = 1
	default:
		return id, nil
	}

	entries, err := s.List()
	if err != nil {
		return "", err
	}
	if idx >= len(entries) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return entries[idx].ID, nil
}

// Prune deletes reports created before now minus days and returns how many
// were removed.
func (s *Store) Prune(days int, now time.Time) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := prefixSummary + now.Add(-time.Duration(days)*24*time.Hour).UTC().Format(idLayout)

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixSummary)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if key >= cutoff {
				break
			}
			ids = append(ids, strings.TrimPrefix(key, prefixSummary))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := txn.Delete([]byte(prefixReport + id)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(prefixSummary + id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Store) setSchema() error {
	data, err := json.Marshal(map[string]int{"version": CurrentSchemaVersion})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaKey), data)
	})
}

func summarize(id string, r *types.ScanReport) Entry {
	e := Entry{
		ID:            id,
		CreatedAt:     r.CreatedAt,
		Findings:      len(r.Findings),
		Actions:       len(r.Actions),
		ClaudeDirSize: r.Metrics.Size(types.AreaClaudeDir),
		ClaudeJSON:    r.Metrics.Size(types.AreaClaudeJSON),
	}
	if len(r.Findings) > 0 {
		e.TopRisk = string(r.Findings[0].Risk)
	}
	return e
}

// badgerLogger routes Badger's own logging into the history component.
type badgerLogger struct {
	l *logging.Logger
}

func (b badgerLogger) Errorf(f string, args ...any) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(f, args...)))
}

func (b badgerLogger) Warningf(f string, args ...any) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(f, args...)))
}

func (b badgerLogger) Infof(f string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, args...)))
}

func (b badgerLogger) Debugf(f string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(f, args...)))
}
