// Package scoreboard persists per-document metric components across
// process runs, so long benchmark campaigns resume instead of starting
// over. A run has a uuid, the name of the metric it accumulates, and one
// msgpack-encoded entry per scored document in BadgerDB. Re-recording a
// document replaces its previous entry; folding a run replays every
// entry into a fresh metric accumulator.
package scoreboard

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/chronoline/chronoline/pkg/metric"
)

// ErrNotFound is returned when a run id does not exist in the store.
var ErrNotFound = errors.New("scoreboard: run not found")

// Key prefixes. Run metadata lives under "run:<id>", document entries
// under "rec:<id>:<uri>"; the uri is the final key part, so it may
// contain any character.
const (
	runPrefix = "run:"
	recPrefix = "rec:"
)

// Run is the metadata of one accumulation run.
type Run struct {
	ID        string    `msgpack:"id"`
	Metric    string    `msgpack:"metric"`
	StartedAt time.Time `msgpack:"started_at"`
	UpdatedAt time.Time `msgpack:"updated_at"`
	Documents int       `msgpack:"documents"`
}

// Entry is one document's scored components within a run.
type Entry struct {
	URI        string            `msgpack:"uri"`
	Rate       float64           `msgpack:"rate"`
	Components metric.Components `msgpack:"components"`
}

// Adder folds restored components back into a running total. Every
// metric accumulator satisfies it.
type Adder interface {
	Add(uri string, c metric.Components) float64
}

// Options configures the store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	// Useful for testing with the real badger engine.
	InMemory bool
}

// Store is a BadgerDB-backed scoreboard.
type Store struct {
	db *badger.DB
}

// Open opens or creates a scoreboard store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("scoreboard: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(dbOpts.WithLogger(quietLogger{}))
	if err != nil {
		return nil, fmt.Errorf("scoreboard: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin creates a new run accumulating the named metric.
func (s *Store) Begin(metricName string) (Run, error) {
	if metricName == "" {
		return Run{}, errors.New("scoreboard: empty metric name")
	}
	now := time.Now().UTC()
	run := Run{
		ID:        uuid.New().String(),
		Metric:    metricName,
		StartedAt: now,
		UpdatedAt: now,
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return putRun(txn, run)
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// Resume returns an existing run's metadata.
func (s *Store) Resume(id string) (Run, error) {
	var run Run
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		run, err = getRun(txn, id)
		return err
	})
	return run, err
}

// Record stores one document's components in a run. Recording a uri
// that the run already holds replaces the earlier entry.
func (s *Store) Record(runID string, e Entry) error {
	if e.URI == "" {
		return errors.New("scoreboard: empty entry uri")
	}
	data, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("scoreboard: encode entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		run, err := getRun(txn, runID)
		if err != nil {
			return err
		}
		key := recKey(runID, e.URI)
		_, err = txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			run.Documents++
		case err != nil:
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		run.UpdatedAt = time.Now().UTC()
		return putRun(txn, run)
	})
}

// Entries returns a run's document entries in uri order.
func (s *Store) Entries(runID string) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := getRun(txn, runID); err != nil {
			return err
		}
		prefix := []byte(recPrefix + runID + ":")
		it := txn.NewIterator(iterOptions(prefix))
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var e Entry
			if err := msgpack.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("scoreboard: decode entry: %w", err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Fold replays a run's entries into a metric accumulator, in uri order,
// and returns the number of documents folded.
func (s *Store) Fold(runID string, into Adder) (int, error) {
	entries, err := s.Entries(runID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		into.Add(e.URI, e.Components)
	}
	return len(entries), nil
}

// Runs lists all runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	var out []Run
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(runPrefix)
		it := txn.NewIterator(iterOptions(prefix))
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var run Run
			if err := msgpack.Unmarshal(data, &run); err != nil {
				return fmt.Errorf("scoreboard: decode run: %w", err)
			}
			out = append(out, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b Run) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return out, nil
}

// Delete removes a run and all its entries.
func (s *Store) Delete(runID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := getRun(txn, runID); err != nil {
			return err
		}
		prefix := []byte(recPrefix + runID + ":")
		it := txn.NewIterator(iterOptions(prefix))
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return txn.Delete(runKey(runID))
	})
}

func runKey(id string) []byte {
	return []byte(runPrefix + id)
}

func recKey(id, uri string) []byte {
	return []byte(recPrefix + id + ":" + uri)
}

func iterOptions(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	return opts
}

func getRun(txn *badger.Txn, id string) (Run, error) {
	item, err := txn.Get(runKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return Run{}, err
	}
	var run Run
	if err := msgpack.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("scoreboard: decode run: %w", err)
	}
	return run, nil
}

func putRun(txn *badger.Txn, run Run) error {
	data, err := msgpack.Marshal(run)
	if err != nil {
		return fmt.Errorf("scoreboard: encode run: %w", err)
	}
	return txn.Set(runKey(run.ID), data)
}

// quietLogger suppresses badger's info and debug output.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { log.Printf("[badger] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { log.Printf("[badger] WARN: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}
