// Package jsonfile persists the event collection as a single JSON
// document with advisory locking and atomic replacement. Readers always
// see either the old or the new complete document, never a partial
// write. Two concurrent writers can still lose an update (last rename
// wins); acceptable for single-admin usage.
package jsonfile

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/alumni-informatik/events-server/internal/domain/events"
)

// ErrLockTimeout is returned when a file lock cannot be acquired within
// the configured bound. Callers surface it as a storage error instead of
// blocking indefinitely.
var ErrLockTimeout = errors.New("timed out waiting for events file lock")

const lockRetryInterval = 50 * time.Millisecond

// Store is a file-backed events.Repository.
type Store struct {
	path        string
	lockTimeout time.Duration
}

// New creates a Store for the JSON document at path. The parent
// directory is created if missing; the document itself is initialized
// lazily on first Load.
func New(path string, lockTimeout time.Duration) (*Store, error) {
	if path == "" {
		return nil, errors.New("events file path is required")
	}
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{path: path, lockTimeout: lockTimeout}, nil
}

// Path returns the location of the persisted document. The public feed
// serves these bytes directly.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full collection under a shared lock. A missing file is
// initialized to an empty array first. Content that is not a valid JSON
// array yields an empty collection, never an error: unreadable data is
// treated as "nothing yet". Write failures are never forgiven this way.
func (s *Store) Load(ctx context.Context) ([]events.Event, error) {
	data, err := s.ReadRaw(ctx)
	if err != nil {
		return nil, err
	}

	var collection []events.Event
	if err := json.Unmarshal(data, &collection); err != nil {
		return []events.Event{}, nil
	}
	if collection == nil {
		collection = []events.Event{}
	}
	return collection, nil
}

// ReadRaw returns the persisted document bytes under a shared lock,
// initializing a missing file to an empty array first. The bytes are
// served to the public feed verbatim.
func (s *Store) ReadRaw(ctx context.Context) ([]byte, error) {
	if err := s.ensureExists(ctx); err != nil {
		return nil, err
	}

	lock := flock.New(s.lockPath())
	if err := s.acquire(ctx, lock, true); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return data, nil
}

// Save serializes the collection and atomically replaces the document.
// The new content is written to a uniquely named temp file in the same
// directory under an exclusive lock, synced, then renamed over the
// target so the destination is never half-written.
func (s *Store) Save(ctx context.Context, collection []events.Event) error {
	if collection == nil {
		collection = []events.Event{}
	}

	data, err := marshalCollection(collection)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	lock := flock.New(s.lockPath())
	if err := s.acquire(ctx, lock, false); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	return s.replace(data)
}

// marshalCollection pretty-prints the collection with HTML escaping
// disabled so URLs and non-ASCII text stay readable in the document.
func marshalCollection(collection []events.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(collection); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Store) replace(data []byte) error {
	tmp := fmt.Sprintf("%s.tmp.%s", s.path, ulid.MustNew(ulid.Now(), rand.Reader))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace events file: %w", err)
	}
	return nil
}

// ensureExists atomically initializes the document to an empty array
// when it does not exist yet.
func (s *Store) ensureExists(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat events file: %w", err)
	}

	lock := flock.New(s.lockPath())
	if err := s.acquire(ctx, lock, false); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	// Re-check under the lock; another process may have won the race.
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.replace([]byte("[]\n"))
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// acquire takes the advisory lock with a bounded wait. The caller's
// deadline still applies; the store timeout only bounds the lock wait.
func (s *Store) acquire(ctx context.Context, lock *flock.Flock, shared bool) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = lock.TryRLockContext(lockCtx, lockRetryInterval)
	} else {
		locked, err = lock.TryLockContext(lockCtx, lockRetryInterval)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire events file lock: %w", err)
	}
	if !locked {
		return ErrLockTimeout
	}
	return nil
}
