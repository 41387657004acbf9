package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var attemptsBucket = []byte("failed_attempts")

// Attempt is the failure history of one post id.
type Attempt struct {
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error"`
	LastSeen  time.Time `json:"last_seen"`
}

// AttemptLedger counts failed extraction attempts per post id so a post that
// never renders is not retried forever.
type AttemptLedger struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenAttemptLedger opens (or creates) the bbolt file at path.
func OpenAttemptLedger(path string) (*AttemptLedger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("attempt ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open attempt ledger: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(attemptsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init attempt ledger: %w", err)
	}

	return &AttemptLedger{db: db, now: time.Now}, nil
}

// Get returns the recorded attempt for id, or the zero Attempt.
func (l *AttemptLedger) Get(id string) (Attempt, error) {
	var a Attempt
	err := l.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(attemptsBucket).Get([]byte(id))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &a)
	})
	if err != nil {
		return Attempt{}, fmt.Errorf("read attempt %q: %w", id, err)
	}
	return a, nil
}

// Failures returns how many times id has failed.
func (l *AttemptLedger) Failures(id string) (int, error) {
	a, err := l.Get(id)
	return a.Failures, err
}

// RecordFailure bumps the failure count for id and returns the new count.
func (l *AttemptLedger) RecordFailure(id string, cause error) (int, error) {
	var count int
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(attemptsBucket)
		var a Attempt
		if raw := b.Get([]byte(id)); raw != nil {
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
		}
		a.Failures++
		a.LastSeen = l.now().UTC()
		if cause != nil {
			a.LastError = cause.Error()
		}
		count = a.Failures

		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), raw)
	})
	if err != nil {
		return 0, fmt.Errorf("record attempt %q: %w", id, err)
	}
	return count, nil
}

// Clear forgets the failure history of id.
func (l *AttemptLedger) Clear(id string) error {
	if err := l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(attemptsBucket).Delete([]byte(id))
	}); err != nil {
		return fmt.Errorf("clear attempt %q: %w", id, err)
	}
	return nil
}

// Close releases the bbolt file lock.
func (l *AttemptLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
