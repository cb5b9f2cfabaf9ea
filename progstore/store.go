// Package progstore keeps compiled programs in a bolt database so an
// unchanged scene does not have to be compiled again.
//
// Programs are keyed by a digest of the scene document and the directory
// its files resolve against. A stored program is trusted as is: the file
// checks and generator runs of compilation are skipped, and a model that
// went missing since surfaces as a resource error on the first frame.
package progstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/coreos/bbolt"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/program"
)

const (
	// Perm is the mode of a newly created database file.
	Perm = 0o600

	openTimeout = 3 * time.Second
)

var bucketPrograms = []byte("programs")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("progstore: store is closed")

// Store is a program database. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path. Parent directories are
// created as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &xscene.ResourceError{Op: "open store", Path: path, Err: err}
	}
	db, err := bolt.Open(path, Perm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, &xscene.ResourceError{Op: "open store", Path: path, Err: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrograms)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &xscene.ResourceError{Op: "open store", Path: path, Err: err}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file.
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

// Key derives the store key of a scene document compiled against baseDir.
func Key(scene []byte, baseDir string) string {
	h := fnv.New64a()
	h.Write([]byte(xscene.Version))
	h.Write([]byte{0})
	h.Write([]byte(filepath.Clean(baseDir)))
	h.Write([]byte{0})
	h.Write(scene)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the program stored under key. ok is false when there is
// none.
func (s *Store) Get(key string) (p *program.Program, ok bool, err error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var data []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketPrograms).Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, false, err
	}

	p = &program.Program{}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, false, fmt.Errorf("progstore: entry %s: %w", key, err)
	}
	return p, true, nil
}

// Put stores p under key, replacing any previous entry.
func (s *Store) Put(key string, p *program.Program) error {
	if s.db == nil {
		return ErrClosed
	}
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrograms).Put([]byte(key), data)
	})
}

// Delete removes the entry under key, if any.
func (s *Store) Delete(key string) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrograms).Delete([]byte(key))
	})
}

// Len returns the number of stored programs.
func (s *Store) Len() (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketPrograms).Stats().KeyN
		return nil
	})
	return n, err
}
