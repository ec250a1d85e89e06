package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucket = "neuronwatch" // key: store key -> JSON blob

// BoltStore keeps values in a single bbolt bucket. bbolt holds an exclusive
// file lock, so only one process can have the store open.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (store *BoltStore) Path() string {
	return store.path
}

// Close releases the file lock.
func (store *BoltStore) Close() error {
	return store.db.Close()
}

func (store *BoltStore) Load(key string) (string, error) {
	var value string
	err := store.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if raw != nil {
			value = string(raw)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func (store *BoltStore) Save(key, value string) error {
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (store *BoltStore) Remove(key string) error {
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
