package kvdb

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sumitmalik51/gitsecureops/config"
	"github.com/sumitmalik51/gitsecureops/logger"
	bolt "go.etcd.io/bbolt"
)

type BoltDB struct {
	store  *bolt.DB
	logger logger.Logger
}

const boltDefaultBucket = "default"

func New(logger logger.Logger, cfg *config.Config) (*BoltDB, error) {
	kvDBPath := cfg.GetKVDBPath()
	if err := os.MkdirAll(filepath.Dir(kvDBPath), 0755); err != nil {
		logger.Error("failed to create key-value database directory", "err", err.Error(), "path", kvDBPath)
		return nil, fmt.Errorf("failed to create key-value database directory: %w", err)
	}

	store, err := bolt.Open(kvDBPath, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		logger.Error("failed to open database", "err", err.Error(), "path", kvDBPath)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	boltDB := &BoltDB{
		store:  store,
		logger: logger,
	}

	if err := boltDB.initBucket(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return boltDB, nil
}

func (b *BoltDB) initBucket() error {
	return b.store.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltDefaultBucket))
		if err != nil {
			b.logger.Error("failed to create bucket", "err", err.Error())
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
}

func (b *BoltDB) Set(key string, value string) error {
	if key == "" {
		b.logger.Error("key cannot be empty", "key", key)
		return &InvalidKeyError{
			Key:    key,
			Reason: "key cannot be empty",
		}
	}

	return b.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(boltDefaultBucket))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", boltDefaultBucket)
			return fmt.Errorf("bucket not found")
		}

		err := bucket.Put([]byte(key), []byte(value))
		if err != nil {
			b.logger.Error("failed to set key", "key", key, "err", err.Error())
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}

		return nil
	})
}

func (b *BoltDB) Get(key string) (string, error) {
	if key == "" {
		b.logger.Error("key cannot be empty", "key", key)
		return "", &InvalidKeyError{
			Key:    key,
			Reason: "key cannot be empty",
		}
	}

	var value []byte
	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(boltDefaultBucket))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", boltDefaultBucket)
			return fmt.Errorf("bucket not found")
		}

		v := bucket.Get([]byte(key))
		if v == nil {
			return &NotFoundError{Key: key}
		}

		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})

	if err != nil {
		var notFoundErr *NotFoundError
		if errors.As(err, &notFoundErr) {
			b.logger.Warn("key not found", "key", key)
			return "", notFoundErr
		}
		return "", err
	}

	return string(value), nil
}

// List returns up to limit entries whose keys start with prefix, newest
// key first (keys are expected to embed a sortable timestamp). The scan
// only touches the prefix region of the bucket.
func (b *BoltDB) List(prefix string, limit int) ([]Entry, error) {
	var entries []Entry

	err := b.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(boltDefaultBucket))
		if bucket == nil {
			b.logger.Error("bucket not found", "bucket", boltDefaultBucket)
			return fmt.Errorf("bucket not found")
		}

		prefixBytes := []byte(prefix)
		cursor := bucket.Cursor()

		// Start at the last key inside the prefix region: seek to the
		// smallest key past the region and step back once.
		var k, v []byte
		if bound := prefixUpperBound(prefixBytes); bound != nil {
			if k, _ = cursor.Seek(bound); k == nil {
				k, v = cursor.Last()
			} else {
				k, v = cursor.Prev()
			}
		} else {
			k, v = cursor.Last()
		}

		for ; k != nil && bytes.HasPrefix(k, prefixBytes); k, v = cursor.Prev() {
			entries = append(entries, Entry{Key: string(k), Value: string(v)})
			if limit > 0 && len(entries) >= limit {
				break
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return entries, nil
}

// prefixUpperBound is the smallest byte string greater than every key
// carrying the prefix, or nil when no finite bound exists.
func prefixUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] < 0xff {
			bound[i]++
			return bound[:i+1]
		}
	}
	return nil
}

func (b *BoltDB) Close() error {
	if err := b.store.Close(); err != nil {
		b.logger.Error("failed to close key-value database", "err", err.Error())
		return err
	}
	return nil
}
