package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/saucerest/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const uploadBucket = "uploads"

var errBucketMissing = errors.New("upload bucket missing")

// storedRecord is the on-disk value: the record plus its expiry.
type storedRecord struct {
	Record    domain.UploadRecord `json:"record"`
	ExpiresAt int64               `json:"expires_at"`
}

// boltLedger implements a Ledger backed by BoltDB.
type boltLedger struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	recordTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Ledger.
func openBolt(path string, opts Options) (*boltLedger, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(uploadBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	l := &boltLedger{
		db:              db,
		recordTTL:       opts.RecordTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	l.lastCleanup.Store(l.now().Unix())
	return l, nil
}

// Close closes the BoltDB ledger.
func (b *boltLedger) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Lookup returns the live record for name. Expired records are removed.
func (b *boltLedger) Lookup(name string) (domain.UploadRecord, bool, error) {
	if b == nil || b.db == nil {
		return domain.UploadRecord{}, false, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.UploadRecord{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return domain.UploadRecord{}, false, err
	}

	var (
		rec   domain.UploadRecord
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return errBucketMissing
		}

		key := []byte(name)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		stored, ok := decodeRecord(value)
		if !ok || !time.Unix(stored.ExpiresAt, 0).After(now) {
			return bucket.Delete(key)
		}

		rec, found = stored.Record, true
		return nil
	})
	return rec, found, err
}

// Record stores rec under rec.Name with a fresh expiry.
func (b *boltLedger) Record(rec domain.UploadRecord) error {
	if b == nil || b.db == nil {
		return nil
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return fmt.Errorf("upload record requires a name")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = now.UTC()
	}

	payload, err := json.Marshal(storedRecord{Record: rec, ExpiresAt: now.Add(b.recordTTL).Unix()})
	if err != nil {
		return fmt.Errorf("encode upload record: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(rec.Name), payload)
	})
}

// Forget drops the record for name, if any.
func (b *boltLedger) Forget(name string) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Delete([]byte(strings.TrimSpace(name)))
	})
}

// maybeCleanupExpired removes expired records on a fixed cadence to avoid unbounded growth.
func (b *boltLedger) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucket))
		if bucket == nil {
			return errBucketMissing
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			stored, ok := decodeRecord(v)
			if !ok || !time.Unix(stored.ExpiresAt, 0).After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeRecord decodes a stored value; corrupt or expiry-less values are rejected.
func decodeRecord(value []byte) (storedRecord, bool) {
	var stored storedRecord
	if err := json.Unmarshal(value, &stored); err != nil {
		return storedRecord{}, false
	}
	if stored.ExpiresAt <= 0 {
		return storedRecord{}, false
	}
	return stored, true
}
