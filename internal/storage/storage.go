package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/saucerest/internal/domain"
)

// Package storage keeps a local ledger of files uploaded to temporary storage.

// Ledger remembers recent uploads so unchanged files are not sent twice.
type Ledger interface {
	Close() error
	Lookup(name string) (domain.UploadRecord, bool, error)
	Record(rec domain.UploadRecord) error
	Forget(name string) error
}

// Options controls retention characteristics for concrete ledger implementations.
type Options struct {
	RecordTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	// Temporary storage keeps files for about a week.
	defaultRecordTTL       = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewLedger creates the configured ledger backend.
func NewLedger(typ, path string, opts Options) (Ledger, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopLedger{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt ledger requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported ledger type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = defaultRecordTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopLedger struct{}

func (noopLedger) Close() error { return nil }
func (noopLedger) Lookup(string) (domain.UploadRecord, bool, error) {
	return domain.UploadRecord{}, false, nil
}
func (noopLedger) Record(domain.UploadRecord) error { return nil }
func (noopLedger) Forget(string) error              { return nil }
