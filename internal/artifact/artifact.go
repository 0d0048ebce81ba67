// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package artifact

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/citadel-reports/internal/config"
	"github.com/tomtom215/citadel-reports/internal/keymutex"
	"github.com/tomtom215/citadel-reports/internal/logging"
	"github.com/tomtom215/citadel-reports/internal/metrics"
)

// Object attributes applied to every stored artifact, whatever its format.
const (
	KeyPrefix          = "reports/"
	ContentType        = "application/octet-stream"
	ContentDisposition = "attachment"
)

// keyDateLayout renders the date part of an artifact key.
const keyDateLayout = "1-2-2006"

// ErrEmptyKey is returned when an artifact key is empty.
var ErrEmptyKey = errors.New("artifact key is empty")

// Backend writes objects to durable storage. Put overwrites an existing
// object at the same path.
type Backend interface {
	Put(ctx context.Context, path string, data []byte) error
	Name() string
}

// NewKey builds an artifact key "<label> (<8 hex>) - <M-D-YYYY>.<ext>".
func NewKey(label, ext string, now time.Time) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("artifact key: %w", err)
	}
	return fmt.Sprintf("%s (%s) - %s.%s", label, hex.EncodeToString(b[:]), now.Format(keyDateLayout), ext), nil
}

// PublicURL joins the public root and the escaped key.
func PublicURL(root, key string) string {
	return root + url.PathEscape(key)
}

// Store persists report artifacts. Uploads of the same key are serialized
// and every upload passes through a circuit breaker.
type Store struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker[struct{}]
	locks   *keymutex.KeyedMutex
	name    string
}

// BreakerConfig tunes the upload circuit breaker.
type BreakerConfig struct {
	// Failures is the consecutive failure count that opens the circuit.
	Failures uint32

	// Timeout is how long the circuit stays open before a trial upload.
	Timeout time.Duration
}

// NewStore wraps backend.
func NewStore(backend Backend, locks *keymutex.KeyedMutex, bc BreakerConfig) *Store {
	name := "artifact-" + backend.Name()
	return &Store{
		backend: backend,
		breaker: newBreaker(name, bc),
		locks:   locks,
		name:    name,
	}
}

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.ArtifactsConfig, locks *keymutex.KeyedMutex) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "", "filesystem":
		backend, err = NewFilesystemBackend(cfg.Directory)
	case "s3":
		backend, err = NewS3Backend(ctx, cfg.S3)
	default:
		err = fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(backend, locks, BreakerConfig{Failures: cfg.BreakerFailures, Timeout: cfg.BreakerTimeout}), nil
}

// Put stores data under KeyPrefix+key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	path := KeyPrefix + key
	return s.locks.WithLock(ctx, "artifact:"+key, func() error {
		start := time.Now()
		_, err := s.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, s.backend.Put(ctx, path, data)
		})
		took := time.Since(start)
		metrics.RecordUpload(s.backend.Name(), took, err)
		recordBreakerResult(s.name, s.breaker, err)

		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		logging.Ctx(ctx).Debug().
			Str("backend", s.backend.Name()).
			Str("path", path).
			Int("bytes", len(data)).
			Dur("took", took).
			Msg("Artifact uploaded")
		return nil
	})
}

// Backend returns the name of the underlying backend.
func (s *Store) Backend() string { return s.backend.Name() }
