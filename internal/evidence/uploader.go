// Package evidence stores captured stills in blob storage and bundles them
// for review.
package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/proctor/pkg/storage"
)

// ErrForeignRef indicates a media reference that does not point into the
// evidence store.
var ErrForeignRef = errors.New("media reference outside evidence store")

// Store maps session stills to blob keys and media references.
type Store struct {
	blobs  storage.System
	prefix string
	base   string
}

// NewStore creates a Store over blobs.
func NewStore(blobs storage.System, cfg *Config) *Store {
	return &Store{
		blobs:  blobs,
		prefix: cfg.KeyPrefix,
		base:   cfg.MediaBase,
	}
}

// Key returns the blob key for a still captured in a session.
func (s *Store) Key(sessionID uuid.UUID, name string) string {
	return path.Join(s.prefix, sessionID.String(), path.Base(name))
}

// Ref returns the media reference served for key.
func (s *Store) Ref(key string) string {
	return s.base + key
}

// KeyOf reverses Ref.
func (s *Store) KeyOf(ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, s.base)
	if !ok || !strings.HasPrefix(key, s.prefix+"/") {
		return "", fmt.Errorf("%w: %s", ErrForeignRef, ref)
	}
	return key, nil
}

// Uploader returns a proctor.Uploader bound to sessionID.
func (s *Store) Uploader(sessionID uuid.UUID) *Uploader {
	return &Uploader{store: s, sessionID: sessionID}
}

// Uploader writes a single session's stills.
type Uploader struct {
	store     *Store
	sessionID uuid.UUID
}

// Upload implements proctor.Uploader.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := u.store.Key(u.sessionID, name)
	if err := u.store.blobs.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", err
	}
	return u.store.Ref(key), nil
}
