package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/JaimeStill/proctor/internal/proctor"
)

// ErrNoEvidence indicates a bundle was requested for a session without stills.
var ErrNoEvidence = errors.New("session has no evidence")

// Bundle writes every still in items to w as a PDF, one image per page,
// in capture order. Stills that cannot be fetched are skipped and logged.
func (s *Store) Bundle(ctx context.Context, items []proctor.Evidence, w io.Writer, logger *slog.Logger) error {
	images := make([]io.Reader, 0, len(items))

	for _, item := range items {
		data, err := s.fetch(ctx, item.MediaRef)
		if err != nil {
			logger.Warn("evidence still skipped", "media_ref", item.MediaRef, "error", err)
			continue
		}
		images = append(images, bytes.NewReader(data))
	}

	if len(images) == 0 {
		return ErrNoEvidence
	}

	if err := api.ImportImages(nil, w, images, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return fmt.Errorf("build evidence pdf: %w", err)
	}
	return nil
}

func (s *Store) fetch(ctx context.Context, ref string) ([]byte, error) {
	key, err := s.KeyOf(ref)
	if err != nil {
		return nil, err
	}

	blob, err := s.blobs.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer blob.Body.Close()

	return io.ReadAll(blob.Body)
}
