package publish

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
)

// GCS publishes artifacts to a Cloud Storage bucket prefix.
type GCS struct {
	bucket *storage.BucketHandle
	loc    Location
}

// NewGCS creates a publisher writing under loc.
func NewGCS(bucket *storage.BucketHandle, loc Location) *GCS {
	return &GCS{bucket: bucket, loc: loc}
}

func (p *GCS) Publish(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	key := p.loc.Key(name)
	w := p.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", gcsError(key, err)
	}
	if err := w.Close(); err != nil {
		return "", gcsError(key, err)
	}
	uri := p.loc.URI(name)
	log.Info().Str("uri", uri).Msg("Published report")
	return uri, nil
}

func gcsError(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return fmt.Errorf("not allowed to write gs object %s (status %d): %w", key, gerr.Code, err)
		case 404:
			return fmt.Errorf("bucket for gs object %s not found: %w", key, err)
		}
	}
	return fmt.Errorf("failed to write gs object %s: %w", key, err)
}
