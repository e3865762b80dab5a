// Package publish copies rendered reports to object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedScheme is returned for a destination that is neither s3:// nor gs://.
var ErrUnsupportedScheme = errors.New("unsupported publish scheme")

// Publisher stores a named artifact and returns its final URI.
type Publisher interface {
	Publish(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
}

// Location is a parsed bucket destination.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// Key joins the prefix and an artifact name into an object key.
func (l Location) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return path.Join(l.Prefix, name)
}

// URI is the full object URI of an artifact.
func (l Location) URI(name string) string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key(name))
}

// Parse splits an s3:// or gs:// URI into bucket and prefix.
func Parse(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("invalid publish URI: %w", err)
	}
	if u.Scheme != "s3" && u.Scheme != "gs" {
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("publish URI %q has no bucket", uri)
	}
	return Location{Scheme: u.Scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Open builds the publisher for uri using the ambient cloud credentials.
func Open(ctx context.Context, uri string) (Publisher, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return NewS3(s3.NewFromConfig(cfg), loc), nil
	default:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		return NewGCS(client.Bucket(loc.Bucket), loc), nil
	}
}
