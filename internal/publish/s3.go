package publish

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client is the part of the S3 API the publisher needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3Client = (*s3.Client)(nil)

// S3 publishes artifacts to an S3 bucket prefix.
type S3 struct {
	client S3Client
	loc    Location
}

// NewS3 creates a publisher writing under loc.
func NewS3(client S3Client, loc Location) *S3 {
	return &S3{client: client, loc: loc}
}

func (p *S3) Publish(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	key := p.loc.Key(name)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.loc.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", p.loc.Bucket, key, err)
	}
	uri := p.loc.URI(name)
	log.Info().Str("uri", uri).Msg("Published report")
	return uri, nil
}
