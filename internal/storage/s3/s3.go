// Package s3 implements storage.ObjectStore on any S3-compatible backend.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/otabek/ijara/internal/storage"
)

// compile-time check that *Store implements storage.ObjectStore
var _ storage.ObjectStore = (*Store)(nil)

// Config holds the settings for one bucket.
//
// PublicBaseURL is the prefix under which uploaded objects are publicly
// reachable, including the bucket segment if the backend serves objects
// that way (e.g. "http://127.0.0.1:9000/houses" for MinIO). PublicURL
// simply joins it with the object key.
type Config struct {
	Endpoint      string // base endpoint, e.g. "http://127.0.0.1:9000"
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Store talks to a single bucket of an S3-compatible object store.
type Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// New builds the AWS client with static credentials and an overridden base
// endpoint. Path-style addressing is forced because self-hosted backends
// (MinIO and friends) do not resolve bucket subdomains.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores body under key.
//
// IfNoneMatch: "*" makes the PUT conditional on the key not existing yet —
// the S3 equivalent of the "do not overwrite" upload flag. A colliding key
// fails with a precondition error instead of clobbering someone's image.
// CacheControl lets clients and CDNs cache listing images for an hour.
func (s *Store) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
		IfNoneMatch:  aws.String("*"),
	})
	if err != nil {
		return fmt.Errorf("s3: putting object %s: %w", key, err)
	}
	return nil
}

// PublicURL joins the configured public base with the object key.
func (s *Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}
