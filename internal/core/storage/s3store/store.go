package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/aevon-lab/winestats/internal/core/storage"
)

// Options configures the S3 client.
type Options struct {
	Bucket         string
	Region         string
	Endpoint       string // optional, for S3-compatible stores
	ForcePathStyle bool
}

// Store is an S3 backed implementation of storage.ArtifactStore.
type Store struct {
	bucket string
	s3     s3iface.S3API
}

var (
	_ storage.ArtifactStore = (*Store)(nil)
	_ storage.BucketScoped  = (*Store)(nil)
	_ storage.HealthChecker = (*Store)(nil)
)

// NewStore configures an S3 client from the default credential chain.
func NewStore(opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	cfg := aws.NewConfig().WithRegion(opts.Region)
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint)
	}
	if opts.ForcePathStyle {
		cfg = cfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	slog.Info("[S3] Client configured", "bucket", opts.Bucket, "region", opts.Region, "endpoint", opts.Endpoint)
	return New(s3.New(sess), opts.Bucket), nil
}

// New wraps an existing client. Used by tests to inject a fake S3API.
func New(client s3iface.S3API, bucket string) *Store {
	return &Store{bucket: bucket, s3: client}
}

// Bucket returns the bucket this store addresses.
func (s *Store) Bucket() string {
	return s.bucket
}

// WithBucket returns a store sharing the client but addressing another bucket.
func (s *Store) WithBucket(bucket string) storage.ArtifactStore {
	if bucket == s.bucket {
		return s
	}
	return &Store{bucket: bucket, s3: s.s3}
}

// Get downloads s3://bucket/key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve 's3://%s/%s': %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from S3 response for 's3://%s/%s': %w", s.bucket, key, err)
	}
	return data, nil
}

// Put uploads data to s3://bucket/key, overwriting any existing object.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.s3.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to store 's3://%s/%s': %w", s.bucket, key, err)
	}

	slog.Debug("[S3] Stored object", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}

// Ping verifies the bucket exists and is reachable with the current credentials.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.s3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("bucket %q unreachable: %w", s.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode() == http.StatusNotFound
	}
	return false
}
