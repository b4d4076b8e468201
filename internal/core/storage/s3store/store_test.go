package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/winestats/internal/core/storage"
)

// mockS3 mimics an S3 blob store for testing.
type mockS3 struct {
	sync.RWMutex
	buckets      map[string]map[string][]byte
	contentTypes map[string]string
	getErr       error
	s3iface.S3API
}

func newMockS3(buckets ...string) *mockS3 {
	m := &mockS3{
		buckets:      map[string]map[string][]byte{},
		contentTypes: map[string]string{},
	}
	for _, b := range buckets {
		m.buckets[b] = map[string][]byte{}
	}
	return m
}

func (m *mockS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.Lock()
	defer m.Unlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "bucket does not exist", nil)
	}
	bucket[*in.Key] = data
	m.contentTypes[*in.Bucket+"/"+*in.Key] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.RLock()
	defer m.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "bucket does not exist", nil)
	}
	data, ok := bucket[*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, fmt.Sprintf("key '%s' does not exist", *in.Key), nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) HeadBucketWithContext(_ aws.Context, in *s3.HeadBucketInput, _ ...request.Option) (*s3.HeadBucketOutput, error) {
	m.RLock()
	defer m.RUnlock()

	if _, ok := m.buckets[*in.Bucket]; !ok {
		return nil, awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "req-1")
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestStore_ReadWrite(t *testing.T) {
	client := newMockS3("dataka")
	store := New(client, "dataka")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "high_quality_average.json", []byte(`{"high_average_quality":7.5}`), storage.ContentTypeJSON))
	require.Equal(t, storage.ContentTypeJSON, client.contentTypes["dataka/high_quality_average.json"])

	got, err := store.Get(ctx, "high_quality_average.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"high_average_quality":7.5}`, string(got))
}

func TestStore_GetMissingKeyIsNotFound(t *testing.T) {
	store := New(newMockS3("dataka"), "dataka")

	_, err := store.Get(context.Background(), "winequality-red.csv")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.Contains(t, err.Error(), "s3://dataka/winequality-red.csv")
}

func TestStore_GetTransportErrorIsNotNotFound(t *testing.T) {
	client := newMockS3("dataka")
	client.getErr = awserr.New("RequestError", "send request failed", nil)
	store := New(client, "dataka")

	_, err := store.Get(context.Background(), "winequality-red.csv")
	require.Error(t, err)
	require.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_WithBucket(t *testing.T) {
	client := newMockS3("dataka", "other")
	store := New(client, "dataka")
	ctx := context.Background()

	require.Same(t, store, store.WithBucket("dataka"))

	other := store.WithBucket("other")
	require.NoError(t, other.Put(ctx, "k", []byte("v"), ""))
	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := other.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))
}

func TestStore_Ping(t *testing.T) {
	client := newMockS3("dataka")
	require.NoError(t, New(client, "dataka").Ping(context.Background()))
	require.Error(t, New(client, "missing").Ping(context.Background()))
}

func TestIsNotFound(t *testing.T) {
	require.True(t, isNotFound(awserr.New(s3.ErrCodeNoSuchKey, "", nil)))
	require.True(t, isNotFound(awserr.NewRequestFailure(awserr.New("Forbidden", "", nil), 404, "r")))
	require.False(t, isNotFound(awserr.NewRequestFailure(awserr.New("Forbidden", "", nil), 403, "r")))
	require.False(t, isNotFound(fmt.Errorf("boom")))
}

func TestNewStore_RequiresBucket(t *testing.T) {
	_, err := NewStore(Options{Region: "eu-north-1"})
	require.Error(t, err)
}
