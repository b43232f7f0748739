// Package blob stores uploaded document bytes so the processing pipeline
// can run asynchronously from the upload request.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
)

// Store is the object storage surface the pipeline needs.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config holds S3-compatible object storage settings.
type Config struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// New returns a minio-backed store when an endpoint is configured and an
// in-memory store otherwise.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Endpoint == "" {
		return NewMemory(), nil
	}
	return NewMinio(ctx, cfg)
}

// MinioStore keeps objects in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the configured endpoint and creates the bucket when
// it does not exist yet.
func NewMinio(ctx context.Context, cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "blob: connect minio")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, eris.Wrapf(err, "blob: create bucket %s", cfg.Bucket)
		}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", eris.Wrapf(err, "blob: put %s", key)
	}
	return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
}

func (m *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "blob: get %s", key)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: read %s", key)
	}
	return data, nil
}

// MemoryStore holds objects in process memory. It backs local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = cp
	return "mem://" + key, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, eris.Errorf("blob: object not found: %s", key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
