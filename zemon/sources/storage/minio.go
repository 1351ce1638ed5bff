package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"zemon/zemon/config"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// SearchObject is what gets stored per cached query.
type SearchObject struct {
	Query     string          `json:"query"`
	Results   json.RawMessage `json:"results"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket, ttl: cfg.SearchCacheTTL}, nil
}

// objectKey hashes the query so it is safe as an object name.
func objectKey(query string) string {
	return path.Join("searches", fmt.Sprintf("%x.json", md5.Sum([]byte(query))))
}

// Get returns cached results for query. Objects older than the TTL count as
// misses.
func (m *MinIOClient) Get(ctx context.Context, query string) ([]byte, bool, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey(query), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, err
	}
	var so SearchObject
	if err := json.Unmarshal(data, &so); err != nil {
		return nil, false, err
	}
	if m.ttl > 0 && time.Since(so.Timestamp) > m.ttl {
		return nil, false, nil
	}
	return so.Results, true, nil
}

func (m *MinIOClient) Set(ctx context.Context, query string, results []byte) error {
	data, err := json.Marshal(SearchObject{Query: query, Results: results, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, m.bucket, objectKey(query), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}
