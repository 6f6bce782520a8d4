package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/noah-isme/lapanclass-api/pkg/config"
)

// OSSStorage stores proof files in an Alibaba Cloud OSS bucket.
type OSSStorage struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	publicBase string
	prefix     string
}

// NewOSSStorage connects to the configured bucket.
func NewOSSStorage(cfg config.OSSConfig) (*OSSStorage, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("oss endpoint, access key, secret key and bucket are required")
	}

	var (
		client *oss.Client
		err    error
	)
	if cfg.SecurityToken != "" {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, oss.SecurityToken(cfg.SecurityToken))
	} else {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("create oss client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open oss bucket %s: %w", cfg.Bucket, err)
	}

	return &OSSStorage{
		bucket:     bucket,
		endpoint:   cfg.Endpoint,
		bucketName: cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
		prefix:     strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Upload puts the object under the configured prefix and returns the key relative to that prefix.
func (s *OSSStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := s.bucket.PutObject(s.objectKey(cleaned), r, opts...); err != nil {
		return "", fmt.Errorf("put oss object: %w", err)
	}
	return cleaned, nil
}

// PublicURL returns the bucket URL of the key.
func (s *OSSStorage) PublicURL(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return publicObjectURL(s.publicBase, s.endpoint, s.bucketName, s.objectKey(cleaned)), nil
}

// Delete removes the object.
func (s *OSSStorage) Delete(ctx context.Context, key string) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.bucket.DeleteObject(s.objectKey(cleaned), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete oss object: %w", err)
	}
	return nil
}

func (s *OSSStorage) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func publicObjectURL(publicBase, endpoint, bucket, objectKey string) string {
	if publicBase != "" {
		return publicBase + "/" + objectKey
	}
	host := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", bucket, strings.TrimRight(host, "/"), objectKey)
}
