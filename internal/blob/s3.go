// Package blob stores binary objects in S3-compatible object storage.
// Profile pictures live here rather than in the database so they can be
// served straight from the bucket (or a CDN in front of it).
package blob

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds the connection settings for an S3-compatible endpoint
// (AWS S3 or MinIO).
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the base for object URLs handed to clients, e.g.
	// "https://minio.example.org/site-assets". Defaults to Endpoint/Bucket.
	PublicBaseURL string
}

// S3Store implements object storage on the AWS SDK. Safe for concurrent
// use.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// New builds an S3Store from the config. Credentials are static (MinIO
// root user or an AWS access key pair).
func New(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("blob: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Put uploads the object under a date-partitioned random key and returns
// its public URL.
func (s *S3Store) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	key := objectKey(mimeType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("blob: putting object %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete removes an object by the public URL Put returned. URLs outside
// this store's base are ignored so stale external links can't trigger
// bucket deletes.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blob: deleting object %s: %w", key, err)
	}
	return nil
}

// objectKey builds a date-partitioned key with a random UUID and an
// extension derived from the MIME type, e.g. "profiles/2026/9/1/<uuid>.png".
func objectKey(mimeType string) string {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[len(exts)-1]
	}
	now := time.Now().UTC()
	return fmt.Sprintf("profiles/%d/%d/%d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}
