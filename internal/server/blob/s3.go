// Package blob uploads file content to S3-compatible object storage and
// hands back an opaque reference the record service stores. The service
// never looks inside the reference.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	sc "github.com/avelichko/shelfdrive/internal/server/config"
	"github.com/avelichko/shelfdrive/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// Uploader stores a byte stream durably and returns its reference.
type Uploader interface {
	Upload(ctx context.Context, originalName string, content io.Reader) (*models.BlobRef, error)
}

// S3Uploader implements Uploader against an S3-compatible backend
// (MinIO in development).
type S3Uploader struct {
	config *sc.Config
}

// NewS3Uploader constructs an uploader from server configuration.
func NewS3Uploader(cfg *sc.Config) *S3Uploader {
	return &S3Uploader{config: cfg}
}

// RandomObjectKey produces a date-partitioned, collision-free object key.
func RandomObjectKey() string {
	d := time.Now()
	return fmt.Sprintf("files/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (u *S3Uploader) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.config.S3RootUser,
			u.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(u.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Upload streams content to the bucket under a fresh object key and
// returns the durable URL plus the client-supplied name.
func (u *S3Uploader) Upload(ctx context.Context, originalName string, content io.Reader) (*models.BlobRef, error) {
	client, err := u.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := u.config.S3Bucket
	key := RandomObjectKey()

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   content,
	}); err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return &models.BlobRef{
		URL:          u.objectURL(bucket, key),
		OriginalName: originalName,
	}, nil
}

func (u *S3Uploader) objectURL(bucket, key string) string {
	base := strings.TrimRight(u.config.S3BaseEndpoint, "/")
	return base + "/" + bucket + "/" + key
}
