package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// UsePathStyle is needed by most S3-compatible servers such as MinIO.
	UsePathStyle bool
}

// S3Backend keeps objects in an S3 bucket.
type S3Backend struct {
	client *s3.Client
	bucket *string
}

func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load s3 config")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Backend{
		client: client,
		bucket: aws.String(cfg.Bucket),
	}, nil
}

func (b *S3Backend) Put(ctx context.Context, key, contentType string, content io.Reader) error {
	uploader := manager.NewUploader(b.client)
	input := &s3.PutObjectInput{
		Bucket: b.bucket,
		Key:    aws.String(key),
		Body:   content,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := uploader.Upload(ctx, input); err != nil {
		return errors.Wrap(err, "failed to upload object")
	}
	return nil
}

func (b *S3Backend) Open(ctx context.Context, key string, limit int64) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: b.bucket,
		Key:    aws.String(key),
	}
	if limit > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=0-%d", limit-1))
	}

	output, err := b.client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		// A ranged read of an empty object is rejected instead of returning nothing.
		var apiErr interface{ ErrorCode() string }
		if limit > 0 && errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return io.NopCloser(strings.NewReader("")), nil
		}
		return nil, errors.Wrap(err, "failed to get object")
	}
	return output.Body, nil
}
