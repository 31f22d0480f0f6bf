package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"

	config "github.com/msaleh83/pagepilot/configs"
)

// S3Backend stores media in any S3-compatible bucket: Cloudflare R2, MinIO
// or AWS itself, selected purely by the configured endpoint.
type S3Backend struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func NewS3Backend(cfg config.Config) (*S3Backend, error) {
	if cfg.S3.BucketName == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")),
		awsconfig.WithRegion(cfg.S3.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true // MinIO and most self-hosted endpoints
		}
	})

	return &S3Backend{client: client, bucket: cfg.S3.BucketName, endpoint: strings.TrimRight(cfg.S3.Endpoint, "/")}, nil
}

func (b *S3Backend) Name() string { return "s3" }

func (b *S3Backend) Upload(ctx context.Context, data []byte, name string) (*Object, error) {
	key := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind.MIME.Value != "" {
		contentType = kind.MIME.Value
	}

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &Object{
		ID:   key,
		URL:  fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, key),
		Size: int64(len(data)),
	}, nil
}

func (b *S3Backend) Delete(ctx context.Context, id string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

// Quota sums object sizes in the bucket; S3 has no quota API so Total is
// reported as zero (unlimited).
func (b *S3Backend) Quota(ctx context.Context) (*Quota, error) {
	var used int64
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", b.bucket, err)
		}
		for _, obj := range page.Contents {
			used += aws.ToInt64(obj.Size)
		}
	}
	return &Quota{Used: used}, nil
}
