package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Options configures an S3-compatible bucket (AWS or MinIO).
type S3Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// for tests
var loadDefaultAWSConfig = config.LoadDefaultConfig

// S3Backend stores images as objects in a bucket.
type S3Backend struct {
	client   putObjectAPI
	bucket   string
	region   string
	endpoint string
}

// NewS3Backend builds a path-style S3 client from static credentials.
func NewS3Backend(ctx context.Context, o S3Options) (*S3Backend, error) {
	if o.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(opt *s3.Options) {
		if o.BaseEndpoint != "" {
			opt.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opt.UsePathStyle = true
	})

	return newS3Backend(client, o.Bucket, o.Region, o.BaseEndpoint), nil
}

func newS3Backend(client putObjectAPI, bucket, region, endpoint string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, region: region, endpoint: strings.TrimRight(endpoint, "/")}
}

// Put uploads with If-None-Match so an existing key is never replaced.
func (b *S3Backend) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(name),
		Body:        r,
		IfNoneMatch: aws.String("*"),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	_, err := b.client.PutObject(ctx, in)
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return ErrExists
		}
	}
	return fmt.Errorf("put object %s: %w", name, err)
}

// URL is path-style under a custom endpoint (MinIO), virtual-hosted on AWS.
func (b *S3Backend) URL(name string) string {
	if b.endpoint == "" {
		return "https://" + b.bucket + ".s3." + b.region + ".amazonaws.com/" + url.PathEscape(name)
	}
	return b.endpoint + "/" + url.PathEscape(b.bucket) + "/" + url.PathEscape(name)
}
