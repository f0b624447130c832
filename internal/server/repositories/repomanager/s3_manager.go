package repomanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/elibrary/internal/server/repositories/accounts"
)

// S3Options configures the S3-compatible account store.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type bucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3RepositoryManager stores account documents in an S3 bucket.
type S3RepositoryManager struct {
	objects accounts.S3API
	buckets bucketAPI
	bucket  string
}

// NewS3RepositoryManager builds an S3 client with static credentials. A
// non-empty BaseEndpoint switches to path-style addressing, as MinIO needs.
func NewS3RepositoryManager(ctx context.Context, opts S3Options) (*S3RepositoryManager, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3RepositoryManager{objects: client, buckets: client, bucket: opts.Bucket}, nil
}

func (m *S3RepositoryManager) Accounts() accounts.Repository {
	return accounts.NewS3Repository(m.objects, m.bucket)
}

func (m *S3RepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return fn(ctx, m.Accounts())
}

// RunMigrations creates the bucket when it does not exist yet.
func (m *S3RepositoryManager) RunMigrations(ctx context.Context) error {
	_, err := m.buckets.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var apiErr smithy.APIError
	if !errors.As(err, &notFound) && !(errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket") {
		return fmt.Errorf("s3 head bucket: %w", err)
	}

	if _, err := m.buckets.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(m.bucket)}); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("s3 create bucket: %w", err)
	}

	return nil
}

func (m *S3RepositoryManager) Close() error { return nil }
