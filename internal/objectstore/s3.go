package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store implements ObjectStore using AWS S3.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure S3Store implements ObjectStore.
var _ ObjectStore = (*S3Store)(nil)

// NewS3Store creates a new S3-backed object store.
// The context is used for AWS credential loading and configuration.
func NewS3Store(ctx context.Context, opts ...Option) (*S3Store, error) {
	o := &options{
		region:  "us-east-1",
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	awsCfg, err := buildAWSConfig(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("build aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(opts *s3.Options) {
		if o.endpoint != "" {
			opts.BaseEndpoint = aws.String(o.endpoint)
			opts.UsePathStyle = o.usePathStyle
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  o.bucket,
		timeout: o.timeout,
		logger:  o.logger,
	}, nil
}

// buildAWSConfig builds AWS config based on authentication options.
func buildAWSConfig(ctx context.Context, o *options) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	optFns = append(optFns, awsconfig.WithRegion(o.region))

	if o.accessKey != "" && o.secretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, o.sessionToken)
		optFns = append(optFns, awsconfig.WithCredentialsProvider(creds))
	}
	// Otherwise the default credential chain applies (env vars, shared
	// config, IAM role on EC2/EKS, ECS task role).

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// Put uploads content to S3 under the given key.
func (s *S3Store) Put(ctx context.Context, key, contentType string, content io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   content,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w: %w", key, ErrUnavailable, err)
	}

	s.logger.Debug("uploaded object", "bucket", s.bucket, "key", key)
	return nil
}

// PresignGet issues a signed GET URL valid for ttl from issuance.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w: %w", key, ErrUnavailable, err)
	}

	return req.URL, nil
}

// Delete removes the object from S3.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w: %w", key, ErrUnavailable, err)
	}

	s.logger.Debug("deleted object", "bucket", s.bucket, "key", key)
	return nil
}

// Check verifies the bucket exists and is reachable with the current
// credentials.
func (s *S3Store) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %q: %w: %w", s.bucket, ErrUnavailable, err)
	}
	return nil
}
