package objectstore

import (
	"log/slog"
	"time"
)

// options holds S3 store configuration.
type options struct {
	bucket       string
	region       string
	endpoint     string
	usePathStyle bool
	accessKey    string
	secretKey    string
	sessionToken string
	timeout      time.Duration
	logger       *slog.Logger
}

// Option configures the S3 store.
type Option func(*options)

// WithBucket sets the bucket name (required).
func WithBucket(bucket string) Option {
	return func(o *options) { o.bucket = bucket }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint (MinIO, LocalStack).
func WithEndpoint(endpoint string, pathStyle bool) Option {
	return func(o *options) {
		o.endpoint = endpoint
		o.usePathStyle = pathStyle
	}
}

// WithStaticCredentials sets access key authentication. When unset the
// SDK default credential chain is used (env vars, shared config, IAM).
func WithStaticCredentials(accessKey, secretKey, sessionToken string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
		o.sessionToken = sessionToken
	}
}

// WithTimeout bounds every store call. Calls exceeding it fail with
// ErrUnavailable.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
