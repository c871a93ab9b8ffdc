package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/slackmgr/todos"
)

// MaxExpiry is the longest expiry S3 accepts for a presigned URL.
const MaxExpiry = 7 * 24 * time.Hour

// PresignAPI is the subset of the S3 presign client used by [Issuer]. It is
// satisfied by [*s3.PresignClient].
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	_ PresignAPI         = (*s3.PresignClient)(nil)
	_ todos.UploadIssuer = (*Issuer)(nil)
)

// Option is a functional option for configuring an [Issuer].
type Option func(*Options)

// Options holds the configuration for an [Issuer].
type Options struct {
	presignAPI PresignAPI
	logger     *slog.Logger
}

func newOptions() *Options {
	return &Options{
		logger: slog.New(slog.DiscardHandler),
	}
}

func (o *Options) validate() error {
	if o.logger == nil {
		return errors.New("logger cannot be nil")
	}

	return nil
}

// WithPresignAPI sets a custom [PresignAPI] implementation, typically a mock.
func WithPresignAPI(api PresignAPI) Option {
	return func(o *Options) {
		o.presignAPI = api
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// Issuer creates presigned PUT URLs for S3 objects.
type Issuer struct {
	client PresignAPI
	awsCfg *aws.Config
	opts   *Options
	logger *slog.Logger
}

// New creates an Issuer. Call [Issuer.Connect] before use.
func New(awsCfg *aws.Config, opts ...Option) *Issuer {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	return &Issuer{
		awsCfg: awsCfg,
		opts:   options,
	}
}

// Connect creates the S3 presign client from the AWS config provided to [New],
// unless one was injected with [WithPresignAPI].
func (i *Issuer) Connect() error {
	if err := i.opts.validate(); err != nil {
		return fmt.Errorf("invalid S3 options: %w", err)
	}

	if i.opts.presignAPI != nil {
		i.client = i.opts.presignAPI
	} else {
		if i.awsCfg == nil {
			return errors.New("AWS config cannot be nil")
		}
		i.client = s3.NewPresignClient(s3.NewFromConfig(*i.awsCfg))
	}

	i.logger = i.opts.logger.With("plugin", "s3")

	return nil
}

// IssueUploadURL returns a URL that allows a single PUT of objectKey into
// bucket until ttl has elapsed. All failures are of kind
// [todos.KindUploadAuthorizationFailure].
func (i *Issuer) IssueUploadURL(ctx context.Context, bucket, objectKey string, ttl time.Duration) (string, error) {
	const op = "issue upload URL"

	if i.client == nil {
		return "", todos.UploadAuthorizationFailure(op, errors.New("issuer is not connected"))
	}

	if bucket == "" {
		return "", todos.UploadAuthorizationFailure(op, errors.New("bucket cannot be empty"))
	}

	if objectKey == "" {
		return "", todos.UploadAuthorizationFailure(op, errors.New("object key cannot be empty"))
	}

	if ttl <= 0 || ttl > MaxExpiry {
		return "", todos.UploadAuthorizationFailure(op, fmt.Errorf("expiry must be between 1s and %s, got %s", MaxExpiry, ttl))
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	}

	req, err := i.client.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", todos.UploadAuthorizationFailure(op, fmt.Errorf("failed to presign S3 put object: %w", err))
	}

	i.logger.Debug("Presigned S3 upload URL", "bucket", bucket, "key", objectKey, "expires_in", ttl)

	return req.URL, nil
}
