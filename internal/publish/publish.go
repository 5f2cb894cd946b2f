// Package publish uploads rendered snapshots to S3.
package publish

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/toyreact/internal/config"
	"github.com/vango-dev/toyreact/internal/errors"
	"github.com/vango-dev/toyreact/pkg/dom"
	"github.com/vango-dev/toyreact/pkg/telemetry"
)

// Client is the subset of *s3.Client the publisher needs.
type Client interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result describes an uploaded snapshot.
type Result struct {
	Bucket string
	Key    string
	ETag   string
	Size   int
}

// Object is a previously published snapshot.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Publisher uploads snapshots under a key prefix.
type Publisher struct {
	client  Client
	bucket  string
	prefix  string
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithPrefix sets the key prefix, e.g. "previews".
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = strings.Trim(prefix, "/")
	}
}

// WithMetrics records upload outcomes.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Publisher for bucket.
func New(client Client, bucket string, opts ...Option) (*Publisher, error) {
	if bucket == "" {
		return nil, errors.New("E702").
			WithSuggestion("Set publish.bucket in toyreact.json or pass --bucket")
	}
	p := &Publisher{
		client: client,
		bucket: bucket,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Key returns the full object key for name.
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads page as name.
func (p *Publisher) Publish(ctx context.Context, name string, page []byte) (Result, error) {
	if name == "" {
		return Result{}, errors.New("E701").WithDetail("empty object name")
	}
	key := p.Key(name)

	out, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(page),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String("no-cache"),
		Metadata: map[string]string{
			"rendered-at": p.now().UTC().Format(time.RFC3339),
		},
	})
	p.metrics.RecordPublish(err)
	if err != nil {
		return Result{}, errors.New("E701").
			WithDetailf("s3://%s/%s", p.bucket, key).
			Wrap(err)
	}

	result := Result{Bucket: p.bucket, Key: key, Size: len(page)}
	if out != nil && out.ETag != nil {
		result.ETag = strings.Trim(*out.ETag, `"`)
	}
	p.logger.Info("publish: uploaded snapshot", "bucket", p.bucket, "key", key, "bytes", len(page))
	return result, nil
}

// List returns the snapshots under the publisher's prefix.
func (p *Publisher) List(ctx context.Context) ([]Object, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(p.bucket)}
	if p.prefix != "" {
		input.Prefix = aws.String(p.prefix + "/")
	}

	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(p.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.New("E701").WithDetail("listing snapshots").Wrap(err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

// Page serializes doc as a standalone HTML page titled title.
func Page(doc *dom.Document, title string) []byte {
	if head := doc.Head(); head != nil && title != "" {
		t := doc.CreateElement("title")
		_ = doc.AppendChild(t, doc.CreateTextNode(title))
		_ = doc.AppendChild(head, t)
	}
	return []byte("<!DOCTYPE html>" + dom.HTML(doc.Root()))
}

// NewS3Client builds an S3 client from the default AWS configuration chain
// (environment, shared config and credentials files, SSO, instance roles).
// cfg.Region overrides the configured region; cfg.Endpoint selects an
// S3-compatible store with path-style addressing.
func NewS3Client(ctx context.Context, cfg config.PublishConfig) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.New("E702").WithDetail("loading AWS configuration").Wrap(err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
