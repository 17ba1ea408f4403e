// Package s3store uploads files to an S3 compatible bucket through
// presigned URLs. The returned reference is a presigned GET URL.
package s3store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dmitrijs2005/gofileup/internal/netx"
	"github.com/dmitrijs2005/gofileup/internal/storage"
	"github.com/google/uuid"
)

const backendName = "s3"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) error {
		_, err := c.HeadBucket(ctx, in)
		return err
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	now = time.Now
)

type Config struct {
	AccessKey     string
	SecretKey     string
	Region        string
	Bucket        string
	BaseEndpoint  string
	KeyPrefix     string
	PresignExpiry time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 24 * time.Hour
	}
	c := &Client{cfg: cfg, http: http.DefaultClient, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type session struct {
	presign  *s3.PresignClient
	endpoint string
}

func (s *session) Endpoint() string { return s.endpoint }
func (s *session) Close() error     { return nil }

func (c *Client) Name() string { return backendName }

// AcquireSession builds the S3 clients and checks that the bucket is
// reachable with the configured credentials.
func (c *Client) AcquireSession(ctx context.Context) (storage.Session, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.cfg.Region)}
	if c.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.cfg.AccessKey, c.cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if c.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	if err := headBucket(client, ctx, &s3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("bucket %q: %w", c.cfg.Bucket, err)
	}

	endpoint := c.cfg.BaseEndpoint
	if endpoint == "" {
		endpoint = "aws:" + c.cfg.Region
	}
	c.logger.Debug(ctx, "s3 session ready", "bucket", c.cfg.Bucket, "endpoint", endpoint)

	return &session{presign: newS3PresignClient(client), endpoint: endpoint + "/" + c.cfg.Bucket}, nil
}

func (c *Client) Upload(ctx context.Context, sess storage.Session, id, p string, progress chan<- models.Progress) (string, error) {
	s, ok := sess.(*session)
	if !ok {
		return "", storage.ErrInvalidSession
	}

	src, err := storage.OpenSource(ctx, p, id, progress)
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := StorageKey(c.cfg.KeyPrefix, src.Name)
	bucket := c.cfg.Bucket

	put, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(src.ContentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if src.Size == 0 {
		// nothing is streamed for an empty body, read EOF so progress is still reported
		if _, err := io.Copy(io.Discard, src); err != nil {
			return "", err
		}
	}

	if err := netx.PutPresigned(ctx, c.http, put.URL, src, src.Size, src.ContentType); err != nil {
		return "", err
	}
	if err := src.Verify(); err != nil {
		return "", err
	}

	get, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(c.cfg.PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	c.logger.Debug(ctx, "object stored", "id", id, "key", key)
	return get.URL, nil
}

// StorageKey returns prefix/yyyy/mm/dd/<uuid>/name.
func StorageKey(prefix, name string) string {
	d := now()
	return path.Join(prefix, fmt.Sprintf("%04d/%02d/%02d", d.Year(), d.Month(), d.Day()), uuid.NewString(), name)
}
