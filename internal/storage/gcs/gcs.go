// Package gcs uploads files to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dmitrijs2005/gofileup/internal/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	backendName = "gcs"
	publicHost  = "https://storage.googleapis.com"
)

var (
	newStorageClient = func(ctx context.Context, opts ...option.ClientOption) (*gcstorage.Client, error) {
		return gcstorage.NewClient(ctx, opts...)
	}

	checkBucket = func(ctx context.Context, c *gcstorage.Client, bucket string) error {
		_, err := c.Bucket(bucket).Attrs(ctx)
		return err
	}

	newObjectWriter = func(ctx context.Context, c *gcstorage.Client, bucket, key, contentType string) io.WriteCloser {
		w := c.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}

	closeClient = func(c *gcstorage.Client) error {
		return c.Close()
	}

	now = time.Now
)

type Config struct {
	Bucket          string
	KeyPrefix       string
	CredentialsFile string
}

type Client struct {
	cfg    Config
	logger logging.Logger
}

func New(cfg Config, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{cfg: cfg, logger: logger}
}

type session struct {
	client *gcstorage.Client
	bucket string
}

func (s *session) Endpoint() string { return "gs://" + s.bucket }

func (s *session) Close() error {
	return closeClient(s.client)
}

func (c *Client) Name() string { return backendName }

func (c *Client) AcquireSession(ctx context.Context) (storage.Session, error) {
	var opts []option.ClientOption
	if c.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.cfg.CredentialsFile))
	}

	client, err := newStorageClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	if err := checkBucket(ctx, client, c.cfg.Bucket); err != nil {
		_ = closeClient(client)
		return nil, fmt.Errorf("bucket %q: %w", c.cfg.Bucket, err)
	}

	return &session{client: client, bucket: c.cfg.Bucket}, nil
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

	key := ObjectKey(c.cfg.KeyPrefix, src.Name)

	w := newObjectWriter(ctx, s.client, s.bucket, key, src.ContentType)
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	// the object is committed on Close
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("commit object: %w", err)
	}

	if err := src.Verify(); err != nil {
		return "", err
	}

	c.logger.Debug(ctx, "object stored", "id", id, "bucket", s.bucket, "key", key)
	return PublicURL(s.bucket, key), nil
}

// ObjectKey returns prefix/yyyy/mm/dd/<uuid>/name.
func ObjectKey(prefix, name string) string {
	d := now()
	return path.Join(prefix, fmt.Sprintf("%04d/%02d/%02d", d.Year(), d.Month(), d.Day()), uuid.NewString(), name)
}

func PublicURL(bucket, key string) string {
	u := url.URL{Path: "/" + bucket + "/" + key}
	return publicHost + u.EscapedPath()
}
