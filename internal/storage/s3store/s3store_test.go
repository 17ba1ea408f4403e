package s3store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dmitrijs2005/gofileup/internal/netx"
	"github.com/dmitrijs2005/gofileup/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	AccessKey:     "minioadmin",
	SecretKey:     "minioadmin",
	Region:        "us-east-1",
	Bucket:        "uploads",
	BaseEndpoint:  "http://127.0.0.1:9000",
	KeyPrefix:     "uploads",
	PresignExpiry: time.Hour,
}

// stubSeams replaces the SDK constructors for the duration of the test.
func stubSeams(t *testing.T, putURL string) (*s3.PutObjectInput, *[]time.Duration) {
	t.Helper()

	origLoad, origNew, origPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origHead, origPut, origGet := headBucket, presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient = origLoad, origNew, origPre
		headBucket, presignPutObject, presignGetObject = origHead, origPut, origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) error {
		return nil
	}

	var gotPut s3.PutObjectInput
	var expiries []time.Duration
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotPut = *in
		return &v4.PresignedHTTPRequest{URL: putURL, Method: http.MethodPut}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		expiries = append(expiries, po.Expires)
		return &v4.PresignedHTTPRequest{URL: "https://get/" + aws.ToString(in.Key), Method: http.MethodGet}, nil
	}
	return &gotPut, &expiries
}

func TestAcquireSession_AppliesConfig(t *testing.T) {
	stubSeams(t, "")

	var region, endpoint string
	var pathStyle bool
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		endpoint = aws.ToString(o.BaseEndpoint)
		pathStyle = o.UsePathStyle
		return &s3.Client{}
	}
	var probed string
	headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) error {
		probed = aws.ToString(in.Bucket)
		return nil
	}

	sess, err := New(testCfg).AcquireSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", region)
	assert.Equal(t, "http://127.0.0.1:9000", endpoint)
	assert.True(t, pathStyle)
	assert.Equal(t, "uploads", probed)
	assert.Equal(t, "http://127.0.0.1:9000/uploads", sess.Endpoint())
}

func TestAcquireSession_Errors(t *testing.T) {
	t.Run("config load", func(t *testing.T) {
		stubSeams(t, "")
		loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("load-fail")
		}
		_, err := New(testCfg).AcquireSession(context.Background())
		assert.ErrorContains(t, err, "load-fail")
	})

	t.Run("missing bucket", func(t *testing.T) {
		stubSeams(t, "")
		headBucket = func(c *s3.Client, ctx context.Context, in *s3.HeadBucketInput) error {
			return errors.New("NotFound")
		}
		_, err := New(testCfg).AcquireSession(context.Background())
		assert.ErrorContains(t, err, `bucket "uploads"`)
	})
}

func TestUpload_PutsAndReturnsGetURL(t *testing.T) {
	const content = "s3 object body"
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gotPut, expiries := stubSeams(t, srv.URL+"/put")

	p := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	c := New(testCfg, WithHTTPClient(srv.Client()))
	sess, err := c.AcquireSession(context.Background())
	require.NoError(t, err)

	progress := make(chan models.Progress, 8)
	ref, err := c.Upload(context.Background(), sess, "id-7", p, progress)
	require.NoError(t, err)

	assert.Equal(t, content, string(gotBody))
	assert.Regexp(t, regexp.MustCompile(`^https://get/uploads/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}/report\.txt$`), ref)
	assert.Equal(t, "uploads", aws.ToString(gotPut.Bucket))
	assert.Contains(t, aws.ToString(gotPut.ContentType), "text/plain")
	assert.Equal(t, []time.Duration{time.Hour}, *expiries)

	close(progress)
	var last models.Progress
	for m := range progress {
		last = m
	}
	assert.Equal(t, int64(len(content)), last.Bytes)
}

func TestUpload_EmptyFileReportsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	stubSeams(t, srv.URL)

	p := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(p, nil, 0o644))

	c := New(testCfg, WithHTTPClient(srv.Client()))
	sess, err := c.AcquireSession(context.Background())
	require.NoError(t, err)

	progress := make(chan models.Progress, 2)
	_, err = c.Upload(context.Background(), sess, "e", p, progress)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, models.Progress{ID: "e", Bytes: 0}, <-progress)
}

func TestUpload_PutRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
	}))
	defer srv.Close()
	stubSeams(t, srv.URL)

	p := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(p, []byte{1, 2, 3}, 0o644))

	c := New(testCfg, WithHTTPClient(srv.Client()))
	sess, err := c.AcquireSession(context.Background())
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), sess, "x", p, nil)
	var se *netx.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestUpload_RejectsForeignSession(t *testing.T) {
	_, err := New(testCfg).Upload(context.Background(), nil, "id", "x", nil)
	assert.ErrorIs(t, err, storage.ErrInvalidSession)
}

func TestStorageKey(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })
	now = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }

	key := StorageKey("backups", "a.tar")
	assert.Regexp(t, `^backups/2024/03/07/[0-9a-f-]{36}/a\.tar$`, key)
	assert.NotEqual(t, key, StorageKey("backups", "a.tar"))
}
