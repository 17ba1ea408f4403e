// Package gofile uploads files to gofile.io.
//
// A session picks the first server advertised by GET {api}/servers; each
// upload is a streamed multipart POST to that server and its reference is the
// download page returned in the response.
package gofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dmitrijs2005/gofileup/internal/storage"
)

const (
	DefaultAPIURL = "https://api.gofile.io"
	backendName   = "gofile"
)

var ErrNoServers = errors.New("no upload server available")

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

type serversData struct {
	Servers []struct {
		Name string `json:"name"`
		Zone string `json:"zone"`
	} `json:"servers"`
}

type uploadData struct {
	DownloadPage string `json:"downloadPage"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	MD5          string `json:"md5"`
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends the account token as a bearer header on uploads.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUploadURL overrides how a server name turns into an upload URL.
func WithUploadURL(fn func(server string) string) Option {
	return func(c *Client) {
		c.uploadURL = fn
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

type Client struct {
	apiURL    string
	token     string
	http      *http.Client
	uploadURL func(server string) string
	logger    logging.Logger
}

func New(apiURL string, opts ...Option) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	c := &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		http:   &http.Client{},
		uploadURL: func(server string) string {
			return fmt.Sprintf("https://%s.gofile.io/contents/uploadfile", server)
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type session struct {
	server    string
	uploadURL string
}

func (s *session) Endpoint() string { return s.uploadURL }
func (s *session) Close() error     { return nil }

func (c *Client) Name() string { return backendName }

func (c *Client) AcquireSession(ctx context.Context) (storage.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/servers", nil)
	if err != nil {
		return nil, err
	}

	var body envelope[serversData]
	if err := c.doJSON(req, &body); err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	if len(body.Data.Servers) == 0 {
		return nil, ErrNoServers
	}

	server := body.Data.Servers[0].Name
	c.logger.Debug(ctx, "gofile server selected", "server", server, "zone", body.Data.Servers[0].Zone)

	return &session{server: server, uploadURL: c.uploadURL(server)}, nil
}

func (c *Client) Upload(ctx context.Context, sess storage.Session, id, path string, progress chan<- models.Progress) (string, error) {
	s, ok := sess.(*session)
	if !ok {
		return "", storage.ErrInvalidSession
	}

	src, err := storage.OpenSource(ctx, path, id, progress)
	if err != nil {
		return "", err
	}
	defer src.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, src))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, pr)
	if err != nil {
		_ = pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	var body envelope[uploadData]
	err = c.doJSON(req, &body)
	// unblock the writer goroutine if the server answered early
	_ = pr.Close()
	if err != nil {
		return "", err
	}

	if err := src.Verify(); err != nil {
		return "", err
	}
	if body.Data.Size != 0 && body.Data.Size != src.Size {
		return "", fmt.Errorf("%w: server stored %d bytes, file has %d", storage.ErrSizeMismatch, body.Data.Size, src.Size)
	}
	if body.Data.DownloadPage == "" {
		return "", fmt.Errorf("%w: response has no download page", storage.ErrUnexpectedStatus)
	}

	return body.Data.DownloadPage, nil
}

func writeMultipart(mw *multipart.Writer, src *storage.Source) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, src.Name))
	h.Set("Content-Type", src.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) doJSON(req *http.Request, out interface{ ok() bool }) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s; body: %s", storage.ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !out.ok() {
		return fmt.Errorf("%w: api status is not ok", storage.ErrUnexpectedStatus)
	}
	return nil
}

func (e *envelope[T]) ok() bool {
	return e.Status == "ok"
}
