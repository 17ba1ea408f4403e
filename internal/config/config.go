// Package config handles configuration for the gofileup CLI: defaults,
// an optional JSON file overlay and command-line flags, applied in that
// order.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/discovery"
	"github.com/dmitrijs2005/gofileup/internal/filex"
	"github.com/dmitrijs2005/gofileup/internal/logging"
)

const AppName = "gofileup"

// Backends lists the storage backends that can be selected with -b.
var Backends = []string{"gofile", "s3", "gcs"}

// Config holds runtime settings.
//
// Fields:
//   - Concurrency: maximum number of uploads in flight.
//   - ExcludeExtensions: extensions skipped during directory discovery.
//   - Backend: one of Backends.
//   - LogLevel: debug, info, warn or error.
//   - Quiet: disables the progress display.
//   - HistoryDB: path of the SQLite upload journal; empty disables it.
//   - Gofile*, S3*, GCS*: backend specific settings.
type Config struct {
	Concurrency       int
	ExcludeExtensions []string
	Backend           string
	LogLevel          string
	Quiet             bool
	HistoryDB         string

	GofileAPIURL string
	GofileToken  string

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3KeyPrefix    string
	PresignExpiry  time.Duration

	GCSBucket          string
	GCSKeyPrefix       string
	GCSCredentialsFile string
}

// LoadDefaults populates Config with defaults usable without a config file.
func (c *Config) LoadDefaults() {
	c.Concurrency = 4
	c.ExcludeExtensions = slices.Clone(discovery.DefaultExcludeExtensions)
	c.Backend = "gofile"
	c.LogLevel = "warn"
	c.Quiet = false
	c.HistoryDB = ""
	if p, err := filex.UserDataPath(AppName, "history.db"); err == nil {
		c.HistoryDB = p
	}

	c.GofileAPIURL = "https://api.gofile.io"

	c.S3Bucket = "uploads"
	c.S3Region = "us-east-1"
	c.S3KeyPrefix = "uploads"
	c.PresignExpiry = 24 * time.Hour

	c.GCSKeyPrefix = "uploads"
}

// Validate reports settings that cannot work. Errors wrap
// common.ErrInvalidConfig or common.ErrUnknownBackend.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", common.ErrInvalidConfig, c.Concurrency)
	}
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("%w: %q (want one of %v)", common.ErrUnknownBackend, c.Backend, Backends)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	switch c.Backend {
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: s3 backend needs a bucket", common.ErrInvalidConfig)
		}
		if c.PresignExpiry <= 0 || c.PresignExpiry > 7*24*time.Hour {
			return fmt.Errorf("%w: presign expiry must be within (0, 168h], got %s", common.ErrInvalidConfig, c.PresignExpiry)
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("%w: gcs backend needs a bucket", common.ErrInvalidConfig)
		}
	}
	return nil
}

// LoadConfig builds a Config from defaults, the optional JSON file named by
// -c/-config and the flags in args. It returns the positional arguments left
// after the flags (the subcommand and its arguments).
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}

	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
