package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/flagx"
	"github.com/dmitrijs2005/gofileup/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer and zero
// values mean "not set" so only the keys present override defaults.
type JsonConfig struct {
	Concurrency       *int     `json:"concurrency"`
	ExcludeExtensions []string `json:"exclude_extensions"`
	Backend           string   `json:"backend"`
	LogLevel          string   `json:"log_level"`
	Quiet             *bool    `json:"quiet"`
	HistoryDB         *string  `json:"history_db"`

	GofileAPIURL string `json:"gofile_api_url"`
	GofileToken  string `json:"gofile_token"`

	S3AccessKey    string          `json:"s3_access_key"`
	S3SecretKey    string          `json:"s3_secret_key"`
	S3Bucket       string          `json:"s3_bucket"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	S3KeyPrefix    string          `json:"s3_key_prefix"`
	PresignExpiry  *timex.Duration `json:"presign_expiry"`

	GCSBucket          string `json:"gcs_bucket"`
	GCSKeyPrefix       string `json:"gcs_key_prefix"`
	GCSCredentialsFile string `json:"gcs_credentials_file"`
}

// parseJson overlays the file named by -c/-config onto config. Without the
// flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config: %v", common.ErrInvalidConfig, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", common.ErrInvalidConfig, path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	if c.Concurrency != nil {
		config.Concurrency = *c.Concurrency
	}
	if c.ExcludeExtensions != nil {
		config.ExcludeExtensions = c.ExcludeExtensions
	}
	if c.Quiet != nil {
		config.Quiet = *c.Quiet
	}
	if c.HistoryDB != nil {
		config.HistoryDB = *c.HistoryDB
	}
	if c.PresignExpiry != nil {
		config.PresignExpiry = c.PresignExpiry.Duration
	}

	setString(&config.Backend, c.Backend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.GofileAPIURL, c.GofileAPIURL)
	setString(&config.GofileToken, c.GofileToken)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3KeyPrefix, c.S3KeyPrefix)
	setString(&config.GCSBucket, c.GCSBucket)
	setString(&config.GCSKeyPrefix, c.GCSKeyPrefix)
	setString(&config.GCSCredentialsFile, c.GCSCredentialsFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
