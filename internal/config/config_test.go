package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, []string{".tmp", ".part", ".crdownload", ".swp", ".DS_Store"}, cfg.ExcludeExtensions)
	assert.Equal(t, "gofile", cfg.Backend)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "https://api.gofile.io", cfg.GofileAPIURL)
	assert.Equal(t, 24*time.Hour, cfg.PresignExpiry)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FlagsOnly(t *testing.T) {
	cfg, rest, err := LoadConfig([]string{"-n", "8", "-x", ".bak, .old", "-q", "-H", "", "upload", "/srv/data"})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []string{".bak", ".old"}, cfg.ExcludeExtensions)
	assert.True(t, cfg.Quiet)
	assert.Empty(t, cfg.HistoryDB)
	assert.Equal(t, []string{"upload", "/srv/data"}, rest)
}

func TestLoadConfig_JsonThenFlags(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"concurrency":          2,
		"backend":              "s3",
		"log_level":            "debug",
		"history_db":           "/tmp/h.db",
		"s3_access_key":        "ak",
		"s3_secret_key":        "sk",
		"s3_bucket":            "media",
		"s3_base_endpoint":     "http://minio:9000",
		"presign_expiry":       "2h",
		"exclude_extensions":   []string{".iso"},
		"gofile_token":         "tok",
		"gcs_credentials_file": "/etc/sa.json",
	})

	cfg, rest, err := LoadConfig([]string{"-c", path, "-n", "6", "history"})
	require.NoError(t, err)

	want := &Config{
		Concurrency:        6,
		ExcludeExtensions:  []string{".iso"},
		Backend:            "s3",
		LogLevel:           "debug",
		HistoryDB:          "/tmp/h.db",
		GofileAPIURL:       "https://api.gofile.io",
		GofileToken:        "tok",
		S3AccessKey:        "ak",
		S3SecretKey:        "sk",
		S3Bucket:           "media",
		S3Region:           "us-east-1",
		S3BaseEndpoint:     "http://minio:9000",
		S3KeyPrefix:        "uploads",
		PresignExpiry:      2 * time.Hour,
		GCSKeyPrefix:       "uploads",
		GCSCredentialsFile: "/etc/sa.json",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"history"}, rest)
}

func TestLoadConfig_JsonKeepsUnsetDefaults(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"quiet": true})

	cfg, _, err := LoadConfig([]string{"-config=" + path})
	require.NoError(t, err)

	assert.True(t, cfg.Quiet)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "gofile", cfg.Backend)
}

func TestLoadConfig_Errors(t *testing.T) {
	badJSON := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte("{not json"), 0o600))

	cases := []struct {
		name string
		args []string
		want error
	}{
		{"unknown flag", []string{"-z"}, common.ErrUsage},
		{"help", []string{"-h"}, common.ErrUsage},
		{"bad int", []string{"-n", "many"}, common.ErrUsage},
		{"zero concurrency", []string{"-n", "0"}, common.ErrInvalidConfig},
		{"unknown backend", []string{"-b", "ftp"}, common.ErrUnknownBackend},
		{"bad log level", []string{"-l", "loud"}, common.ErrInvalidConfig},
		{"gcs without bucket", []string{"-b", "gcs"}, common.ErrInvalidConfig},
		{"missing file", []string{"-c", "/nonexistent/cfg.json"}, common.ErrInvalidConfig},
		{"invalid json", []string{"-c", badJSON}, common.ErrInvalidConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadConfig(tc.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, common.IsUsage(err))
		})
	}
}

func TestValidate_PresignExpiryRange(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.Backend = "s3"

	cfg.PresignExpiry = 8 * 24 * time.Hour
	assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)

	cfg.PresignExpiry = time.Hour
	assert.NoError(t, cfg.Validate())
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)

	out := buf.String()
	assert.Contains(t, out, "upload <path>")
	assert.Contains(t, out, "history [-limit N]")
	assert.Contains(t, out, "-n int")
	assert.Contains(t, out, "storage backend")
}
