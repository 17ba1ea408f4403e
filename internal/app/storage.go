package app

import (
	"fmt"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/config"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/storage"
	"github.com/dmitrijs2005/gofileup/internal/storage/gcs"
	"github.com/dmitrijs2005/gofileup/internal/storage/gofile"
	"github.com/dmitrijs2005/gofileup/internal/storage/s3store"
)

// NewStorageClient builds the backend selected by cfg.Backend.
func NewStorageClient(cfg *config.Config, logger logging.Logger) (storage.Client, error) {
	switch cfg.Backend {
	case "gofile":
		return gofile.New(cfg.GofileAPIURL,
			gofile.WithToken(cfg.GofileToken),
			gofile.WithLogger(logger),
		), nil

	case "s3":
		return s3store.New(s3store.Config{
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			KeyPrefix:     cfg.S3KeyPrefix,
			PresignExpiry: cfg.PresignExpiry,
		}, s3store.WithLogger(logger)), nil

	case "gcs":
		return gcs.New(gcs.Config{
			Bucket:          cfg.GCSBucket,
			KeyPrefix:       cfg.GCSKeyPrefix,
			CredentialsFile: cfg.GCSCredentialsFile,
		}, logger), nil

	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownBackend, cfg.Backend)
	}
}
