package artifactstore

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/CertFox/internal/pkg/env"
)

const (
	BackendNone  = "none"
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds artifact archive configuration
type Config struct {
	Backend string
	Dir     string

	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

// LoadConfig loads the archive configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Backend:         strings.ToLower(env.GetEnv("ARTIFACT_STORE", BackendNone)),
		Dir:             env.GetEnv("ARTIFACT_DIR", "uploads/certificates"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	if cfg.Backend == BackendS3 {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when ARTIFACT_STORE=s3")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when ARTIFACT_STORE=s3")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when ARTIFACT_STORE=s3")
		}
	}
	return cfg, nil
}
