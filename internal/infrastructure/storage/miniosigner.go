// Package storage signs time-limited URLs for assets held in S3-compatible storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/config"
)

// maxPresignExpiry is the longest lifetime S3 accepts for a presigned URL.
const maxPresignExpiry = 7 * 24 * time.Hour

var ErrExpiryInPast = errors.New("signed url expiry is not in the future")

// MinioSigner presigns GET requests against a single bucket.
type MinioSigner struct {
	client *minio.Client
	bucket string
	clock  biztime.Clock
}

func NewMinioSigner(cfg config.StorageConfig, clock biztime.Clock) (*MinioSigner, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("storage endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioSigner{client: client, bucket: cfg.Bucket, clock: clock}, nil
}

// Sign returns a presigned GET URL for locator valid until expiresAt.
// Lifetimes beyond the S3 maximum are capped.
func (s *MinioSigner) Sign(ctx context.Context, locator string, expiresAt time.Time, opts content.SignOptions) (string, error) {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl < time.Second {
		return "", ErrExpiryInPast
	}
	if ttl > maxPresignExpiry {
		ttl = maxPresignExpiry
	}

	params := url.Values{}
	if opts.ContentDisposition != "" {
		params.Set("response-content-disposition", opts.ContentDisposition)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, strings.TrimPrefix(locator, "/"), ttl.Truncate(time.Second), params)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", locator, err)
	}
	return u.String(), nil
}
