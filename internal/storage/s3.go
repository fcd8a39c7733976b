package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/reelroom/backend/internal/config"
)

// ErrNotConfigured indicates poster uploads are disabled.
var ErrNotConfigured = errors.New("object storage not configured")

// Uploader is the slice of the S3 upload manager the poster store needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// PosterStore uploads watchlist poster images to an S3-compatible bucket.
type PosterStore struct {
	uploader Uploader
	bucket   string
	baseURL  string
	newID    func() string
}

// NewS3PosterStore configures an uploader targeting the provided object store.
func NewS3PosterStore(ctx context.Context, cfg config.ObjectStoreConfig) (*PosterStore, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return NewPosterStore(uploader, cfg.Bucket, cfg.PublicBaseURL), nil
}

// NewPosterStore wraps an existing uploader.
func NewPosterStore(uploader Uploader, bucket, publicBaseURL string) *PosterStore {
	return &PosterStore{
		uploader: uploader,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(publicBaseURL, "/"),
		newID:    uuid.NewString,
	}
}

// SavePoster stores the image under posters/{uid}/{uuid}{ext} and returns
// its public location.
func (s *PosterStore) SavePoster(ctx context.Context, uid, contentType string, body io.Reader) (string, error) {
	if s == nil || s.uploader == nil {
		return "", ErrNotConfigured
	}
	uid = strings.Trim(strings.TrimSpace(uid), "/")
	if uid == "" {
		return "", fmt.Errorf("s3 storage: empty owner")
	}

	key := path.Join("posters", uid, s.newID()+extensionFor(contentType))

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	if s.baseURL == "" {
		return key, nil
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
