package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/reelroom/backend/internal/config"
)

type recordingUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (u *recordingUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	u.input = input
	data, _ := io.ReadAll(input.Body)
	u.body = string(data)
	if u.err != nil {
		return nil, u.err
	}
	return &manager.UploadOutput{}, nil
}

func TestPosterStoreSavePoster(t *testing.T) {
	uploader := &recordingUploader{}
	store := NewPosterStore(uploader, "reelroom", "https://cdn.example/")
	store.newID = func() string { return "abc" }

	location, err := store.SavePoster(context.Background(), "u1", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "https://cdn.example/posters/u1/abc.png" {
		t.Fatalf("unexpected location %q", location)
	}
	if aws.ToString(uploader.input.Bucket) != "reelroom" || aws.ToString(uploader.input.Key) != "posters/u1/abc.png" {
		t.Fatalf("unexpected upload input %+v", uploader.input)
	}
	if aws.ToString(uploader.input.ContentType) != "image/png" || uploader.body != "png-bytes" {
		t.Fatalf("unexpected upload body %q", uploader.body)
	}
}

func TestPosterStoreWithoutPublicURL(t *testing.T) {
	store := NewPosterStore(&recordingUploader{}, "reelroom", "")
	store.newID = func() string { return "abc" }

	location, err := store.SavePoster(context.Background(), "u1", "image/jpeg", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "posters/u1/abc.jpg" {
		t.Fatalf("expected bare key got %q", location)
	}
}

func TestPosterStoreErrors(t *testing.T) {
	var store *PosterStore
	if _, err := store.SavePoster(context.Background(), "u1", "image/png", strings.NewReader("x")); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured got %v", err)
	}

	failing := NewPosterStore(&recordingUploader{err: errors.New("denied")}, "reelroom", "")
	if _, err := failing.SavePoster(context.Background(), "u1", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := failing.SavePoster(context.Background(), " ", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty owner")
	}

	if _, err := NewS3PosterStore(context.Background(), config.ObjectStoreConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured for empty bucket got %v", err)
	}
}
