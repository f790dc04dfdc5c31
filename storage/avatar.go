// Package storage holds the blob storage collaborators. Avatars live in an
// S3-compatible bucket; the messaging pipelines never touch it.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"spill/errors"
)

// MaxAvatarBytes caps uploads at 5 MiB.
const MaxAvatarBytes = 5 << 20

type AvatarConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
}

type AvatarStore struct {
	cfg    AvatarConfig
	client *minio.Client
}

func NewAvatarStore(cfg AvatarConfig) (*AvatarStore, error) {
	cl, err := minio.New(strings.TrimPrefix(cfg.Endpoint, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &AvatarStore{cfg: cfg, client: cl}, nil
}

func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Put sniffs the payload, rejects anything that is not an image, stores it
// under a per-user key and returns the public URL to embed in the profile.
func (s *AvatarStore) Put(ctx context.Context, userID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", errors.ErrInvalidRequest)
	}
	if len(data) > MaxAvatarBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", errors.ErrInvalidRequest, MaxAvatarBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: %s is not an image", errors.ErrInvalidRequest, mtype)
	}

	key := fmt.Sprintf("avatars/%s-%d%s", userID, time.Now().UnixNano(), mtype.Extension())
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mtype.String()})
	if err != nil {
		return "", fmt.Errorf("avatar upload failed: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.PublicBaseURL, "/"), s.cfg.Bucket, key), nil
}
