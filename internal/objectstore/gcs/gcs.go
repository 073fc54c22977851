package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/erarta/advocata-sub000/internal/objectstore"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

// Store holds document files in a Google Cloud Storage bucket. Public URLs
// are served through the application under the /object/ prefix so keys stay
// recoverable from stored URLs.
type Store struct {
	client     *storage.Client
	bucket     string
	publicBase string
	logger     *logger_i.Logger
}

func NewStore(ctx context.Context, bucket, publicBase string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("empty bucket name")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &Store{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		logger:     logger_i.NewLogger("GcsObjectStore"),
	}, nil
}

func (s *Store) Upload(ctx context.Context, key string, data []byte, mimeType string) (objectstore.UploadResult, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return objectstore.UploadResult{}, fmt.Errorf("writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return objectstore.UploadResult{}, fmt.Errorf("finalizing object: %w", err)
	}
	s.logger.Debug("Stored object", "key", key, "bytes", len(data))
	return objectstore.UploadResult{
		URL: s.publicBase + "/object/" + key,
		Key: key,
	}, nil
}

func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, objectstore.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("opening object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return objectstore.ErrObjectNotFound
	}
	return err
}

func (s *Store) GetSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("signing URL: %w", err)
	}
	return url, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
