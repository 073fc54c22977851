package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")
var ErrNoKeyInURL = errors.New("no object key found in URL")

type UploadResult struct {
	URL string
	Key string
}

// Store is where uploaded document files live. Keys are hierarchical paths;
// URLs returned by Upload always embed the key after an "object" (or
// "public") path segment so KeyFromURL can recover it.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, mimeType string) (UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	GetSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectKey builds the canonical storage path for a document's file.
func ObjectKey(ownerId, documentId, fileName string) string {
	return fmt.Sprintf("documents/%s/%s/%s", ownerId, documentId, fileName)
}

// KeyFromURL extracts the storage key from a URL previously issued by a
// Store. The key is everything after the first "public" or "object" path
// segment. A URL without either segment is a hard error, never a guess.
func KeyFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing storage URL: %w", err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "public" || seg == "object" {
			if i+1 >= len(segments) {
				return "", ErrNoKeyInURL
			}
			key := strings.Join(segments[i+1:], "/")
			unescaped, err := url.PathUnescape(key)
			if err != nil {
				return "", fmt.Errorf("unescaping object key: %w", err)
			}
			return unescaped, nil
		}
	}
	return "", ErrNoKeyInURL
}
