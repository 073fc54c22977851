package local

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/objectstore"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

// Store keeps objects on the local filesystem under a base directory. It
// exists for development and tests; production uses the GCS store.
type Store struct {
	baseDir    string
	publicBase string
	signingKey []byte
	logger     *logger_i.Logger
}

func NewStore(baseDir, publicBase string, signingKey []byte) (*Store, error) {
	if baseDir == "" {
		baseDir = config.ObjectStoreLocalDir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating object store dir: %w", err)
	}
	return &Store{
		baseDir:    baseDir,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		signingKey: signingKey,
		logger:     logger_i.NewLogger("LocalObjectStore"),
	}, nil
}

func (s *Store) path(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

func (s *Store) Upload(ctx context.Context, key string, data []byte, mimeType string) (objectstore.UploadResult, error) {
	p, err := s.path(key)
	if err != nil {
		return objectstore.UploadResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return objectstore.UploadResult{}, fmt.Errorf("creating object dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return objectstore.UploadResult{}, fmt.Errorf("writing object: %w", err)
	}
	s.logger.Debug("Stored object", "key", key, "bytes", len(data))
	return objectstore.UploadResult{
		URL: s.publicBase + "/object/" + key,
		Key: key,
	}, nil
}

func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, objectstore.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return objectstore.ErrObjectNotFound
	}
	return err
}

// GetSignedURL issues an expiring HMAC-signed link served back through
// ServeObject. It is a stand-in for real signed URLs in local setups.
func (s *Store) GetSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	expires := time.Now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.sign(key, expires))
	return s.publicBase + "/object/" + key + "?" + q.Encode(), nil
}

func (s *Store) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%s:%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// ServeObject answers GET /object/{key} for links issued by GetSignedURL.
// The signature binds key and expiry; anything else is a 403.
func (s *Store) ServeObject(w http.ResponseWriter, r *http.Request, key string) {
	expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
	if err != nil || time.Now().Unix() > expires {
		http.Error(w, "link expired", http.StatusForbidden)
		return
	}
	sig := r.URL.Query().Get("signature")
	if !hmac.Equal([]byte(sig), []byte(s.sign(key, expires))) {
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	data, err := s.Download(r.Context(), key)
	if err != nil {
		http.Error(w, "object not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(key)+"\"")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Error writing object response", "key", key, "error", err)
	}
}
