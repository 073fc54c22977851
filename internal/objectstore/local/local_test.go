package local

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erarta/advocata-sub000/internal/objectstore"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir(), "http://localhost:3000", []byte("test-key"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := objectstore.ObjectKey("lawyer-1", "doc-1", "lease.pdf")
	res, err := store.Upload(ctx, key, []byte("pdf bytes"), "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Key != key {
		t.Errorf("expected key %q, got %q", key, res.Key)
	}

	recovered, err := objectstore.KeyFromURL(res.URL)
	if err != nil {
		t.Fatalf("KeyFromURL on issued URL: %v", err)
	}
	if recovered != key {
		t.Errorf("issued URL does not round trip: got %q", recovered)
	}

	data, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("unexpected content: %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Download(ctx, key); !errors.Is(err, objectstore.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound after delete, got %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir(), "http://localhost:3000", []byte("test-key"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Download(ctx, "../outside"); err == nil {
		t.Error("expected error for traversal key")
	}
}

func TestSignedURLCarriesExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir(), "http://localhost:3000", []byte("test-key"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	url, err := store.GetSignedURL(ctx, "documents/o/d/f.pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("GetSignedURL: %v", err)
	}
	if !strings.Contains(url, "expires=") || !strings.Contains(url, "signature=") {
		t.Errorf("signed URL missing parameters: %s", url)
	}
}

func TestServeObjectHonorsSignedURL(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir(), "http://localhost:3000", []byte("test-key"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key := objectstore.ObjectKey("lawyer-1", "doc-1", "lease.pdf")
	if _, err := store.Upload(ctx, key, []byte("pdf bytes"), "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	signed, err := store.GetSignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		t.Fatalf("GetSignedURL: %v", err)
	}

	rec := httptest.NewRecorder()
	store.ServeObject(rec, httptest.NewRequest(http.MethodGet, signed, nil), key)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "pdf bytes" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestServeObjectRejectsBadLinks(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir(), "http://localhost:3000", []byte("test-key"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	key := objectstore.ObjectKey("lawyer-1", "doc-1", "lease.pdf")
	if _, err := store.Upload(ctx, key, []byte("pdf bytes"), "application/pdf"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	signed, err := store.GetSignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		t.Fatalf("GetSignedURL: %v", err)
	}

	tests := []struct {
		name string
		url  string
	}{
		{"tampered signature", strings.Replace(signed, "signature=", "signature=00", 1)},
		{"missing expiry", "http://localhost:3000/object/" + key},
		{"expired", func() string {
			u, _ := store.GetSignedURL(ctx, key, -time.Minute)
			return u
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			store.ServeObject(rec, httptest.NewRequest(http.MethodGet, tc.url, nil), key)
			if rec.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", rec.Code)
			}
		})
	}
}
