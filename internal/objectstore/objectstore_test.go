package objectstore

import (
	"errors"
	"testing"
)

func TestObjectKey(t *testing.T) {
	got := ObjectKey("lawyer-1", "doc-9", "lease.pdf")
	want := "documents/lawyer-1/doc-9/lease.pdf"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{
			name: "object segment",
			url:  "https://files.example.com/object/documents/lawyer-1/doc-9/lease.pdf",
			want: "documents/lawyer-1/doc-9/lease.pdf",
		},
		{
			name: "public segment",
			url:  "https://storage.example.com/bucket/public/documents/lawyer-1/doc-9/lease.pdf",
			want: "documents/lawyer-1/doc-9/lease.pdf",
		},
		{
			name: "query string ignored",
			url:  "https://files.example.com/object/documents/o/d/f.pdf?expires=123&signature=abc",
			want: "documents/o/d/f.pdf",
		},
		{
			name: "escaped file name",
			url:  "https://files.example.com/object/documents/o/d/court%20ruling.pdf",
			want: "documents/o/d/court ruling.pdf",
		},
		{
			name:    "no marker segment",
			url:     "https://files.example.com/documents/lawyer-1/doc-9/lease.pdf",
			wantErr: ErrNoKeyInURL,
		},
		{
			name:    "marker with nothing after it",
			url:     "https://files.example.com/object",
			wantErr: ErrNoKeyInURL,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := KeyFromURL(tc.url)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
