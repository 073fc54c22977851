package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
)

type fakeOCR struct {
	text       string
	confidence float64
	err        error
}

func (f *fakeOCR) RecognizeText(ctx context.Context, pngData []byte) (string, float64, error) {
	return f.text, f.confidence, f.err
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestExtractPlaintext(t *testing.T) {
	e := NewExtractor(nil)
	res, err := e.Extract(context.Background(), documentModel.TypeText, "notes.txt", []byte("clause one. clause two."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.PageCount != 1 || res.Pages[0].Content != "clause one. clause two." {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExtractRejectsBinaryAsText(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), documentModel.TypeText, "blob.txt", []byte{0xff, 0xfe, 0x00, 0x81})
	if err == nil {
		t.Error("expected error for non-UTF-8 content")
	}
}

func TestExtractEmptyContent(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), documentModel.TypeText, "empty.txt", []byte(""))
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), documentModel.DocumentType("VIDEO"), "clip.mp4", []byte("x"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestExtractImage(t *testing.T) {
	e := NewExtractor(&fakeOCR{text: "scanned ruling text", confidence: 0.92})
	res, err := e.Extract(context.Background(), documentModel.TypeImage, "scan.png", testPNG(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Pages[0].Content != "scanned ruling text" {
		t.Errorf("unexpected content: %q", res.Pages[0].Content)
	}
	if got := res.Metadata["ocr_confidence"]; got != 0.92 {
		t.Errorf("expected confidence in metadata, got %v", got)
	}
}

func TestExtractImageWithoutOCRBackend(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), documentModel.TypeImage, "scan.png", testPNG(t))
	if !errors.Is(err, ErrNoOCR) {
		t.Errorf("expected ErrNoOCR, got %v", err)
	}
}

func TestExtractImageOCRFailure(t *testing.T) {
	e := NewExtractor(&fakeOCR{err: errors.New("model unavailable")})
	_, err := e.Extract(context.Background(), documentModel.TypeImage, "scan.png", testPNG(t))
	if err == nil {
		t.Error("expected OCR failure to propagate")
	}
}

func TestNormalizePNGPassthrough(t *testing.T) {
	data := testPNG(t)
	out, format, err := normalizePNG(data)
	if err != nil {
		t.Fatalf("normalizePNG: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png format, got %s", format)
	}
	if !bytes.Equal(out, data) {
		t.Error("png input should pass through unchanged")
	}
}
