package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
)

var ErrNoOCR = errors.New("no OCR backend configured")

// extractImage decodes the image, normalizes it to PNG and hands it to the
// OCR backend. The recognized confidence lands in result metadata.
func (e *Extractor) extractImage(ctx context.Context, data []byte) (Result, error) {
	if e.ocr == nil {
		return Result{}, ErrNoOCR
	}

	normalized, format, err := normalizePNG(data)
	if err != nil {
		return Result{}, err
	}

	text, confidence, err := e.ocr.RecognizeText(ctx, normalized)
	if err != nil {
		return Result{}, fmt.Errorf("ocr failed: %w", err)
	}

	return Result{
		Pages: []Page{{Number: 1, Content: text}},
		Metadata: map[string]any{
			"ocr_confidence": confidence,
			"source_format":  format,
		},
	}, nil
}

func normalizePNG(data []byte) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	if format == "png" {
		return data, format, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), format, nil
}
