package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/erarta/advocata-sub000/internal/domain/documentModel"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
)

var logger = logger_i.NewLogger("Extract")

var ErrEmptyContent = errors.New("no extractable text content")
var ErrUnsupportedType = errors.New("unsupported document type")

// Page is the raw text of one page before chunking. Single-body formats
// (plaintext, images) come back as one page.
type Page struct {
	Number  int
	Content string
}

type Result struct {
	Pages     []Page
	PageCount int
	Metadata  map[string]any
}

// ImageOCR recognizes text in a normalized PNG image. Confidence is the
// model's own estimate in [0,1].
type ImageOCR interface {
	RecognizeText(ctx context.Context, png []byte) (string, float64, error)
}

// Extractor turns a downloaded file into pages of text, choosing the
// strategy by declared document type.
type Extractor struct {
	ocr ImageOCR
}

func NewExtractor(ocr ImageOCR) *Extractor {
	return &Extractor{ocr: ocr}
}

func (e *Extractor) Extract(ctx context.Context, docType documentModel.DocumentType, fileName string, data []byte) (Result, error) {
	var res Result
	var err error

	switch docType {
	case documentModel.TypePDF:
		res, err = extractPDF(data)
	case documentModel.TypeText:
		res, err = extractText(fileName, data)
	case documentModel.TypeImage:
		res, err = e.extractImage(ctx, data)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedType, docType)
	}
	if err != nil {
		return Result{}, err
	}

	if !hasContent(res.Pages) {
		return Result{}, ErrEmptyContent
	}
	res.PageCount = len(res.Pages)
	return res, nil
}

func hasContent(pages []Page) bool {
	for _, p := range pages {
		if len(p.Content) > 0 {
			return true
		}
	}
	return false
}
