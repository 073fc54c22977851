package extract

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
	"github.com/erarta/advocata-sub000/internal/config"
)

func extractPDF(data []byte) (Result, error) {
	logger.Debug("extractPDF", "attempting extraction, bytes", len(data))
	f, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Error("failed opening of pdf file")
		return Result{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []Page
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// a malformed page should not sink the whole document
			logger.Error("Error parsing page content", "page", i, "Error", err)
			continue
		}

		pages = append(pages, Page{
			Number:  i,
			Content: content,
		})
	}

	return Result{
		Pages:    pages,
		Metadata: map[string]any{"total_pages": numPages},
	}, nil
}

// protectExtract guards GetPlainText, which can hang on corrupt page trees.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractionTimeout):
		logger.Error("pageExtract", "timeout")
		return "", errors.New("timeout")
	}
}
