package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lu4p/cat"
)

// extractText handles plaintext plus rich-text containers. cat only reads
// from a path, so container formats go through a temp file.
func extractText(fileName string, data []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".docx", ".odt", ".rtf":
		return extractRichText(ext, data)
	}

	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("file %s is not valid UTF-8 text", fileName)
	}
	return Result{
		Pages: []Page{{Number: 1, Content: string(data)}},
	}, nil
}

func extractRichText(ext string, data []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "extract-*"+ext)
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("closing temp file: %w", err)
	}

	text, err := cat.File(tmp.Name())
	if err != nil {
		logger.Error("Error extracting content from doc", "ext", ext)
		return Result{}, fmt.Errorf("failed to extract %s: %w", ext, err)
	}

	//single page until a page-aware reader exists for these formats
	return Result{
		Pages: []Page{{Number: 1, Content: text}},
	}, nil
}
