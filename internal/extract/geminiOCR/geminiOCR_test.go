package geminiOCR

import "testing"

func TestParseOCRResponse(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantText       string
		wantConfidence float64
	}{
		{
			name:           "well formed",
			raw:            "CONFIDENCE: 0.87\nArticle 12. The tenant shall...",
			wantText:       "Article 12. The tenant shall...",
			wantConfidence: 0.87,
		},
		{
			name:           "missing header falls back",
			raw:            "Article 12. The tenant shall...",
			wantText:       "Article 12. The tenant shall...",
			wantConfidence: 0.5,
		},
		{
			name:           "malformed confidence value",
			raw:            "CONFIDENCE: high\nArticle 12.",
			wantText:       "CONFIDENCE: high\nArticle 12.",
			wantConfidence: 0.5,
		},
		{
			name:           "out of range confidence",
			raw:            "CONFIDENCE: 1.7\nArticle 12.",
			wantText:       "CONFIDENCE: 1.7\nArticle 12.",
			wantConfidence: 0.5,
		},
		{
			name:           "multiline transcription",
			raw:            "CONFIDENCE: 0.6\nline one\nline two",
			wantText:       "line one\nline two",
			wantConfidence: 0.6,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, confidence := parseOCRResponse(tc.raw)
			if text != tc.wantText {
				t.Errorf("expected text %q, got %q", tc.wantText, text)
			}
			if confidence != tc.wantConfidence {
				t.Errorf("expected confidence %f, got %f", tc.wantConfidence, confidence)
			}
		})
	}
}
