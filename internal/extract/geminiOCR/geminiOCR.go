package geminiOCR

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/extract"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var ocrClient *client
var once sync.Once

const ocrInstruction = "You are an OCR engine. Transcribe all text visible in the image exactly, " +
	"preserving line breaks. On the very first line output only CONFIDENCE: followed by your " +
	"confidence in the transcription as a decimal between 0 and 1, then the transcription."

type client struct {
	genAi *genai.Client
	model string
}

// GetGeminiOCR returns a vision-model backed OCR. Like the other provider
// singletons it comes back nil when the client cannot be created.
func GetGeminiOCR(ctx context.Context, modelName string, apikey string) extract.ImageOCR {
	once.Do(func() {
		logger = logger_i.NewLogger("gemini_ocr")
		newOCRClient(ctx, modelName, apikey)
	})

	if ocrClient == nil {
		return nil
	}
	return &client{genAi: ocrClient.genAi, model: ocrClient.model}
}

func newOCRClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini OCR client:", "error", err)
	}
	if c != nil {
		ocrClient = &client{genAi: c, model: modelName}
		logger.Info("Gemini OCR client created")
		go closeClient(ctx, ocrClient)
	}
}

func closeClient(ctx context.Context, c *client) {
	<-ctx.Done()
	logger.Info("Closing Gemini OCR client")
	c.genAi = nil
	c.model = ""
}

func (c *client) RecognizeText(ctx context.Context, png []byte) (string, float64, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: ocrInstruction},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: png}},
			},
		},
	}

	result, err := c.genAi.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		log.Error("Error getting OCR result from Gemini", "error", err)
		return "", 0, err
	}
	if result == nil {
		return "", 0, errors.New("empty OCR response")
	}

	text, confidence := parseOCRResponse(result.Text())
	log.Debug("OCR completed", "confidence", confidence, "chars", len(text))
	return text, confidence, nil
}

// parseOCRResponse splits the CONFIDENCE header off the transcription.
// A missing or malformed header falls back to 0.5.
func parseOCRResponse(raw string) (string, float64) {
	confidence := 0.5
	text := raw

	if first, rest, found := strings.Cut(raw, "\n"); found || strings.HasPrefix(raw, "CONFIDENCE:") {
		trimmed := strings.TrimSpace(first)
		if val, ok := strings.CutPrefix(trimmed, "CONFIDENCE:"); ok {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil && parsed >= 0 && parsed <= 1 {
				confidence = parsed
				text = rest
			}
		}
	}
	return strings.TrimSpace(text), confidence
}
