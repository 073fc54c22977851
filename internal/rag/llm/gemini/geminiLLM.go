package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/rag/llm"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

// GetGeminiClient is the alternate answer provider, selected by LLM_PROVIDER.
func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Info("Gemini client created")
		go closeClient(ctx, geminiClient)
	}
}

func closeClient(ctx context.Context, llmc *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	llmc.client = nil
	llmc.modelName = ""
}

func (c *llmClient) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	ctx, cancel := context.WithTimeout(ctx, config.ProviderCallTimeout)
	defer cancel()

	contents, contentConfig := convert(messages, opts)
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		log.Error("Error getting completion from Gemini", "error", err)
		return llm.Completion{}, err
	}
	if result == nil {
		return llm.Completion{}, errors.New("empty completion response")
	}

	completion := llm.Completion{Content: result.Text()}
	if len(result.Candidates) > 0 {
		completion.FinishReason = string(result.Candidates[0].FinishReason)
	}
	if result.UsageMetadata != nil {
		completion.Usage = llm.Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
}

func (c *llmClient) StreamChat(ctx context.Context, messages []llm.Message, onChunk func(delta string), opts llm.Options) (llm.Completion, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contents, contentConfig := convert(messages, opts)
	var full string
	var usage llm.Usage

	for result, err := range c.client.Models.GenerateContentStream(ctx, c.modelName, contents, contentConfig) {
		if err != nil {
			log.Error("Error streaming completion from Gemini", "error", err)
			return llm.Completion{}, err
		}
		delta := result.Text()
		if delta != "" {
			full += delta
			onChunk(delta)
		}
		if result.UsageMetadata != nil {
			usage = llm.Usage{
				PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
				CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
				TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
			}
		}
	}

	return llm.Completion{Content: full, Usage: usage}, nil
}

// convert splits the system message off into Gemini's SystemInstruction and
// maps the rest onto user/model turns.
func convert(messages []llm.Message, opts llm.Options) ([]*genai.Content, *genai.GenerateContentConfig) {
	contentConfig := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		temp := opts.Temperature
		contentConfig.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		contentConfig.MaxOutputTokens = int32(opts.MaxTokens)
	}

	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			contentConfig.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	return contents, contentConfig
}
