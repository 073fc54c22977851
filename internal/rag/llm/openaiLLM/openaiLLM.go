package openaiLLM

import (
	"context"
	"errors"
	"sync"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/rag/llm"
	"github.com/erarta/advocata-sub000/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var llmClient *client
var once sync.Once

type client struct {
	openAi *openai.Client
	model  string
}

// GetOpenAIClient is the default answer provider.
func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		if apikey == "" {
			logger.Error("OpenAI API key not set")
			return
		}
		c := openai.NewClient(option.WithAPIKey(apikey))
		llmClient = &client{openAi: &c, model: modelName}
		logger.Info("OpenAI client created")
	})

	if llmClient == nil {
		return nil
	}
	return &client{openAi: llmClient.openAi, model: llmClient.model}
}

func (c *client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	ctx, cancel := context.WithTimeout(ctx, config.ProviderCallTimeout)
	defer cancel()

	resp, err := c.openAi.Chat.Completions.New(ctx, c.params(messages, opts))
	if err != nil {
		log.Error("Error getting completion from OpenAI", "error", err)
		return llm.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, errors.New("empty completion response")
	}

	choice := resp.Choices[0]
	return llm.Completion{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (c *client) StreamChat(ctx context.Context, messages []llm.Message, onChunk func(delta string), opts llm.Options) (llm.Completion, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	stream := c.openAi.Chat.Completions.NewStreaming(ctx, c.params(messages, opts))
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				onChunk(delta)
			}
		}
	}
	if err := stream.Err(); err != nil {
		log.Error("Error streaming completion from OpenAI", "error", err)
		return llm.Completion{}, err
	}
	if len(acc.Choices) == 0 {
		return llm.Completion{}, errors.New("empty streamed response")
	}

	return llm.Completion{
		Content:      acc.Choices[0].Message.Content,
		FinishReason: string(acc.Choices[0].FinishReason),
		Usage: llm.Usage{
			PromptTokens:     int(acc.Usage.PromptTokens),
			CompletionTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:      int(acc.Usage.TotalTokens),
		},
	}, nil
}

func (c *client) params(messages []llm.Message, opts llm.Options) openai.ChatCompletionNewParams {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			converted = append(converted, openai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(m.Content))
		default:
			converted = append(converted, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: converted,
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(float64(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	return params
}
