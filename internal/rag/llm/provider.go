package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Options struct {
	Temperature float32
	MaxTokens   int
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Completion struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Provider generates answers from an assembled prompt. StreamChat delivers
// the answer incrementally through onChunk and returns once the stream ends.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (Completion, error)
	StreamChat(ctx context.Context, messages []Message, onChunk func(delta string), opts Options) (Completion, error)
}
